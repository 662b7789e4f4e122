package lower

import (
	"fmt"
	"strings"

	"firlower/internal/fir"
)

// FormatLinearOps renders ops as one line per entry, in source order, for
// the --debug-linear dump: the pre-block-building view of a procedure that
// the Block Builder itself never gets to see (it only sees LinearOp
// values, not this rendering).
func FormatLinearOps(ops []LinearOp) string {
	var b strings.Builder
	for _, op := range ops {
		fmt.Fprintf(&b, "%s\n", formatOp(op))
	}
	return b.String()
}

func formatOp(op LinearOp) string {
	switch o := op.(type) {
	case LabelOp:
		return fmt.Sprintf("label L%d", o.Target)
	case GotoOp:
		return fmt.Sprintf("goto L%d", o.Target)
	case IndirectGotoOp:
		return fmt.Sprintf("indirect_goto %s %s", exprString(o.Address), labelList(o.Candidates))
	case ReturnOp:
		return fmt.Sprintf("return kind=%d", o.Kind)
	case CondGotoOp:
		if o.DoLatch != fir.UnspecifiedLabel {
			return fmt.Sprintf("cond_goto do_latch(L%d), L%d, L%d", o.DoLatch, o.TrueLabel, o.FalseLabel)
		}
		return fmt.Sprintf("cond_goto %s, L%d, L%d", exprString(o.Cond), o.TrueLabel, o.FalseLabel)
	case SwitchOp:
		return fmt.Sprintf("switch %s %s default L%d", exprString(o.Cond), armList(o.Arms), o.Default)
	case ActionOp:
		return fmt.Sprintf("action kind=%d", o.Kind)
	case AssignLabelOp:
		return fmt.Sprintf("assign_label %s <- L%d", exprString(o.Var), o.Target)
	case DoIncrementOp:
		return fmt.Sprintf("do_increment %s, %s", exprString(o.Var), exprString(o.Step))
	case DoCompareOp:
		return fmt.Sprintf("do_compare latch=L%d", o.Latch)
	case BeginConstructOp:
		return fmt.Sprintf("begin_construct kind=%d", o.Kind)
	case EndConstructOp:
		return fmt.Sprintf("end_construct kind=%d", o.Kind)
	default:
		return "<unknown op>"
	}
}

func exprString(e interface{ String() string }) string {
	if e == nil {
		return "<none>"
	}
	return e.String()
}

func labelList(ls []fir.LLabel) string {
	parts := make([]string, 0, len(ls))
	for _, l := range ls {
		parts = append(parts, fmt.Sprintf("L%d", l))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func armList(arms []SwitchArm) string {
	parts := make([]string, 0, len(arms))
	for _, a := range arms {
		parts = append(parts, fmt.Sprintf("%s:L%d", a.Value, a.Label))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
