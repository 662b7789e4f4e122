package fir

import (
	"fmt"
	"strings"
)

// FormatProgram returns a readable text dump of every procedure in p, in
// the same block/terminator-per-line shape the debug linear stream uses
// for the pre-lowering representation (see lower.FormatLinearOps).
func FormatProgram(p *Program) string {
	var b strings.Builder
	for i, proc := range p.Procedures {
		if i > 0 {
			b.WriteString("\n")
		}
		writeProcedure(&b, proc)
	}
	return b.String()
}

func writeProcedure(b *strings.Builder, proc *Procedure) {
	fmt.Fprintf(b, "%s %s {\n", proc.Kind, proc.Name)
	writeRegion(b, proc.Root, "  ")
	b.WriteString("}\n")
}

func writeRegion(b *strings.Builder, r *Region, indent string) {
	for _, block := range r.Blocks {
		writeBlock(b, block, indent)
	}
	for _, nested := range r.Nested {
		fmt.Fprintf(b, "%sregion {\n", indent)
		writeRegion(b, nested, indent+"  ")
		fmt.Fprintf(b, "%s}\n", indent)
	}
}

func writeBlock(b *strings.Builder, block *BasicBlock, indent string) {
	fmt.Fprintf(b, "%sblock L%d:\n", indent, block.ID)
	for _, stmt := range block.Stmts {
		fmt.Fprintf(b, "%s  %s\n", indent, formatStmt(stmt))
	}
	if block.Term != nil {
		fmt.Fprintf(b, "%s  %s\n", indent, formatStmt(block.Term))
	} else {
		fmt.Fprintf(b, "%s  <no terminator>\n", indent)
	}
}

func formatStmt(s Stmt) string {
	switch v := s.(type) {
	case *Alloc:
		return fmt.Sprintf("alloc %s", formatExpr(v.Object))
	case *Dealloc:
		return fmt.Sprintf("dealloc %s", formatExpr(v.Object))
	case *Addr:
		return fmt.Sprintf("addr %s", formatExpr(v.Designator))
	case *Load:
		return fmt.Sprintf("load %s", formatExpr(v.Addr))
	case *Store:
		return fmt.Sprintf("store %s, %s", formatExpr(v.Addr), formatExpr(v.Value))
	case *Eval:
		return fmt.Sprintf("eval %s", formatExpr(v.Value))
	case *Call:
		return fmt.Sprintf("call %s(%s)", formatExpr(v.Proc), formatExprs(v.Args))
	case *IOCall:
		return fmt.Sprintf("io %s(%s)", v.Verb, formatExprs(v.Args))
	case *RuntimeCall:
		return fmt.Sprintf("runtime %s(%s)", v.Name, formatExprs(v.Args))
	case *Nullify:
		return fmt.Sprintf("nullify %s", formatExpr(v.Pointer))
	case *Increment:
		return fmt.Sprintf("increment %s, %s", formatExpr(v.Variable), formatExpr(v.Step))
	case *DoCondition:
		return fmt.Sprintf("do_condition %s", formatExpr(v.Result))
	case *Branch:
		return fmt.Sprintf("br L%d", v.Target.ID)
	case *ConditionalBranch:
		return fmt.Sprintf("cond_br %s, L%d, L%d", formatExpr(v.Cond), v.Then.ID, v.Else.ID)
	case *Switch:
		return fmt.Sprintf("switch %s %s default L%d", formatExpr(v.Cond), formatCases(v.Cases), v.Default.ID)
	case *IndirectBranch:
		return fmt.Sprintf("indirect_br %s %s", formatExpr(v.Address), formatBlocks(v.Candidates))
	case *Return:
		switch v.Kind {
		case StopReturn:
			return fmt.Sprintf("stop %s", formatExpr(v.Code))
		case FailImageReturn:
			return "fail_image"
		default:
			return "return"
		}
	case *Unreachable:
		return "unreachable"
	default:
		return "<unknown>"
	}
}

func formatExpr(e Expr) string {
	if e == nil {
		return "<none>"
	}
	return e.String()
}

func formatExprs(es []Expr) string {
	parts := make([]string, 0, len(es))
	for _, e := range es {
		parts = append(parts, formatExpr(e))
	}
	return strings.Join(parts, ", ")
}

func formatCases(cases []SwitchCase) string {
	parts := make([]string, 0, len(cases))
	for _, c := range cases {
		parts = append(parts, fmt.Sprintf("%s: L%d", c.Value, c.Target.ID))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatBlocks(blocks []*BasicBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		parts = append(parts, fmt.Sprintf("L%d", blk.ID))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
