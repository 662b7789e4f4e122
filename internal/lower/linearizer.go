package lower

import (
	"firlower/internal/ast"
	"firlower/internal/diag"
	"firlower/internal/fir"
)

// Linearizer walks a parse-tree body exactly once, producing a flat
// []LinearOp stream. It never builds a single fir.BasicBlock itself —
// that is the Block Builder's job, consuming this stream in a second,
// independent pass. Keeping the two phases separate is what lets forward
// GOTOs resolve without a two-pass topology sort.
type Linearizer struct {
	state *AnalysisState
	ops   []LinearOp
}

// NewLinearizer returns a linearizer sharing state with the rest of one
// procedure's lowering.
func NewLinearizer(state *AnalysisState) *Linearizer {
	return &Linearizer{state: state}
}

// Ops returns the accumulated op stream once linearization is complete.
func (lz *Linearizer) Ops() []LinearOp {
	return lz.ops
}

func (lz *Linearizer) emit(op LinearOp) {
	lz.ops = append(lz.ops, op)
}

func (lz *Linearizer) newLabel() fir.LLabel {
	return lz.state.Labels.BuildNewLabel()
}

func (lz *Linearizer) fetch(l *ast.Label) fir.LLabel {
	return lz.state.Labels.FetchLabel(l.Text)
}

// Walk linearizes every item of a body in order, emitting a LabelOp ahead
// of any statement or construct that carries a source label.
func (lz *Linearizer) Walk(body ast.Block) {
	for _, item := range body.Items {
		if item.Label != nil {
			lz.emit(LabelOp{Target: lz.fetch(item.Label), opBase: opBase{Location: item.Label.Location}})
		}
		lz.walkNode(item.Node)
	}
}

func (lz *Linearizer) walkNode(node ast.Node) {
	switch n := node.(type) {
	case ast.Stmt:
		lz.walkStmt(n)
	case ast.Construct:
		lz.walkConstruct(n)
	default:
		panic(diag.NewStructuralError(nil, "unrecognized parse-tree node in body"))
	}
}

// --- action statements ----------------------------------------------------

func (lz *Linearizer) walkStmt(s ast.Stmt) {
	loc := s.Loc()
	switch st := s.(type) {
	case *ast.AssignStmt:
		lz.emit(ActionOp{Kind: ActionAssign, Stmt: st, opBase: opBase{Location: loc}})

	case *ast.PointerAssignStmt:
		lz.emit(ActionOp{Kind: ActionPointerAssign, Stmt: st, opBase: opBase{Location: loc}})

	case *ast.AssignLabelStmt:
		target := lz.fetch(st.Target)
		if name, ok := designatorName(st.Var); ok {
			lz.state.AddAssign(name, target)
		}
		lz.emit(AssignLabelOp{Var: st.Var, Target: target, opBase: opBase{Location: loc}})

	case *ast.CallStmt:
		lz.emit(ActionOp{Kind: ActionCall, Stmt: st, opBase: opBase{Location: loc}})
		if len(st.AltReturns) > 0 {
			fallthroughLabel := lz.newLabel()
			arms := make([]SwitchArm, 0, len(st.AltReturns))
			for i, l := range st.AltReturns {
				arms = append(arms, SwitchArm{Value: indexValue(i + 1), Label: lz.fetch(l)})
			}
			lz.emit(SwitchOp{Cond: st.Proc, Arms: arms, Default: fallthroughLabel, opBase: opBase{Location: loc}})
			lz.emit(LabelOp{Target: fallthroughLabel, opBase: opBase{Location: loc}})
		}

	case *ast.CycleStmt:
		frame := lz.state.FindStack(nameText(st.Construct), true)
		lz.emit(GotoOp{Target: frame.Cycle, opBase: opBase{Location: loc}})

	case *ast.ExitStmt:
		frame := lz.state.FindStack(nameText(st.Construct), false)
		lz.emit(GotoOp{Target: frame.Exit, opBase: opBase{Location: loc}})

	case *ast.GotoStmt:
		lz.emit(GotoOp{Target: lz.fetch(st.Target), opBase: opBase{Location: loc}})

	case *ast.ComputedGotoStmt:
		fallthroughLabel := lz.newLabel()
		arms := make([]SwitchArm, 0, len(st.Targets))
		for i, l := range st.Targets {
			arms = append(arms, SwitchArm{Value: indexValue(i + 1), Label: lz.fetch(l)})
		}
		lz.emit(SwitchOp{Cond: st.Value, Arms: arms, Default: fallthroughLabel, opBase: opBase{Location: loc}})
		lz.emit(LabelOp{Target: fallthroughLabel, opBase: opBase{Location: loc}})

	case *ast.ArithmeticIfStmt:
		arms := []SwitchArm{
			{Value: "neg", Label: lz.fetch(st.Negative)},
			{Value: "zero", Label: lz.fetch(st.Zero)},
		}
		lz.emit(SwitchOp{Cond: st.Value, Arms: arms, Default: lz.fetch(st.Positive), opBase: opBase{Location: loc}})

	case *ast.AssignedGotoStmt:
		var candidates []fir.LLabel
		if len(st.Candidates) > 0 {
			for _, l := range st.Candidates {
				candidates = append(candidates, lz.fetch(l))
			}
		} else if name, ok := designatorName(st.Var); ok {
			candidates = lz.state.GetAssign(name)
		}
		lz.emit(IndirectGotoOp{Address: st.Var, Candidates: candidates, opBase: opBase{Location: loc}})

	case *ast.IfStmt:
		thenLabel := lz.newLabel()
		endLabel := lz.newLabel()
		lz.emit(CondGotoOp{Cond: st.Cond, TrueLabel: thenLabel, FalseLabel: endLabel, opBase: opBase{Location: loc}})
		lz.emit(LabelOp{Target: thenLabel, opBase: opBase{Location: loc}})
		lz.walkStmt(st.Then)
		lz.emit(GotoOp{Target: endLabel, opBase: opBase{Location: loc}})
		lz.emit(LabelOp{Target: endLabel, opBase: opBase{Location: loc}})

	case *ast.ReturnStmt:
		lz.emit(ReturnOp{Kind: fir.NormalReturn, opBase: opBase{Location: loc}})

	case *ast.StopStmt:
		lz.emit(ActionOp{Kind: ActionStop, Stmt: st, opBase: opBase{Location: loc}})
		lz.emit(ReturnOp{Kind: fir.StopReturn, Code: st.Code, opBase: opBase{Location: loc}})

	case *ast.FailImageStmt:
		lz.emit(ReturnOp{Kind: fir.FailImageReturn, opBase: opBase{Location: loc}})

	case *ast.IOStmt:
		lz.walkIOStmt(st)

	case *ast.NullifyStmt:
		lz.emit(ActionOp{Kind: ActionNullify, Stmt: st, opBase: opBase{Location: loc}})

	case *ast.AllocateStmt:
		lz.emit(ActionOp{Kind: ActionAllocate, Stmt: st, opBase: opBase{Location: loc}})

	case *ast.DeallocateStmt:
		lz.emit(ActionOp{Kind: ActionDeallocate, Stmt: st, opBase: opBase{Location: loc}})

	case *ast.CompilerDirectiveStmt:
		lz.emit(ActionOp{Kind: ActionCompilerDirective, Stmt: st, opBase: opBase{Location: loc}})

	default:
		panic(diag.NewStructuralError(&loc, "unhandled action statement kind"))
	}
}

func (lz *Linearizer) walkIOStmt(st *ast.IOStmt) {
	loc := st.Loc()
	lz.emit(ActionOp{Kind: ActionIO, Stmt: st, opBase: opBase{Location: loc}})

	var arms []SwitchArm
	for _, spec := range st.Specifiers {
		switch spec.Keyword {
		case "ERR":
			arms = append(arms, SwitchArm{Value: "err", Label: lz.fetch(spec.Label)})
		case "END":
			arms = append(arms, SwitchArm{Value: "end", Label: lz.fetch(spec.Label)})
		case "EOR":
			arms = append(arms, SwitchArm{Value: "eor", Label: lz.fetch(spec.Label)})
		}
	}
	if len(arms) == 0 {
		return
	}
	fallthroughLabel := lz.newLabel()
	lz.emit(SwitchOp{Cond: nil, Arms: arms, Default: fallthroughLabel, opBase: opBase{Location: loc}})
	lz.emit(LabelOp{Target: fallthroughLabel, opBase: opBase{Location: loc}})
}

// --- constructs ------------------------------------------------------------

func (lz *Linearizer) walkConstruct(c ast.Construct) {
	switch cn := c.(type) {
	case *ast.IfConstruct:
		lz.walkIfConstruct(cn)
	case *ast.DoConstruct:
		lz.walkDoConstruct(cn)
	case *ast.SelectCaseConstruct:
		lz.walkSelectCase(cn)
	case *ast.SelectRankConstruct:
		lz.walkSelectRank(cn)
	case *ast.SelectTypeConstruct:
		lz.walkSelectType(cn)
	case *ast.WhereConstruct:
		lz.walkPassThrough(ConstructWhere, cn, nameText(cn.Name), cn.Body)
		if cn.Else != nil {
			lz.Walk(*cn.Else)
		}
	case *ast.ForallConstruct:
		lz.walkPassThrough(ConstructForall, cn, nameText(cn.Name), cn.Body)
	case *ast.BlockConstruct:
		lz.walkPassThrough(ConstructBlock, cn, nameText(cn.Name), cn.Body)
	case *ast.AssociateConstruct:
		lz.walkPassThrough(ConstructAssociate, cn, nameText(cn.Name), cn.Body)
	case *ast.ChangeTeamConstruct:
		lz.walkPassThrough(ConstructChangeTeam, cn, nameText(cn.Name), cn.Body)
	case *ast.CriticalConstruct:
		lz.walkPassThrough(ConstructCritical, cn, nameText(cn.Name), cn.Body)
	case *ast.OpenMPConstruct:
		lz.walkPassThrough(ConstructOpenMP, cn, "", cn.Body)
	default:
		panic(diag.NewStructuralError(nil, "unhandled construct kind"))
	}
}

// walkPassThrough handles the constructs that add no control flow beyond
// an EXIT target: WHERE, FORALL, BLOCK, ASSOCIATE, CHANGE TEAM, CRITICAL
// and OpenMP directive blocks. This is the documented placeholder
// behavior for ChangeTeam/Forall carried over from the lowering library's
// own FIXME, generalized to every construct in this family.
func (lz *Linearizer) walkPassThrough(kind ConstructKind, node ast.Node, name string, body ast.Block) {
	exitLabel := lz.newLabel()
	loc := node.Loc()
	lz.emit(BeginConstructOp{Kind: kind, Node: node, opBase: opBase{Location: loc}})
	lz.state.PushConstruct(ConstructFrame{Name: name, IsDo: false, Exit: exitLabel})
	lz.Walk(body)
	lz.state.PopConstruct()
	lz.emit(EndConstructOp{Kind: kind, opBase: opBase{Location: loc}})
	lz.emit(LabelOp{Target: exitLabel, opBase: opBase{Location: loc}})
}

func (lz *Linearizer) walkIfConstruct(c *ast.IfConstruct) {
	loc := c.Loc()
	endLabel := lz.newLabel()

	for i, clause := range c.Clauses {
		thenLabel := lz.newLabel()
		isLast := i == len(c.Clauses)-1

		var falseLabel fir.LLabel
		switch {
		case !isLast:
			falseLabel = lz.newLabel()
		case c.Else != nil:
			falseLabel = lz.newLabel()
		default:
			falseLabel = endLabel
		}

		lz.emit(CondGotoOp{Cond: clause.Cond, TrueLabel: thenLabel, FalseLabel: falseLabel, opBase: opBase{Location: clause.Loc}})
		lz.emit(LabelOp{Target: thenLabel, opBase: opBase{Location: clause.Loc}})
		lz.Walk(clause.Body)
		lz.emit(GotoOp{Target: endLabel, opBase: opBase{Location: clause.Loc}})

		switch {
		case !isLast:
			lz.emit(LabelOp{Target: falseLabel, opBase: opBase{Location: clause.Loc}})
		case c.Else != nil:
			lz.emit(LabelOp{Target: falseLabel, opBase: opBase{Location: clause.Loc}})
			lz.Walk(*c.Else)
		}
	}

	lz.emit(LabelOp{Target: endLabel, opBase: opBase{Location: loc}})
}

func (lz *Linearizer) walkDoConstruct(c *ast.DoConstruct) {
	loc := c.Loc()
	checkLabel := lz.newLabel()
	bodyLabel := lz.newLabel()
	continueLabel := lz.newLabel()
	exitLabel := lz.newLabel()
	name := nameText(c.Name)

	counted := c.Stmt.Cond == nil && !c.Stmt.Concurrent
	lz.state.SetDoBounds(checkLabel, &DoBoundsInfo{
		Var: c.Stmt.Var, Start: c.Stmt.Start, End: c.Stmt.End, Step: c.Stmt.Step,
		Cond: c.Stmt.Cond, Concurrent: c.Stmt.Concurrent,
	})

	// BeginConstructOp opens the DO's own region per spec.md §4.5: the
	// Block Builder allocates the induction variable and initializes
	// do_var=lower here, before the backedge into the latch test below.
	lz.emit(BeginConstructOp{Kind: ConstructDo, Name: c.Name, Node: c, Latch: checkLabel, opBase: opBase{Location: loc}})
	lz.emit(GotoOp{Target: checkLabel, opBase: opBase{Location: loc}})
	lz.emit(LabelOp{Target: checkLabel, opBase: opBase{Location: loc}})
	lz.emit(DoCompareOp{Latch: checkLabel, opBase: opBase{Location: loc}})
	lz.emit(CondGotoOp{DoLatch: checkLabel, TrueLabel: bodyLabel, FalseLabel: exitLabel, opBase: opBase{Location: loc}})
	lz.emit(LabelOp{Target: bodyLabel, opBase: opBase{Location: loc}})

	lz.state.PushConstruct(ConstructFrame{Name: name, IsDo: true, Cycle: continueLabel, Exit: exitLabel})
	lz.Walk(c.Body)
	lz.state.PopConstruct()

	lz.emit(GotoOp{Target: continueLabel, opBase: opBase{Location: loc}})
	lz.emit(LabelOp{Target: continueLabel, opBase: opBase{Location: loc}})
	if counted {
		lz.emit(DoIncrementOp{Var: c.Stmt.Var, Step: c.Stmt.Step, opBase: opBase{Location: loc}})
	}
	lz.emit(GotoOp{Target: checkLabel, opBase: opBase{Location: loc}})
	lz.emit(EndConstructOp{Kind: ConstructDo, opBase: opBase{Location: loc}})
	lz.emit(LabelOp{Target: exitLabel, opBase: opBase{Location: loc}})
}

func (lz *Linearizer) walkSelectCase(c *ast.SelectCaseConstruct) {
	loc := c.Loc()
	exitLabel := lz.newLabel()
	name := nameText(c.Name)

	lz.emit(BeginConstructOp{Kind: ConstructSelectCase, Name: c.Name, Node: c, opBase: opBase{Location: loc}})
	lz.state.PushConstruct(ConstructFrame{Name: name, IsDo: false, Exit: exitLabel})

	armLabels := make([]fir.LLabel, len(c.Arms))
	var arms []SwitchArm
	defaultLabel := fir.UnspecifiedLabel
	sawDefault := false
	for i, arm := range c.Arms {
		armLabels[i] = lz.newLabel()
		if arm.Default {
			if sawDefault {
				panic(diag.NewStructuralError(&arm.Loc, "SELECT CASE has more than one CASE DEFAULT arm"))
			}
			sawDefault = true
			defaultLabel = armLabels[i]
			continue
		}
		for _, v := range arm.Values {
			arms = append(arms, SwitchArm{Value: caseValueString(v), Label: armLabels[i]})
		}
	}
	if !sawDefault {
		defaultLabel = exitLabel
	}
	lz.emit(SwitchOp{Cond: c.Expr, Arms: arms, Default: defaultLabel, opBase: opBase{Location: loc}})

	for i, arm := range c.Arms {
		lz.emit(LabelOp{Target: armLabels[i], opBase: opBase{Location: arm.Loc}})
		lz.Walk(arm.Body)
		lz.emit(GotoOp{Target: exitLabel, opBase: opBase{Location: arm.Loc}})
	}

	lz.state.PopConstruct()
	lz.emit(EndConstructOp{Kind: ConstructSelectCase, opBase: opBase{Location: loc}})
	lz.emit(LabelOp{Target: exitLabel, opBase: opBase{Location: loc}})
}

func (lz *Linearizer) walkSelectRank(c *ast.SelectRankConstruct) {
	loc := c.Loc()
	exitLabel := lz.newLabel()
	name := nameText(c.Name)

	lz.emit(BeginConstructOp{Kind: ConstructSelectRank, Name: c.Name, Node: c, opBase: opBase{Location: loc}})
	lz.state.PushConstruct(ConstructFrame{Name: name, IsDo: false, Exit: exitLabel})

	armLabels := make([]fir.LLabel, len(c.Arms))
	var arms []SwitchArm
	defaultLabel := exitLabel
	sawDefault := false
	for i, arm := range c.Arms {
		armLabels[i] = lz.newLabel()
		switch {
		case arm.Default:
			if sawDefault {
				panic(diag.NewStructuralError(nil, "SELECT RANK has more than one RANK DEFAULT arm"))
			}
			sawDefault = true
			defaultLabel = armLabels[i]
		case arm.Star:
			arms = append(arms, SwitchArm{Value: "*", Label: armLabels[i]})
		default:
			arms = append(arms, SwitchArm{Value: indexValue(arm.Rank), Label: armLabels[i]})
		}
	}
	lz.emit(SwitchOp{Cond: c.Selector, Arms: arms, Default: defaultLabel, opBase: opBase{Location: loc}})

	for i, arm := range c.Arms {
		lz.emit(LabelOp{Target: armLabels[i], opBase: opBase{Location: loc}})
		lz.Walk(arm.Body)
		lz.emit(GotoOp{Target: exitLabel, opBase: opBase{Location: loc}})
	}

	lz.state.PopConstruct()
	lz.emit(EndConstructOp{Kind: ConstructSelectRank, opBase: opBase{Location: loc}})
	lz.emit(LabelOp{Target: exitLabel, opBase: opBase{Location: loc}})
}

func (lz *Linearizer) walkSelectType(c *ast.SelectTypeConstruct) {
	loc := c.Loc()
	exitLabel := lz.newLabel()
	name := nameText(c.Name)

	lz.emit(BeginConstructOp{Kind: ConstructSelectType, Name: c.Name, Node: c, opBase: opBase{Location: loc}})
	lz.state.PushConstruct(ConstructFrame{Name: name, IsDo: false, Exit: exitLabel})

	armLabels := make([]fir.LLabel, len(c.Arms))
	var arms []SwitchArm
	defaultLabel := exitLabel
	sawDefault := false
	for i, arm := range c.Arms {
		armLabels[i] = lz.newLabel()
		if arm.Default {
			if sawDefault {
				panic(diag.NewStructuralError(nil, "SELECT TYPE has more than one CLASS DEFAULT arm"))
			}
			sawDefault = true
			defaultLabel = armLabels[i]
			continue
		}
		arms = append(arms, SwitchArm{Value: arm.TypeSpec, Label: armLabels[i]})
	}
	lz.emit(SwitchOp{Cond: c.Selector, Arms: arms, Default: defaultLabel, opBase: opBase{Location: loc}})

	for i, arm := range c.Arms {
		lz.emit(LabelOp{Target: armLabels[i], opBase: opBase{Location: loc}})
		lz.Walk(arm.Body)
		lz.emit(GotoOp{Target: exitLabel, opBase: opBase{Location: loc}})
	}

	lz.state.PopConstruct()
	lz.emit(EndConstructOp{Kind: ConstructSelectType, opBase: opBase{Location: loc}})
	lz.emit(LabelOp{Target: exitLabel, opBase: opBase{Location: loc}})
}

// --- small helpers ----------------------------------------------------------

func nameText(n *ast.Name) string {
	if n == nil {
		return ""
	}
	return n.Text
}

func designatorName(e ast.Expr) (string, bool) {
	if d, ok := e.(*ast.Designator); ok {
		return d.Text, true
	}
	return "", false
}

// caseValueString renders one SELECT CASE arm value per spec.md §4.4's
// closed CaseValue sum: an exact match, a closed range, or an open-ended
// bound above or below a single value. SwitchArm.Value stays a plain
// string — the Switch terminator this composes into never needed the
// range endpoints back, only the text a matcher compares against.
func caseValueString(v ast.CaseValue) string {
	switch cv := v.(type) {
	case ast.CaseExactly:
		return exprOrNone(cv.Value)
	case ast.CaseInclusiveRange:
		return exprOrNone(cv.Low) + ":" + exprOrNone(cv.High)
	case ast.CaseInclusiveAbove:
		return exprOrNone(cv.Low) + ":"
	case ast.CaseInclusiveBelow:
		return ":" + exprOrNone(cv.High)
	default:
		panic(diag.NewStructuralError(nil, "unhandled SELECT CASE value kind"))
	}
}

func exprOrNone(e ast.Expr) string {
	if e == nil {
		return ""
	}
	return e.String()
}

func indexValue(i int) string {
	digits := [...]string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}
	if i >= 0 && i < len(digits) {
		return digits[i]
	}
	// Fall back for larger indices (argument lists rarely exceed 9 alt-returns).
	out := ""
	n := i
	for n > 0 {
		out = digits[n%10] + out
		n /= 10
	}
	return out
}
