package lower

import (
	"fmt"

	"firlower/internal/ast"
	"firlower/internal/diag"
	"firlower/internal/fir"
	"firlower/internal/firlog"
	"firlower/internal/source"
)

// labelAddr is the value ASSIGN stores: the address of a label's block,
// represented symbolically since this module never reaches code
// generation. Its String form is only ever seen in a debug dump.
type labelAddr struct {
	label fir.LLabel
}

func (l labelAddr) String() string { return fmt.Sprintf("&L%d", l.label) }

// doLatchCompare is the synthetic "has the induction variable crossed its
// bound" test spec.md §4.5's do_condition(step, cur, upper) describes,
// built for a counted DO's latch from its Start/End/Step. This module
// never evaluates expressions, so — like labelAddr above — the
// comparison itself stays symbolic; only its textual form is ever
// inspected, in a debug dump or a test assertion.
type doLatchCompare struct {
	Step, Cur, Upper ast.Expr
	Location         source.Location
}

func (d *doLatchCompare) String() string {
	return fmt.Sprintf("do_condition(%s, %s, %s)", exprText(d.Step), exprText(d.Cur), exprText(d.Upper))
}
func (d *doLatchCompare) Loc() source.Location { return d.Location }
func (d *doLatchCompare) TypedExpr() ast.Expr  { return d }

// doTrueLiteral is DO CONCURRENT's documented always-true placeholder
// latch condition (spec.md §9).
type doTrueLiteral struct {
	Location source.Location
}

func (doTrueLiteral) String() string            { return ".TRUE." }
func (d doTrueLiteral) Loc() source.Location     { return d.Location }
func (d doTrueLiteral) TypedExpr() ast.Expr      { return d }

func exprText(e ast.Expr) string {
	if e == nil {
		return "<none>"
	}
	return e.String()
}

// pendingEdge is one branch-like terminator the Block Builder could not
// resolve immediately because one or more of its target labels had no
// block yet. drawRemainingArcs runs every pendingEdge once the op stream
// is exhausted, by which point every label the procedure defines has a
// block in blockMap (or the structural error in mustResolve fires).
type pendingEdge func()

// BlockBuilder consumes one procedure's []LinearOp stream and builds its
// partial FIR, queuing a pendingEdge closure for every branch whose
// target label hasn't been seen yet. This is the second of the two
// lowering passes: it never looks at the parse tree directly, only at
// the flat op stream the Linearizer produced.
type BlockBuilder struct {
	state   *AnalysisState
	builder *fir.Builder
	proc    *fir.Procedure

	blockMap map[fir.LLabel]*fir.BasicBlock
	pending  []pendingEdge

	resolvedEdgeCount int

	// regionStack holds, for each currently-open region-entering construct
	// (spec.md §4.5: BLOCK, DO, ASSOCIATE, CHANGE TEAM, SELECT RANK, SELECT
	// TYPE), the region its EndConstructOp should restore builder.region
	// to.
	regionStack []*fir.Region
}

// NewBlockBuilder returns a builder that will add blocks to proc's root
// region, sharing state with the Linearizer that produced the op stream.
func NewBlockBuilder(state *AnalysisState, proc *fir.Procedure) *BlockBuilder {
	return &BlockBuilder{
		state:    state,
		builder:  fir.NewBuilder(proc.Root),
		proc:     proc,
		blockMap: make(map[fir.LLabel]*fir.BasicBlock),
	}
}

// PendingCount returns how many deferred edges the Edge Resolver had to
// discharge once the op stream was exhausted — the forward-reference
// count the driver logs for each procedure.
func (bb *BlockBuilder) PendingCount() int {
	return bb.resolvedEdgeCount
}

// BlockCount returns how many basic blocks have been materialized so far.
func (bb *BlockBuilder) BlockCount() int {
	var count func(r *fir.Region) int
	count = func(r *fir.Region) int {
		n := len(r.Blocks)
		for _, nested := range r.Nested {
			n += count(nested)
		}
		return n
	}
	return count(bb.proc.Root)
}

// Run lowers ops into proc's region, opening an entry block first, and
// then discharges every deferred edge (the Edge Resolver phase).
func (bb *BlockBuilder) Run(ops []LinearOp) {
	entry := bb.builder.CreateBlock()
	bb.builder.SetInsertionPoint(entry)

	for i := 0; i < len(ops); i++ {
		op := ops[i]

		if begin, ok := op.(BeginConstructOp); ok && entersRegion(begin.Kind) {
			// spec.md §4.5: fuse the entry block with the label the very
			// next op would otherwise open a second, redundant block for —
			// unless some earlier forward reference already created a
			// block for that label, in which case fusing would orphan it.
			if next, ok := peekLabel(ops, i+1); ok {
				if _, exists := bb.blockMap[next]; !exists {
					bb.enterRegion(begin, next)
					i++
					continue
				}
			}
			bb.enterRegion(begin, fir.UnspecifiedLabel)
			continue
		}
		if end, ok := op.(EndConstructOp); ok && entersRegion(end.Kind) {
			bb.exitRegion(end.Kind)
			continue
		}
		bb.step(op)
	}
	bb.drawRemainingArcs()
}

func peekLabel(ops []LinearOp, i int) (fir.LLabel, bool) {
	if i >= len(ops) {
		return fir.UnspecifiedLabel, false
	}
	label, ok := ops[i].(LabelOp)
	if !ok {
		return fir.UnspecifiedLabel, false
	}
	return label.Target, true
}

// entersRegion reports whether kind is one of the six construct kinds
// spec.md §4.5 says open a new lexical region. Every other construct
// folds its body straight into the enclosing region (see
// walkPassThrough's WHERE/FORALL/CRITICAL/OpenMP and SELECT CASE's own
// flat SwitchOp).
func entersRegion(kind ConstructKind) bool {
	switch kind {
	case ConstructBlock, ConstructDo, ConstructAssociate, ConstructChangeTeam, ConstructSelectRank, ConstructSelectType:
		return true
	default:
		return false
	}
}

// enterRegion implements spec.md §4.5's region-entry mechanics: create a
// child region, create a block in it, branch the cursor into it if one
// is still open, and move the cursor (and the builder's working region)
// onto it. fused, when not fir.UnspecifiedLabel, is the label the next
// LinearOp would have opened anyway; it is installed directly onto the
// freshly created entry block instead of getting a block of its own.
func (bb *BlockBuilder) enterRegion(begin BeginConstructOp, fused fir.LLabel) {
	firlog.Debug("entering construct", "kind", begin.Kind, "name", nameText(begin.Name), "opens_region", true)

	parent := bb.builder.Region()
	nested := parent.NewNestedRegion()
	entry := bb.builder.CreateBlockIn(nested)

	if cur := bb.builder.GetInsertionPoint(); cur != nil && !cur.HasTerminator() {
		bb.builder.CreateBranch(entry, begin.Location)
	}

	bb.regionStack = append(bb.regionStack, parent)
	bb.builder.SetRegion(nested)
	bb.builder.SetInsertionPoint(entry)

	if fused != fir.UnspecifiedLabel {
		bb.blockMap[fused] = entry
	}

	if begin.Kind == ConstructDo {
		bb.initializeDoInductionVariable(begin.Latch, begin.Location)
	}
}

// exitRegion restores the builder's working region to whatever enterRegion
// pushed for the matching BeginConstructOp. It never touches the cursor —
// the op stream's own Goto/Label ops are what leave the cursor wherever
// the construct's exit label belongs.
func (bb *BlockBuilder) exitRegion(kind ConstructKind) {
	n := len(bb.regionStack)
	if n == 0 {
		panic(diag.NewStructuralError(nil, "EndConstructOp with no matching region-entering BeginConstructOp"))
	}
	parent := bb.regionStack[n-1]
	bb.regionStack = bb.regionStack[:n-1]
	bb.builder.SetRegion(parent)
	firlog.Debug("leaving construct", "kind", kind)
}

// initializeDoInductionVariable implements spec.md §4.5's "allocates the
// induction variable, initializes do_var=lower" for a counted DO. DO
// WHILE and DO CONCURRENT have no induction variable of their own to
// allocate here.
func (bb *BlockBuilder) initializeDoInductionVariable(latch fir.LLabel, loc source.Location) {
	bounds := bb.state.GetDoBounds(latch)
	if bounds == nil {
		panic(diag.NewStructuralError(&loc, "DO latch label %d has no recorded bounds", latch))
	}
	if bounds.Concurrent || bounds.Cond != nil {
		return
	}
	bb.builder.CreateAlloc(bounds.Var, loc)
	bb.builder.CreateAddr(bounds.Var, loc)
	bb.builder.CreateStore(bounds.Var, bounds.Start, loc)
}

// computeDoCondition builds the expression a DO's latch CondGoto branches
// on: a DO WHILE's own expression unchanged, an always-true placeholder
// for DO CONCURRENT (spec.md §9), or — spec.md §4.5's
// do_condition(step, cur, upper) — a synthetic comparison of the
// induction variable against its upper bound for a counted DO.
func (bb *BlockBuilder) computeDoCondition(bounds *DoBoundsInfo, loc source.Location) ast.Expr {
	switch {
	case bounds.Concurrent:
		return doTrueLiteral{Location: loc}
	case bounds.Cond != nil:
		return bounds.Cond
	default:
		return &doLatchCompare{Step: bounds.Step, Cur: bounds.Var, Upper: bounds.End, Location: loc}
	}
}

func (bb *BlockBuilder) step(op LinearOp) {
	switch o := op.(type) {
	case LabelOp:
		bb.handleLabel(o)
	case GotoOp:
		bb.addOrQueueBranch(o.Target, o.Location)
	case IndirectGotoOp:
		bb.addOrQueueIndirectBranch(o.Address, o.Candidates, o.Location)
	case ReturnOp:
		bb.handleReturn(o)
	case CondGotoOp:
		cond := o.Cond
		if o.DoLatch != fir.UnspecifiedLabel {
			bounds := bb.state.GetDoBounds(o.DoLatch)
			if bounds == nil {
				panic(diag.NewStructuralError(&o.Location, "DO latch label %d has no recorded bounds", o.DoLatch))
			}
			cond = bounds.Condition
		}
		bb.addOrQueueCondBranch(cond, o.TrueLabel, o.FalseLabel, o.Location)
	case SwitchOp:
		bb.addOrQueueSwitch(o.Cond, o.Arms, o.Default, o.Location)
	case ActionOp:
		bb.handleAction(o)
	case AssignLabelOp:
		if bb.builder.GetInsertionPoint() != nil {
			bb.builder.CreateAddr(o.Var, o.Location)
			bb.builder.CreateStore(o.Var, labelAddr{label: o.Target}, o.Location)
		}
	case DoIncrementOp:
		bb.builder.CreateIncrement(o.Var, o.Step, o.Location)
	case DoCompareOp:
		bounds := bb.state.GetDoBounds(o.Latch)
		if bounds == nil {
			panic(diag.NewStructuralError(&o.Location, "DO latch label %d has no recorded bounds", o.Latch))
		}
		bounds.Condition = bb.computeDoCondition(bounds, o.Location)
		bb.builder.CreateDoCondition(bounds.Condition, o.Location)
	case BeginConstructOp:
		if o.Kind == ConstructOpenMP {
			firlog.Warn("unhandled construct variant passed through unchanged", "kind", o.Kind, "name", nameText(o.Name))
		} else {
			firlog.Debug("entering construct", "kind", o.Kind, "name", nameText(o.Name))
		}
	case EndConstructOp:
		// Only constructs that fold their body directly into the
		// enclosing region reach here (Run intercepts the region-entering
		// kinds, see entersRegion); there is no per-construct cleanup
		// left once the body below it has been linearized.
	default:
		panic(diag.NewStructuralError(nil, "unhandled linear op in block builder"))
	}
}

// handleReturn implements spec.md §4.5's Return{kind} dispatch: only a
// plain ReturnStmt lowers to a real Return terminator. STOP and FAIL
// IMAGE both end the procedure through the runtime instead, so they
// lower to a RuntimeCall followed by an Unreachable terminator.
func (bb *BlockBuilder) handleReturn(o ReturnOp) {
	if bb.builder.GetInsertionPoint() == nil {
		return
	}
	switch o.Kind {
	case fir.NormalReturn:
		bb.builder.CreateReturn(o.Kind, o.Code, o.Location)
	case fir.StopReturn:
		bb.builder.CreateRuntimeCall("Stop", runtimeCallArgs(o.Code), o.Location)
		bb.builder.CreateUnreachable(o.Location)
	case fir.FailImageReturn:
		bb.builder.CreateRuntimeCall("FailImage", nil, o.Location)
		bb.builder.CreateUnreachable(o.Location)
	default:
		panic(diag.NewStructuralError(&o.Location, "unhandled return kind"))
	}
}

// runtimeCallArgs wraps an optional scalar operand (STOP's code, say) into
// the slice CreateRuntimeCall takes; nil stays nil rather than []fir.Expr{nil}.
func runtimeCallArgs(e ast.Expr) []fir.Expr {
	if e == nil {
		return nil
	}
	return []fir.Expr{e}
}

// firExprs adapts a []ast.Expr to []fir.Expr; ast.Expr values satisfy the
// fir.Expr interface, but Go requires an explicit element-wise conversion.
func firExprs(exprs []ast.Expr) []fir.Expr {
	if exprs == nil {
		return nil
	}
	out := make([]fir.Expr, len(exprs))
	for i, e := range exprs {
		out[i] = e
	}
	return out
}

func (bb *BlockBuilder) handleAction(o ActionOp) {
	if bb.builder.GetInsertionPoint() == nil {
		return
	}
	switch o.Kind {
	case ActionAssign:
		st := o.Stmt.(*ast.AssignStmt)
		bb.builder.CreateAddr(st.LHS, o.Location)
		bb.builder.CreateStore(st.LHS, st.RHS, o.Location)
	case ActionPointerAssign:
		st := o.Stmt.(*ast.PointerAssignStmt)
		bb.builder.CreateStore(st.LHS, st.RHS, o.Location)
	case ActionCall:
		st := o.Stmt.(*ast.CallStmt)
		bb.builder.CreateCall(st.Proc, firExprs(st.Args), o.Location)
	case ActionIO:
		st := o.Stmt.(*ast.IOStmt)
		bb.builder.CreateIOCall(st.Verb, firExprs(st.Args), o.Location)
	case ActionNullify:
		st := o.Stmt.(*ast.NullifyStmt)
		for _, p := range st.Pointers {
			bb.builder.CreateNullify(p, o.Location)
		}
	case ActionAllocate:
		st := o.Stmt.(*ast.AllocateStmt)
		for _, obj := range st.Objects {
			bb.builder.CreateAlloc(obj, o.Location)
		}
	case ActionDeallocate:
		st := o.Stmt.(*ast.DeallocateStmt)
		for _, obj := range st.Objects {
			bb.builder.CreateDealloc(obj, o.Location)
		}
	case ActionCompilerDirective:
		st := o.Stmt.(*ast.CompilerDirectiveStmt)
		firlog.Warn("unhandled construct variant passed through unchanged", "directive", st.Text)
		bb.builder.CreateRuntimeCall("directive:"+st.Text, nil, o.Location)
	case ActionStop:
		st := o.Stmt.(*ast.StopStmt)
		bb.builder.CreateRuntimeCall("Stop", runtimeCallArgs(st.Code), o.Location)
	default:
		panic(diag.NewStructuralError(&o.Location, "unhandled action op kind"))
	}
}

// handleLabel opens (or reopens) the block a label refers to. If the
// cursor is already open on an unterminated block other than the
// target itself, a fallthrough Branch closes it first — a label always
// starts a fresh block.
func (bb *BlockBuilder) handleLabel(o LabelOp) {
	block := bb.getOrCreateBlock(o.Target)
	if cur := bb.builder.GetInsertionPoint(); cur != nil && !cur.HasTerminator() && cur != block {
		bb.builder.CreateBranch(block, o.Location)
	}
	bb.builder.SetInsertionPoint(block)
}

func (bb *BlockBuilder) getOrCreateBlock(label fir.LLabel) *fir.BasicBlock {
	if b, ok := bb.blockMap[label]; ok {
		return b
	}
	b := bb.builder.CreateBlock()
	bb.blockMap[label] = b
	return b
}

func (bb *BlockBuilder) resolved(label fir.LLabel) (*fir.BasicBlock, bool) {
	b, ok := bb.blockMap[label]
	return b, ok
}

// mustResolve looks a label up once every LinearOp has been processed;
// an unresolved label at this point means the Linearizer referenced a
// label with no matching LabelOp anywhere in the stream, which can only
// be a structural defect in the source program (e.g. GOTO to a label
// that was never declared).
func (bb *BlockBuilder) mustResolve(label fir.LLabel) *fir.BasicBlock {
	b, ok := bb.blockMap[label]
	if !ok {
		panic(diag.NewStructuralError(nil, "branch target label %d was never defined", label))
	}
	return b
}

// addOrQueueBranch mirrors AddOrQueueBranch: an unconditional jump
// resolves immediately against an already-known label, and is deferred
// to drawRemainingArcs otherwise — the mechanism that lets a forward
// GOTO work without a second topology pass over the block graph.
func (bb *BlockBuilder) addOrQueueBranch(target fir.LLabel, loc source.Location) {
	from := bb.builder.GetInsertionPoint()
	if from == nil {
		return
	}
	bb.builder.ClearInsertionPoint()
	if block, ok := bb.resolved(target); ok {
		from.SetTerminator(&fir.Branch{Target: block, Location: loc})
		return
	}
	bb.pending = append(bb.pending, func() {
		from.SetTerminator(&fir.Branch{Target: bb.mustResolve(target), Location: loc})
	})
}

func (bb *BlockBuilder) addOrQueueCondBranch(cond ast.Expr, thenLabel, elseLabel fir.LLabel, loc source.Location) {
	from := bb.builder.GetInsertionPoint()
	if from == nil {
		return
	}
	bb.builder.ClearInsertionPoint()

	thenBlock, thenOK := bb.resolved(thenLabel)
	elseBlock, elseOK := bb.resolved(elseLabel)
	if thenOK && elseOK {
		from.SetTerminator(&fir.ConditionalBranch{Cond: cond, Then: thenBlock, Else: elseBlock, Location: loc})
		return
	}
	bb.pending = append(bb.pending, func() {
		from.SetTerminator(&fir.ConditionalBranch{
			Cond: cond, Then: bb.mustResolve(thenLabel), Else: bb.mustResolve(elseLabel), Location: loc,
		})
	})
}

func (bb *BlockBuilder) addOrQueueSwitch(cond ast.Expr, arms []SwitchArm, def fir.LLabel, loc source.Location) {
	from := bb.builder.GetInsertionPoint()
	if from == nil {
		return
	}
	bb.builder.ClearInsertionPoint()

	resolve := func() {
		cases := make([]fir.SwitchCase, len(arms))
		for i, a := range arms {
			cases[i] = fir.SwitchCase{Value: a.Value, Target: bb.mustResolve(a.Label)}
		}
		from.SetTerminator(&fir.Switch{Cond: cond, Cases: cases, Default: bb.mustResolve(def), Location: loc})
	}

	if bb.allKnown(def, arms) {
		resolve()
		return
	}
	bb.pending = append(bb.pending, resolve)
}

func (bb *BlockBuilder) allKnown(def fir.LLabel, arms []SwitchArm) bool {
	if _, ok := bb.resolved(def); !ok {
		return false
	}
	for _, a := range arms {
		if _, ok := bb.resolved(a.Label); !ok {
			return false
		}
	}
	return true
}

func (bb *BlockBuilder) addOrQueueIndirectBranch(addr ast.Expr, candidates []fir.LLabel, loc source.Location) {
	from := bb.builder.GetInsertionPoint()
	if from == nil {
		return
	}
	bb.builder.ClearInsertionPoint()

	resolve := func() {
		blocks := make([]*fir.BasicBlock, len(candidates))
		for i, l := range candidates {
			blocks[i] = bb.mustResolve(l)
		}
		from.SetTerminator(&fir.IndirectBranch{Address: addr, Candidates: blocks, Location: loc})
	}

	known := true
	for _, l := range candidates {
		if _, ok := bb.resolved(l); !ok {
			known = false
			break
		}
	}
	if known {
		resolve()
		return
	}
	bb.pending = append(bb.pending, resolve)
}

// drawRemainingArcs is the Edge Resolver: every label any op referenced
// has a block by now, since the Linearizer emits exactly one LabelOp per
// fir.LLabel it ever hands out. Anything still unresolved here is a
// genuine structural defect, surfaced through mustResolve's panic.
func (bb *BlockBuilder) drawRemainingArcs() {
	bb.resolvedEdgeCount = len(bb.pending)
	for _, fn := range bb.pending {
		fn()
	}
	bb.pending = nil
}
