package lower

import (
	"firlower/internal/ast"
	"firlower/internal/fir"
	"firlower/internal/source"
)

// LinearOp is one entry in the flat op stream the Linearizer produces by
// walking the parse tree once. The Block Builder consumes this stream in
// order, never looking back at the parse tree itself — exactly the two
// phase split between the Linearizer and the Block Builder.
type LinearOp interface {
	linearOp()
	Loc() source.Location
}

type opBase struct {
	Location source.Location
}

func (opBase) linearOp()                {}
func (o opBase) Loc() source.Location    { return o.Location }

// LabelOp marks the position a symbolic label refers to; the Block
// Builder opens a new block here (CreateBlock) whenever the label has any
// known or potential reference.
type LabelOp struct {
	opBase
	Target fir.LLabel
}

// GotoOp is an unconditional jump to Target.
type GotoOp struct {
	opBase
	Target fir.LLabel
}

// IndirectGotoOp is an assigned GOTO: the jump address is a run-time
// value, but Candidates lists every label the source named as a possible
// target.
type IndirectGotoOp struct {
	opBase
	Address    ast.Expr
	Candidates []fir.LLabel
}

// ReturnOp ends the procedure's flow (RETURN, STOP, FAIL IMAGE).
type ReturnOp struct {
	opBase
	Kind fir.ReturnKind
	Code ast.Expr
}

// CondGotoOp is a two-way branch: TrueLabel if Cond holds, FalseLabel
// otherwise. It backs IF/ELSE IF and every DO loop's latch test. A DO
// loop's own latch sets DoLatch instead of Cond, since the latch
// condition a counted DO branches on does not exist until the Block
// Builder's DoCompareOp handling synthesizes it from the loop's bounds;
// DoLatch is fir.UnspecifiedLabel for every other use of this op.
type CondGotoOp struct {
	opBase
	Cond       ast.Expr
	TrueLabel  fir.LLabel
	FalseLabel fir.LLabel
	DoLatch    fir.LLabel
}

// SwitchArm pairs a matched value with the label to jump to.
type SwitchArm struct {
	Value string
	Label fir.LLabel
}

// SwitchOp is the general n-way branch: computed GOTO, arithmetic IF,
// SELECT CASE/RANK/TYPE, and I/O escape-specifier dispatch all compile
// down to this one op, differing only in how the Linearizer built Arms.
type SwitchOp struct {
	opBase
	Cond    ast.Expr
	Arms    []SwitchArm
	Default fir.LLabel
}

// ActionKind distinguishes the action statements that carry no branch of
// their own and are simply handed to the IR Builder verbatim.
type ActionKind int

const (
	ActionAssign ActionKind = iota
	ActionPointerAssign
	ActionCall
	ActionIO
	ActionNullify
	ActionAllocate
	ActionDeallocate
	ActionCompilerDirective
	// ActionStop is STOP's own runtime-family Action, emitted alongside
	// its ReturnOp per spec.md §4.3 ("STOP also emits the action").
	ActionStop
)

// ActionOp wraps one non-branching action statement.
type ActionOp struct {
	opBase
	Kind ActionKind
	Stmt ast.Stmt
}

// AssignLabelOp is the legacy ASSIGN statement's block-address store: it
// has its own op rather than folding into ActionOp because the label it
// stores is resolved into a fir.LLabel at linearization time, before the
// Block Builder has any block to point it at.
type AssignLabelOp struct {
	opBase
	Var    ast.Expr
	Target fir.LLabel
}

// DoIncrementOp advances a counted DO's control variable.
type DoIncrementOp struct {
	opBase
	Var, Step ast.Expr
}

// DoCompareOp evaluates a DO loop's latch condition, identified by the
// loop's latch label so the Block Builder can find the DoBoundsInfo
// SetDoBounds recorded for it and, for a counted loop, synthesize the
// bound comparison from Start/End/Step.
type DoCompareOp struct {
	opBase
	Latch fir.LLabel
}

// ConstructKind distinguishes the block constructs BeginConstructOp can
// open.
type ConstructKind int

const (
	ConstructIfThen ConstructKind = iota
	ConstructDo
	ConstructSelectCase
	ConstructSelectRank
	ConstructSelectType
	ConstructWhere
	ConstructForall
	ConstructBlock
	ConstructAssociate
	ConstructChangeTeam
	ConstructCritical
	ConstructOpenMP
)

// BeginConstructOp marks where InitiateConstruct's equivalent setup runs:
// pushing loop/construct-name stack entries, evaluating a SELECT/IF/WHERE
// selector expression eagerly, computing a DO loop's bounds once. Latch
// is set for ConstructDo only — the loop's backedge label, which the
// Block Builder uses to look up the DoBoundsInfo SetDoBounds recorded and
// materialize the induction variable's init.
type BeginConstructOp struct {
	opBase
	Kind  ConstructKind
	Name  *ast.Name
	Node  ast.Node
	Latch fir.LLabel
}

// EndConstructOp marks the construct's close, popping whatever
// BeginConstructOp pushed.
type EndConstructOp struct {
	opBase
	Kind ConstructKind
}
