package fir

import "firlower/internal/source"

// Builder is the cursor-based IR construction API: a single "current
// insertion point" that Insert/InsertTerminator append to, mirroring
// FIRBuilder from the lowering library this package's structure is
// modeled on. The Linearizer and Block Builder are the only callers; it
// has no knowledge of labels, pending edges or the parse tree.
type Builder struct {
	region  *Region
	current *BasicBlock
}

// NewBuilder returns a builder with no insertion point set, anchored to
// root for CreateBlock.
func NewBuilder(root *Region) *Builder {
	return &Builder{region: root}
}

// SetInsertionPoint redirects subsequent Insert/InsertTerminator calls to
// block. A nil block closes the insertion point (ClearInsertionPoint).
func (b *Builder) SetInsertionPoint(block *BasicBlock) {
	b.current = block
}

// ClearInsertionPoint detaches the cursor. Nothing can be inserted until
// SetInsertionPoint is called again.
func (b *Builder) ClearInsertionPoint() {
	b.current = nil
}

// GetInsertionPoint returns the block Insert would append to, or nil.
func (b *Builder) GetInsertionPoint() *BasicBlock {
	return b.current
}

// CreateBlock allocates a new block in the builder's region without
// moving the cursor onto it.
func (b *Builder) CreateBlock() *BasicBlock {
	return b.region.NewBlock()
}

// CreateBlockIn allocates a new block inside a specific region — used when
// a construct (BLOCK, DO, ASSOCIATE, ...) opens a nested scope.
func (b *Builder) CreateBlockIn(region *Region) *BasicBlock {
	return region.NewBlock()
}

// SetRegion redirects CreateBlock to a different region, used when
// entering or leaving a nested construct scope.
func (b *Builder) SetRegion(region *Region) {
	b.region = region
}

// Region returns the region CreateBlock currently targets.
func (b *Builder) Region() *Region {
	return b.region
}

// Insert appends a non-terminator statement at the cursor. It is a no-op
// if there is no insertion point or the current block is already closed
// by a terminator — the same "ensure cursor open" guard the lowering
// library applies before every emission.
func (b *Builder) Insert(s Stmt) {
	if b.current == nil || b.current.HasTerminator() {
		return
	}
	b.current.Append(s)
}

// InsertTerminator closes the current block with term and clears the
// cursor, since nothing may follow a terminator in the same block. A
// second terminator on an already-closed block is silently dropped,
// matching CheckInsertionPoint's "insertion point already closed" guard.
func (b *Builder) InsertTerminator(term Terminator) {
	if b.current == nil || b.current.HasTerminator() {
		return
	}
	b.current.SetTerminator(term)
	b.current = nil
}

// CreateBranch emits an unconditional Branch at the cursor.
func (b *Builder) CreateBranch(target *BasicBlock, loc source.Location) {
	b.InsertTerminator(&Branch{Target: target, Location: loc})
}

// CreateConditionalBranch emits a ConditionalBranch at the cursor.
func (b *Builder) CreateConditionalBranch(cond Expr, then, els *BasicBlock, loc source.Location) {
	b.InsertTerminator(&ConditionalBranch{Cond: cond, Then: then, Else: els, Location: loc})
}

// CreateSwitch emits a Switch at the cursor.
func (b *Builder) CreateSwitch(cond Expr, cases []SwitchCase, def *BasicBlock, loc source.Location) {
	b.InsertTerminator(&Switch{Cond: cond, Cases: cases, Default: def, Location: loc})
}

// CreateIndirectBranch emits an IndirectBranch at the cursor.
func (b *Builder) CreateIndirectBranch(addr Expr, candidates []*BasicBlock, loc source.Location) {
	b.InsertTerminator(&IndirectBranch{Address: addr, Candidates: candidates, Location: loc})
}

// CreateReturn emits a Return at the cursor.
func (b *Builder) CreateReturn(kind ReturnKind, code Expr, loc source.Location) {
	b.InsertTerminator(&Return{Kind: kind, Code: code, Location: loc})
}

// CreateUnreachable marks the current block as unreachable.
func (b *Builder) CreateUnreachable(loc source.Location) {
	b.InsertTerminator(&Unreachable{Location: loc})
}

// CreateAlloc emits an Alloc at the cursor.
func (b *Builder) CreateAlloc(object Expr, loc source.Location) {
	b.Insert(&Alloc{Object: object, Location: loc})
}

// CreateDealloc emits a Dealloc at the cursor.
func (b *Builder) CreateDealloc(object Expr, loc source.Location) {
	b.Insert(&Dealloc{Object: object, Location: loc})
}

// CreateCall emits a Call at the cursor.
func (b *Builder) CreateCall(proc Expr, args []Expr, loc source.Location) {
	b.Insert(&Call{Proc: proc, Args: args, Location: loc})
}

// CreateExpr emits an Eval at the cursor.
func (b *Builder) CreateExpr(value Expr, loc source.Location) {
	b.Insert(&Eval{Value: value, Location: loc})
}

// CreateAddr emits an Addr at the cursor.
func (b *Builder) CreateAddr(designator Expr, loc source.Location) {
	b.Insert(&Addr{Designator: designator, Location: loc})
}

// CreateLoad emits a Load at the cursor.
func (b *Builder) CreateLoad(addr Expr, loc source.Location) {
	b.Insert(&Load{Addr: addr, Location: loc})
}

// CreateStore emits a Store at the cursor.
func (b *Builder) CreateStore(addr, value Expr, loc source.Location) {
	b.Insert(&Store{Addr: addr, Value: value, Location: loc})
}

// CreateIncrement emits an Increment at the cursor.
func (b *Builder) CreateIncrement(variable, step Expr, loc source.Location) {
	b.Insert(&Increment{Variable: variable, Step: step, Location: loc})
}

// CreateDoCondition emits a DoCondition at the cursor.
func (b *Builder) CreateDoCondition(result Expr, loc source.Location) {
	b.Insert(&DoCondition{Result: result, Location: loc})
}

// CreateIOCall emits an IOCall at the cursor.
func (b *Builder) CreateIOCall(verb string, args []Expr, loc source.Location) {
	b.Insert(&IOCall{Verb: verb, Args: args, Location: loc})
}

// CreateRuntimeCall emits a RuntimeCall at the cursor.
func (b *Builder) CreateRuntimeCall(name string, args []Expr, loc source.Location) {
	b.Insert(&RuntimeCall{Name: name, Args: args, Location: loc})
}

// CreateNullify emits a Nullify at the cursor.
func (b *Builder) CreateNullify(pointer Expr, loc source.Location) {
	b.Insert(&Nullify{Pointer: pointer, Location: loc})
}
