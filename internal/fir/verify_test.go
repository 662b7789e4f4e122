package fir

import (
	"testing"

	"firlower/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyCatchesMissingTerminator(t *testing.T) {
	p := NewProgram()
	proc := NewProcedure("NOTERM", SubroutineSubprogram, source.Location{})
	proc.Root.NewBlock()
	require.True(t, p.AddProcedure(proc))

	err := Verify(p)
	assert.Error(t, err)
}

func TestVerifyAcceptsLinearFlow(t *testing.T) {
	p := NewProgram()
	proc := NewProcedure("LINEAR", SubroutineSubprogram, source.Location{})

	entry := proc.Root.NewBlock()
	exit := proc.Root.NewBlock()
	entry.SetTerminator(&Branch{Target: exit})
	exit.SetTerminator(&Return{Kind: NormalReturn})

	require.True(t, p.AddProcedure(proc))
	assert.NoError(t, Verify(p))

	preds := exit.Predecessors()
	require.Len(t, preds, 1)
	assert.Equal(t, entry, preds[0])
}

func TestVerifyAcceptsConditionalBranchWithBothPredecessorLinks(t *testing.T) {
	p := NewProgram()
	proc := NewProcedure("BRANCHY", SubroutineSubprogram, source.Location{})

	entry := proc.Root.NewBlock()
	a := proc.Root.NewBlock()
	b := proc.Root.NewBlock()
	entry.SetTerminator(&ConditionalBranch{Cond: nil, Then: a, Else: b})
	a.SetTerminator(&Return{Kind: NormalReturn})
	b.SetTerminator(&Return{Kind: NormalReturn})

	require.True(t, p.AddProcedure(proc))
	require.NoError(t, Verify(p))

	assert.Contains(t, entry.Term.Successors(), a)
	assert.Contains(t, entry.Term.Successors(), b)
}

func TestVerifyDetectsPredecessorWithNoMatchingSuccessorLink(t *testing.T) {
	p := NewProgram()
	proc := NewProcedure("STALEPRED", SubroutineSubprogram, source.Location{})

	entry := proc.Root.NewBlock()
	other := proc.Root.NewBlock()
	entry.SetTerminator(&Return{Kind: NormalReturn})
	other.SetTerminator(&Return{Kind: NormalReturn})

	// Forge a predecessor link entry never records through SetTerminator:
	// other claims entry branches to it, but entry's own terminator (a
	// Return) has no successors at all.
	entry.addPred(other)

	require.True(t, p.AddProcedure(proc))
	assert.Error(t, Verify(p), "a predecessor whose terminator never actually branches to the block must be caught")
}
