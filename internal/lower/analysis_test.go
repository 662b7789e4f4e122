package lower

import (
	"testing"

	"firlower/internal/diag"
	"firlower/internal/fir"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignTracksEveryLabelSeen(t *testing.T) {
	a := NewAnalysisState()
	l10 := a.Labels.FetchLabel("10")
	l20 := a.Labels.FetchLabel("20")

	a.AddAssign("I", l10)
	a.AddAssign("I", l20)
	a.AddAssign("J", l10)

	assert.ElementsMatch(t, []fir.LLabel{l10, l20}, a.GetAssign("I"))
	assert.ElementsMatch(t, []fir.LLabel{l10}, a.GetAssign("J"))
	assert.Empty(t, a.GetAssign("K"))
}

func TestFindStackResolvesNearestUnnamedLoop(t *testing.T) {
	a := NewAnalysisState()
	a.PushConstruct(ConstructFrame{Name: "outer", IsDo: true, Cycle: 1, Exit: 2})
	a.PushConstruct(ConstructFrame{Name: "inner", IsDo: true, Cycle: 3, Exit: 4})

	frame := a.FindStack("", true)
	assert.Equal(t, "inner", frame.Name)
}

func TestFindStackResolvesNamedConstructAcrossIntermediateFrames(t *testing.T) {
	a := NewAnalysisState()
	a.PushConstruct(ConstructFrame{Name: "outer", IsDo: true, Cycle: 1, Exit: 2})
	a.PushConstruct(ConstructFrame{Name: "", IsDo: false, Exit: 5})

	frame := a.FindStack("outer", false)
	assert.Equal(t, fir.LLabel(2), frame.Exit)
}

func TestFindStackUnnamedExitSkipsNonLoopFramesToTheEnclosingDo(t *testing.T) {
	a := NewAnalysisState()
	a.PushConstruct(ConstructFrame{Name: "outer", IsDo: true, Cycle: 1, Exit: 2})
	a.PushConstruct(ConstructFrame{Name: "", IsDo: false, Exit: 9})

	frame := a.FindStack("", false)
	assert.Equal(t, "outer", frame.Name, "unnamed EXIT must skip the BLOCK frame and land on the enclosing DO")
	assert.Equal(t, fir.LLabel(2), frame.Exit)
}

func TestCycleRejectsNonLoopConstruct(t *testing.T) {
	a := NewAnalysisState()
	a.PushConstruct(ConstructFrame{Name: "blk", IsDo: false, Exit: 9})

	require.Panics(t, func() {
		a.FindStack("blk", true)
	})
}

func TestExitAcceptsNonLoopConstruct(t *testing.T) {
	a := NewAnalysisState()
	a.PushConstruct(ConstructFrame{Name: "blk", IsDo: false, Exit: 9})

	assert.NotPanics(t, func() {
		frame := a.FindStack("blk", false)
		assert.Equal(t, fir.LLabel(9), frame.Exit)
	})
}

func TestFindStackPanicsAsStructuralError(t *testing.T) {
	a := NewAnalysisState()

	defer func() {
		r := recover()
		require.NotNil(t, r)
		_, ok := r.(*diag.StructuralError)
		assert.True(t, ok, "FindStack must panic with a *diag.StructuralError")
	}()
	a.FindStack("missing", false)
}
