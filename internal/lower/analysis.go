package lower

import (
	"firlower/internal/ast"
	"firlower/internal/diag"
	"firlower/internal/fir"
)

// ConstructFrame is one entry of the construct-name stack the Linearizer
// threads through BeginConstructOp/EndConstructOp so that CYCLE/EXIT can
// resolve a (possibly absent) construct name to the right pair of labels,
// mirroring FindStack/NearestEnclosingDoConstruct.
type ConstructFrame struct {
	Name  string // "" for an unnamed construct
	IsDo  bool
	Cycle fir.LLabel // loop latch; fir.UnspecifiedLabel if not a loop
	Exit  fir.LLabel // landing pad after the construct
}

// AssignEntry records one ASSIGN-statement sighting: the integer variable
// it stores into, and the label it stored, so a later assigned GOTO on
// that variable knows every label the registry has to resolve against.
type AssignEntry struct {
	Var   string
	Label fir.LLabel
}

// DoBoundsInfo is recorded once per DO construct (counted, DO WHILE or DO
// CONCURRENT) by the Linearizer's walkDoConstruct, and consulted by
// BeginConstructOp/DoCompareOp/CondGotoOp for the rest of the loop's
// lowering, matching handleLinearDoIncrement/handleLinearDoCompare's
// shared per-loop state.
type DoBoundsInfo struct {
	Var              ast.Expr
	Start, End, Step ast.Expr
	Cond             ast.Expr // set instead of Start/End/Step for DO WHILE
	Concurrent       bool

	// Condition is filled in by the Block Builder's DoCompareOp handling
	// once the latch test is synthesized, and consulted by the CondGotoOp
	// that immediately follows it (CondGotoOp.DoLatch).
	Condition ast.Expr
}

// AnalysisState is the per-procedure mutable state the Linearizer
// accumulates while walking the parse tree once: the label registry,
// every ASSIGN sighting, the construct-name stack, and one DoBoundsInfo
// per DO construct walked. DoBoundsInfo entries stay in place for the
// whole procedure; closing a DO construct does not remove its entry.
type AnalysisState struct {
	Labels    *LabelRegistry
	Assigns   []AssignEntry
	stack     []ConstructFrame
	doBounds  map[fir.LLabel]*DoBoundsInfo
}

// NewAnalysisState returns empty per-procedure analysis state.
func NewAnalysisState() *AnalysisState {
	return &AnalysisState{
		Labels:   NewLabelRegistry(),
		doBounds: make(map[fir.LLabel]*DoBoundsInfo),
	}
}

// AddAssign records that an ASSIGN statement stored target into var.
func (a *AnalysisState) AddAssign(varName string, target fir.LLabel) {
	a.Assigns = append(a.Assigns, AssignEntry{Var: varName, Label: target})
}

// GetAssign returns every label ever ASSIGNed into var, the static
// candidate set for that variable's assigned GOTOs.
func (a *AnalysisState) GetAssign(varName string) []fir.LLabel {
	var out []fir.LLabel
	for _, e := range a.Assigns {
		if e.Var == varName {
			out = append(out, e.Label)
		}
	}
	return out
}

// PushConstruct opens a new construct-name stack frame.
func (a *AnalysisState) PushConstruct(frame ConstructFrame) {
	a.stack = append(a.stack, frame)
}

// PopConstruct closes the innermost construct-name stack frame.
func (a *AnalysisState) PopConstruct() {
	if len(a.stack) == 0 {
		return
	}
	a.stack = a.stack[:len(a.stack)-1]
}

// FindStack resolves a CYCLE or EXIT to the frame it targets: the nearest
// enclosing DO frame when name is "" (unnamed CYCLE and unnamed EXIT both
// search past non-loop frames for one — a bare EXIT inside a BLOCK inside
// a DO exits the DO, not the BLOCK), or the named frame otherwise. wantDo
// is true for CYCLE (which must land on a loop even when named) and false
// for EXIT (which may land on any named construct). Raises a
// StructuralError when no matching frame exists, or when a CYCLE names a
// non-loop construct.
func (a *AnalysisState) FindStack(name string, wantDo bool) ConstructFrame {
	if name == "" {
		for i := len(a.stack) - 1; i >= 0; i-- {
			if a.stack[i].IsDo {
				return a.stack[i]
			}
		}
		panic(diag.NewStructuralError(nil, "unnamed %s has no enclosing DO construct", cycleOrExit(wantDo)))
	}
	for i := len(a.stack) - 1; i >= 0; i-- {
		if a.stack[i].Name == name {
			if wantDo && !a.stack[i].IsDo {
				panic(diag.NewStructuralError(nil, "CYCLE %s does not name a DO construct", name))
			}
			return a.stack[i]
		}
	}
	panic(diag.NewStructuralError(nil, "construct name %q not found on the enclosing-construct stack", name))
}

func cycleOrExit(wantDo bool) string {
	if wantDo {
		return "CYCLE"
	}
	return "EXIT"
}

// SetDoBounds records loop bounds for a newly opened DO construct, keyed
// by its latch label so DoIncrementOp/DoCompareOp can find them again.
func (a *AnalysisState) SetDoBounds(latch fir.LLabel, info *DoBoundsInfo) {
	a.doBounds[latch] = info
}

// GetDoBounds returns the bounds recorded for latch, or nil.
func (a *AnalysisState) GetDoBounds(latch fir.LLabel) *DoBoundsInfo {
	return a.doBounds[latch]
}
