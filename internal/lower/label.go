package lower

import "firlower/internal/fir"

// LabelRegistry maps the textual statement labels a procedure's source
// spells ("10", "0099", ...) to the synthetic fir.LLabel values the
// Linearizer and Block Builder pass around internally. It is the single
// source of truth FetchLabel and BuildNewLabel draw from, grounded on
// AnalysisData's label bookkeeping.
type LabelRegistry struct {
	byText map[string]fir.LLabel
	next   fir.LLabel
}

// NewLabelRegistry returns an empty registry for one procedure.
func NewLabelRegistry() *LabelRegistry {
	return &LabelRegistry{byText: make(map[string]fir.LLabel), next: fir.UnspecifiedLabel + 1}
}

// FetchLabel returns the LLabel for a source-spelled label, allocating one
// on first use. Forward references (GOTO to a label not yet seen in the
// textual walk) and backward references both go through this single path,
// which is exactly why the Block Builder needs pending edges: the label's
// LLabel can exist long before its defining Label statement is linearized.
func (r *LabelRegistry) FetchLabel(text string) fir.LLabel {
	if l, ok := r.byText[text]; ok {
		return l
	}
	l := r.BuildNewLabel()
	r.byText[text] = l
	return l
}

// BuildNewLabel allocates a synthetic LLabel with no source spelling, used
// for compiler-generated targets (computed-GOTO/IO-switch fallthrough,
// loop latch blocks, END IF/END DO landing pads).
func (r *LabelRegistry) BuildNewLabel() fir.LLabel {
	l := r.next
	r.next++
	return l
}
