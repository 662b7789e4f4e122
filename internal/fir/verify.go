package fir

import "fmt"

// Verify walks every procedure in p and checks the two invariants the
// block graph itself can still attest to once lowering has finished:
// every block ends in exactly one terminator (P1), and predecessor/
// successor links agree in both directions (P2) — a terminator's
// successors list the block among their predecessors, and conversely
// every recorded predecessor's own terminator actually branches back to
// the block. P3 (total label resolution: no pending edges left, every
// LLabel the linearizer referenced resolves to a block) has no
// corresponding check here because the LLabel bookkeeping it talks about
// belongs to the Block Builder's own state, not to the Program/Region/
// BasicBlock graph Verify walks — by the time a *Program exists, P3 has
// already been enforced by construction: drawRemainingArcs's mustResolve
// panics the moment a referenced label never resolves.
func Verify(p *Program) error {
	for _, proc := range p.Procedures {
		if err := verifyRegion(proc.Root); err != nil {
			return fmt.Errorf("procedure %s: %w", proc.Name, err)
		}
	}
	return nil
}

func verifyRegion(r *Region) error {
	for _, block := range r.Blocks {
		if block.Term == nil {
			return fmt.Errorf("block L%d has no terminator", block.ID)
		}
		for _, succ := range block.Term.Successors() {
			if succ == nil {
				continue
			}
			if _, ok := succ.preds[block]; !ok {
				return fmt.Errorf("block L%d -> L%d missing predecessor link", block.ID, succ.ID)
			}
		}
		for pred := range block.preds {
			if !hasSuccessor(pred, block) {
				return fmt.Errorf("block L%d records L%d as a predecessor, but L%d's terminator does not branch to it", block.ID, pred.ID, pred.ID)
			}
		}
	}
	for _, nested := range r.Nested {
		if err := verifyRegion(nested); err != nil {
			return err
		}
	}
	return nil
}

func hasSuccessor(b, target *BasicBlock) bool {
	if b.Term == nil {
		return false
	}
	for _, succ := range b.Term.Successors() {
		if succ == target {
			return true
		}
	}
	return false
}
