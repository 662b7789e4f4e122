package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelRegistryFetchIsStable(t *testing.T) {
	r := NewLabelRegistry()

	a := r.FetchLabel("10")
	b := r.FetchLabel("0010")
	c := r.FetchLabel("10")

	assert.NotEqual(t, a, b, "distinct source spellings must not collapse to the same label")
	assert.Equal(t, a, c, "the same spelling must always resolve to the same label")
}

func TestLabelRegistryBuildNewLabelIsUnique(t *testing.T) {
	r := NewLabelRegistry()

	seen := map[uint32]bool{}
	for i := 0; i < 10; i++ {
		l := r.BuildNewLabel()
		assert.False(t, seen[uint32(l)], "generated label must be unique")
		seen[uint32(l)] = true
	}
}
