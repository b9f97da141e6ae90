package chain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbodysim/nbody/chain"
	"github.com/nbodysim/nbody/vec3"
)

func linePositions(n int) []vec3.Vector {
	pos := make([]vec3.Vector, n)
	for i := range pos {
		pos[i] = vec3.Vector{X: float64(i)}
	}
	return pos
}

func TestBuildOrdersALineInPath(t *testing.T) {
	pos := linePositions(5)
	idx := chain.Build(pos)
	require.Len(t, idx, 5)
	// Either orientation of the straight line path is an equally valid
	// nearest-neighbor chain.
	forward := []int{0, 1, 2, 3, 4}
	backward := []int{4, 3, 2, 1, 0}
	assert.True(t, equalInts(idx, forward) || equalInts(idx, backward))
}

func TestBuildReversedPositionsYieldsReversedIndex(t *testing.T) {
	pos := linePositions(6)
	idx := chain.Build(pos)

	reversedPos := make([]vec3.Vector, len(pos))
	for i, p := range pos {
		reversedPos[len(pos)-1-i] = p
	}
	idxRev := chain.Build(reversedPos)

	want := make([]int, len(idx))
	for i, v := range idx {
		want[len(idx)-1-i] = len(pos) - 1 - v
	}
	assert.Equal(t, want, idxRev)
}

func TestTopologyChangedTreatsReverseAsSame(t *testing.T) {
	idx := []int{0, 1, 2, 3}
	rev := []int{3, 2, 1, 0}
	assert.False(t, chain.TopologyChanged(idx, rev))
	assert.False(t, chain.TopologyChanged(idx, idx))

	changed := []int{0, 2, 1, 3}
	assert.True(t, chain.TopologyChanged(idx, changed))
}

func TestToChainToCartesianRoundTrip(t *testing.T) {
	pos := []vec3.Vector{{X: 1, Y: 2}, {X: 3, Y: -1}, {X: -5, Y: 0}, {X: 2, Y: 2}}
	idx := chain.Build(pos)

	cp := make([]vec3.Vector, len(pos))
	chain.ToChain(pos, idx, cp)

	back := make([]vec3.Vector, len(pos))
	chain.ToCartesian(cp, idx, back)

	for i := range pos {
		assert.InDelta(t, pos[i].X, back[i].X, 1e-14)
		assert.InDelta(t, pos[i].Y, back[i].Y, 1e-14)
		assert.InDelta(t, pos[i].Z, back[i].Z, 1e-14)
	}
}

func TestUpdateChainPosMatchesRebuildFromCartesian(t *testing.T) {
	pos := []vec3.Vector{{X: 0}, {X: 1}, {X: 2.1}, {X: 10}}
	oldIdx := chain.Build(pos)
	oldCp := make([]vec3.Vector, len(pos))
	chain.ToChain(pos, oldIdx, oldCp)

	// Simulate a topology change: bodies 2 and 3 swap chain order.
	newIdx := append([]int{}, oldIdx...)
	for i, v := range newIdx {
		if v == 2 {
			newIdx[i] = 3
		} else if v == 3 {
			newIdx[i] = 2
		}
	}

	gotCp := make([]vec3.Vector, len(pos))
	chain.UpdateChainPos(oldCp, oldIdx, newIdx, gotCp)

	wantCp := make([]vec3.Vector, len(pos))
	chain.ToChain(pos, newIdx, wantCp)

	for i := range gotCp {
		assert.InDelta(t, wantCp[i].X, gotCp[i].X, 1e-12)
		assert.InDelta(t, wantCp[i].Y, gotCp[i].Y, 1e-12)
		assert.InDelta(t, wantCp[i].Z, gotCp[i].Z, 1e-12)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
