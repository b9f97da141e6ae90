package force_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbodysim/nbody/chain"
	"github.com/nbodysim/nbody/force"
	"github.com/nbodysim/nbody/system"
	"github.com/nbodysim/nbody/vec3"
)

func twoBody(t *testing.T) *system.Particles {
	t.Helper()
	p, err := system.NewParticles(
		[]float64{1, 1},
		[]vec3.Vector{{X: -1}, {X: 1}},
		[]vec3.Vector{{}, {}},
		[]int{0, 1},
	)
	require.NoError(t, err)
	return p
}

func TestNewtonianEqualAndOppositeForTwoBody(t *testing.T) {
	p := twoBody(t)
	f := force.Newtonian{}
	acc := make([]vec3.Vector, 2)
	f.Eval(p, acc)

	assert.InDelta(t, acc[0].X, -acc[1].X, 1e-14)
	assert.Greater(t, acc[0].X, 0.0, "body 0 should accelerate toward body 1")
	assert.Less(t, acc[1].X, 0.0, "body 1 should accelerate toward body 0")
}

func TestNewtonianPotentialEnergyMatchesAnalyticTwoBody(t *testing.T) {
	p := twoBody(t)
	f := force.Newtonian{}
	pe := f.PotentialEnergy(p)
	assert.InDelta(t, -1.0/2.0, pe, 1e-14) // -m1*m2/d, d=2
}

func TestNewtonianSofteningBoundsAccelerationAtZeroSeparation(t *testing.T) {
	p, err := system.NewParticles([]float64{1, 1}, []vec3.Vector{{}, {}}, []vec3.Vector{{}, {}}, []int{0, 1})
	require.NoError(t, err)
	f := force.Newtonian{Softening: 0.1}
	acc := make([]vec3.Vector, 2)
	f.Eval(p, acc) // must not produce Inf/NaN despite coincident positions
	assert.False(t, isNonFinite(acc[0].X))
	assert.False(t, isNonFinite(acc[1].X))
}

func TestNewtonianUsesChainSeparationForAdjacentPairs(t *testing.T) {
	p := twoBody(t)
	coord := chain.New(2)
	coord.Index = []int{0, 1}
	coord.Pos = []vec3.Vector{{X: 1234}} // deliberately wrong Cartesian value
	f := force.Newtonian{Chain: coord}

	acc := make([]vec3.Vector, 2)
	f.Eval(p, acc)
	// With a chain separation of 1234 the force magnitude differs
	// sharply from the Cartesian separation of 2.
	assert.NotEqual(t, 0.0, acc[0].X)
	assert.Less(t, acc[0].X*acc[0].X, 1e-10)
}

func isNonFinite(x float64) bool {
	return x != x || x > 1.7976931348623157e+308 || x < -1.7976931348623157e+308
}
