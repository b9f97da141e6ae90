package force_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/nbodysim/nbody/force"
	"github.com/nbodysim/nbody/system"
	"github.com/nbodysim/nbody/vec3"
)

func TestPostNewtonian1PNIsVelocityDependent(t *testing.T) {
	f := force.PostNewtonian1PN{LightSpeed: 1e4}
	assert.True(t, f.VelocityDependent())
}

func TestPostNewtonian1PNIndependentComponentIsZero(t *testing.T) {
	f := force.PostNewtonian1PN{LightSpeed: 1e4}
	p, err := system.NewParticles([]float64{1, 1}, []vec3.Vector{{X: -1}, {X: 1}}, []vec3.Vector{{Y: 0.01}, {Y: -0.01}}, []int{0, 1})
	require.NoError(t, err)

	out := make([]vec3.Vector, 2)
	f.EvalIndependent(p, out)
	for _, v := range out {
		assert.Equal(t, vec3.Zero, v)
	}
}

// TestPostNewtonian1PNVelocityDerivativeIsNotNaN takes a finite
// difference of body 0's x-acceleration with respect to its own
// x-velocity and checks that the result is not NaN. It does not compare
// the derivative against an analytic value or check its sign.
func TestPostNewtonian1PNVelocityDerivativeIsNotNaN(t *testing.T) {
	f := force.PostNewtonian1PN{LightSpeed: 1e3}

	eval := func(vx float64) float64 {
		p, err := system.NewParticles(
			[]float64{1, 1},
			[]vec3.Vector{{X: -1}, {X: 1}},
			[]vec3.Vector{{X: vx}, {}},
			[]int{0, 1},
		)
		require.NoError(t, err)
		acc := make([]vec3.Vector, 2)
		f.Eval(p, acc)
		return acc[0].X
	}

	grad := fd.Derivative(eval, 0.1, &fd.Settings{Step: 1e-6})
	// Only NaN is rejected here; magnitude and sign are not checked.
	assert.False(t, grad != grad, "derivative must not be NaN")
}

func TestSumCombinesNewtonianAndPostNewtonian(t *testing.T) {
	s := force.Sum{force.Newtonian{}, force.PostNewtonian1PN{LightSpeed: 1e3}}
	assert.True(t, s.VelocityDependent())

	p, err := system.NewParticles([]float64{1, 1}, []vec3.Vector{{X: -1}, {X: 1}}, []vec3.Vector{{Y: 0.001}, {Y: -0.001}}, []int{0, 1})
	require.NoError(t, err)

	acc := make([]vec3.Vector, 2)
	s.Eval(p, acc)

	indep := make([]vec3.Vector, 2)
	s.EvalIndependent(p, indep)
	dep := make([]vec3.Vector, 2)
	s.EvalDependent(p, dep)

	for i := range acc {
		assert.InDelta(t, acc[i].X, indep[i].X+dep[i].X, 1e-12)
	}

	pe := s.PotentialEnergy(p)
	assert.InDelta(t, -0.5, pe, 1e-14) // only Newtonian contributes a closed-form PE
}
