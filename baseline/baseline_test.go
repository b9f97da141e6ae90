package baseline_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbodysim/nbody/baseline"
	"github.com/nbodysim/nbody/force"
	"github.com/nbodysim/nbody/vec3"
)

func circularTwoBody() ([]float64, baseline.State) {
	m1, m2 := 1.0, 1e-3
	total := m1 + m2
	r := 1.0
	v := math.Sqrt(total / r)
	mass := []float64{m1, m2}
	s := baseline.State{
		Pos: []vec3.Vector{{X: -m2 / total * r}, {X: m1 / total * r}},
		Vel: []vec3.Vector{{Y: -m2 / total * v}, {Y: m1 / total * v}},
	}
	return mass, s
}

func energy(mass []float64, s baseline.State) float64 {
	ke := 0.0
	for i, m := range mass {
		ke += 0.5 * m * s.Vel[i].NormSq()
	}
	pe := -mass[0] * mass[1] / vec3.Distance(s.Pos[0], s.Pos[1])
	return ke + pe
}

func TestRK4SolverConservesEnergyApproximately(t *testing.T) {
	mass, init := circularTwoBody()
	e0 := energy(mass, init)

	traj := baseline.RK4Solver(mass, force.Newtonian{}, init, 1e-3, 500)
	require.Len(t, traj, 501)

	eEnd := energy(mass, traj[len(traj)-1])
	assert.Less(t, math.Abs((eEnd-e0)/e0), 1e-4)
}

func TestRK4SolverAdvancesTime(t *testing.T) {
	mass, init := circularTwoBody()
	traj := baseline.RK4Solver(mass, force.Newtonian{}, init, 0.01, 10)
	assert.InDelta(t, 0.1, traj[len(traj)-1].T, 1e-12)
}

func TestImplicitMidpointSolverConservesEnergyApproximately(t *testing.T) {
	mass, init := circularTwoBody()
	e0 := energy(mass, init)

	traj, err := baseline.ImplicitMidpointSolver(mass, force.Newtonian{}, init, 1e-3, 200, 10, 1e-12)
	require.NoError(t, err)

	eEnd := energy(mass, traj[len(traj)-1])
	assert.Less(t, math.Abs((eEnd-e0)/e0), 1e-4)
}
