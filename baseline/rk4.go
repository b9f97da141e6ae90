package baseline

import (
	"github.com/nbodysim/nbody/system"
	"github.com/nbodysim/nbody/vec3"
)

// RK4Solver integrates steps fixed-size hops of h using classic 4th
// order Runge-Kutta, directly generalizing the teacher's RK4Solver
// (states[i].Clone() / CloneBlank() / StateDiff() over state.State) to
// a vec3.Vector position/velocity pair evaluated through a
// system.Force. Returns the trajectory including the initial state.
func RK4Solver(mass []float64, f system.Force, init State, h float64, steps int) []State {
	const overSix = 1. / 6.
	n := len(mass)
	out := make([]State, steps+1)
	out[0] = init.Clone()
	for i := 0; i < steps; i++ {
		cur := out[i]

		k1p, k1v := derivative(mass, f, cur)

		mid1 := State{T: cur.T + 0.5*h, Pos: addScaled(cur.Pos, 0.5*h, k1p), Vel: addScaled(cur.Vel, 0.5*h, k1v)}
		k2p, k2v := derivative(mass, f, mid1)

		mid2 := State{T: cur.T + 0.5*h, Pos: addScaled(cur.Pos, 0.5*h, k2p), Vel: addScaled(cur.Vel, 0.5*h, k2v)}
		k3p, k3v := derivative(mass, f, mid2)

		end := State{T: cur.T + h, Pos: addScaled(cur.Pos, h, k3p), Vel: addScaled(cur.Vel, h, k3v)}
		k4p, k4v := derivative(mass, f, end)

		next := State{T: cur.T + h, Pos: make([]vec3.Vector, n), Vel: make([]vec3.Vector, n)}
		for j := 0; j < n; j++ {
			next.Pos[j] = cur.Pos[j].Add(k1p[j].Add(k4p[j]).Add(k2p[j].Add(k3p[j]).Scale(2)).Scale(h * overSix))
			next.Vel[j] = cur.Vel[j].Add(k1v[j].Add(k4v[j]).Add(k2v[j].Add(k3v[j]).Scale(2)).Scale(h * overSix))
		}
		out[i+1] = next
	}
	return out
}

func addScaled(base []vec3.Vector, alpha float64, delta []vec3.Vector) []vec3.Vector {
	out := make([]vec3.Vector, len(base))
	for i := range base {
		out[i] = base[i].Add(delta[i].Scale(alpha))
	}
	return out
}
