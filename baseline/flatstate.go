// Package baseline implements fixed-step, non-regularized integrators
// used only to cross-check bsiter's output on short test intervals —
// never the production integration path, which is regularized BS
// extrapolation (package bsiter). Adapted from the teacher's
// algorithms.go solver family, generalized from its symbol-keyed
// state.State to a flat position/velocity pair over vec3.Vector.
package baseline

import (
	"github.com/nbodysim/nbody/system"
	"github.com/nbodysim/nbody/vec3"
)

// State is one instant of a direct (non-regularized) N-body
// trajectory: physical time plus every body's position and velocity.
type State struct {
	T   float64
	Pos []vec3.Vector
	Vel []vec3.Vector
}

// Clone returns an independent copy of s.
func (s State) Clone() State {
	out := State{T: s.T, Pos: make([]vec3.Vector, len(s.Pos)), Vel: make([]vec3.Vector, len(s.Vel))}
	copy(out.Pos, s.Pos)
	copy(out.Vel, s.Vel)
	return out
}

// flatten packs a State's positions and velocities into a single
// []float64, 6 entries per body: x,y,z,vx,vy,vz. Used by the
// implicit-midpoint Newton residual, which needs a flat vector for
// gonum's fd.Jacobian and linsolve to operate on.
func flatten(s State) []float64 {
	out := make([]float64, 0, 6*len(s.Pos))
	for i := range s.Pos {
		out = append(out, s.Pos[i].X, s.Pos[i].Y, s.Pos[i].Z, s.Vel[i].X, s.Vel[i].Y, s.Vel[i].Z)
	}
	return out
}

func unflatten(t float64, flat []float64) State {
	n := len(flat) / 6
	s := State{T: t, Pos: make([]vec3.Vector, n), Vel: make([]vec3.Vector, n)}
	for i := 0; i < n; i++ {
		b := flat[6*i:]
		s.Pos[i] = vec3.Vector{X: b[0], Y: b[1], Z: b[2]}
		s.Vel[i] = vec3.Vector{X: b[3], Y: b[4], Z: b[5]}
	}
	return s
}

// derivative evaluates dPos/dt = Vel and dVel/dt = acceleration(f) at
// s, building a scratch Particles view so f can be any system.Force
// (Newtonian, PostNewtonian1PN, or a Sum of both) without involving
// bsiter's regularization or chain machinery.
func derivative(mass []float64, f system.Force, s State) (dPos, dVel []vec3.Vector) {
	p := &system.Particles{
		Mass:   mass,
		Pos:    s.Pos,
		Vel:    s.Vel,
		AuxVel: s.Vel,
	}
	acc := make([]vec3.Vector, len(mass))
	f.Eval(p, acc)
	dPos = make([]vec3.Vector, len(mass))
	copy(dPos, s.Vel)
	return dPos, acc
}
