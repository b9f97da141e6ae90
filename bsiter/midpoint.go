package bsiter

import (
	"github.com/nbodysim/nbody/system"
)

// flatten writes every active variable of sys (pos, vel, auxvel if
// velDependent, time, B, Omega) into out, in that fixed order, so the
// same layout is used to read a snapshot and to write a tableau cell.
func flatten(sys *system.System, velDependent bool, out []float64) {
	i := 0
	for _, v := range sys.Particles.Pos {
		out[i], out[i+1], out[i+2] = v.X, v.Y, v.Z
		i += 3
	}
	for _, v := range sys.Particles.Vel {
		out[i], out[i+1], out[i+2] = v.X, v.Y, v.Z
		i += 3
	}
	if velDependent {
		for _, v := range sys.Particles.AuxVel {
			out[i], out[i+1], out[i+2] = v.X, v.Y, v.Z
			i += 3
		}
	}
	out[i] = sys.Particles.Time.Value
	i++
	out[i] = sys.Regularizer.B.Value
	i++
	out[i] = sys.Regularizer.Omega.Value
}

// numActive returns the flattened active-variable count for n bodies.
func numActive(n int, velDependent bool) int {
	count := 3*n + 3*n + 1 + 1 + 1
	if velDependent {
		count += 3 * n
	}
	return count
}

// baseIntegrate runs the modified-midpoint method: a macro step of
// integrator-time length H (mapped to physical time by the system's
// regularizer on each drift and kick) split into n sub-steps of h=H/n,
//
//	kick(h/2)
//	repeat n-1 times: drift(h); kick(h)
//	drift(h); kick(h/2)
//
// starting from whatever state sys currently holds (the caller is
// responsible for having restored sys to the row's snapshot first),
// and writes the delta from snapshot (flattened via flatten) into out.
func baseIntegrate(sys *system.System, velDependent bool, snapshotFlat []float64, H float64, n int, out []float64) error {
	h := H / float64(n)

	if err := sys.Kick(h / 2); err != nil {
		return err
	}
	for i := 0; i < n-1; i++ {
		if err := sys.Drift(h); err != nil {
			return err
		}
		if err := sys.Kick(h); err != nil {
			return err
		}
	}
	if err := sys.Drift(h); err != nil {
		return err
	}
	if err := sys.Kick(h / 2); err != nil {
		return err
	}

	flatten(sys, velDependent, out)
	for i := range out {
		out[i] -= snapshotFlat[i]
	}
	return nil
}

// applyDelta adds delta (as produced by baseIntegrate, or an
// extrapolated tableau cell in the same layout) onto sys in place,
// using Kahan-compensated adds for the scalar active variables so the
// commit step doesn't reintroduce the round-off the tableau's
// delta-from-snapshot representation was built to avoid.
func applyDelta(sys *system.System, velDependent bool, delta []float64) {
	i := 0
	for k := range sys.Particles.Pos {
		sys.Particles.Pos[k].X += delta[i]
		sys.Particles.Pos[k].Y += delta[i+1]
		sys.Particles.Pos[k].Z += delta[i+2]
		i += 3
	}
	for k := range sys.Particles.Vel {
		sys.Particles.Vel[k].X += delta[i]
		sys.Particles.Vel[k].Y += delta[i+1]
		sys.Particles.Vel[k].Z += delta[i+2]
		i += 3
	}
	if velDependent {
		for k := range sys.Particles.AuxVel {
			sys.Particles.AuxVel[k].X += delta[i]
			sys.Particles.AuxVel[k].Y += delta[i+1]
			sys.Particles.AuxVel[k].Z += delta[i+2]
			i += 3
		}
	}
	sys.Particles.Time.Add(delta[i])
	i++
	sys.Regularizer.B.Add(delta[i])
	i++
	sys.Regularizer.Omega.Add(delta[i])
}
