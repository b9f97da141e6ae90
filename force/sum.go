package force

import (
	"github.com/nbodysim/nbody/system"
	"github.com/nbodysim/nbody/vec3"
)

// Sum composes several interaction laws into one Force, e.g. Newtonian
// gravity plus a PostNewtonian1PN correction. It is velocity-dependent
// if any term is.
type Sum []system.Force

var _ system.Force = Sum(nil)
var _ system.PotentialForce = Sum(nil)
var _ system.ComponentForce = Sum(nil)

func (s Sum) VelocityDependent() bool {
	for _, f := range s {
		if f.VelocityDependent() {
			return true
		}
	}
	return false
}

func (s Sum) Eval(p *system.Particles, acc []vec3.Vector) {
	for i := range acc {
		acc[i] = vec3.Zero
	}
	buf := make([]vec3.Vector, len(acc))
	for _, f := range s {
		f.Eval(p, buf)
		for i := range acc {
			vec3.Add(&acc[i], buf[i])
		}
	}
}

func (s Sum) PotentialEnergy(p *system.Particles) float64 {
	var pe float64
	for _, f := range s {
		if pf, ok := f.(system.PotentialForce); ok {
			pe += pf.PotentialEnergy(p)
		}
	}
	return pe
}

func (s Sum) EvalIndependent(p *system.Particles, out []vec3.Vector) {
	for i := range out {
		out[i] = vec3.Zero
	}
	buf := make([]vec3.Vector, len(out))
	for _, f := range s {
		if cf, ok := f.(system.ComponentForce); ok {
			cf.EvalIndependent(p, buf)
		} else {
			f.Eval(p, buf)
		}
		for i := range out {
			vec3.Add(&out[i], buf[i])
		}
	}
}

func (s Sum) EvalDependent(p *system.Particles, out []vec3.Vector) {
	for i := range out {
		out[i] = vec3.Zero
	}
	buf := make([]vec3.Vector, len(out))
	for _, f := range s {
		if cf, ok := f.(system.ComponentForce); ok {
			cf.EvalDependent(p, buf)
			for i := range out {
				vec3.Add(&out[i], buf[i])
			}
		}
	}
}
