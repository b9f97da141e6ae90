package force

import (
	"github.com/nbodysim/nbody/system"
	"github.com/nbodysim/nbody/vec3"
)

// PostNewtonian1PN adds the leading-order (1PN) relativistic
// correction to two-body gravity, following the EIH (Einstein-
// Infeld-Hoffmann) form used for relativistic few-body dynamics. It is
// velocity-dependent: the correction depends on both bodies' current
// velocities, not just their separation.
type PostNewtonian1PN struct {
	// LightSpeed is c in the same unit system as mass/position/time;
	// callers in gravitational units typically pass a large finite
	// value rather than using SI units directly.
	LightSpeed float64
}

var _ system.Force = PostNewtonian1PN{}
var _ system.ComponentForce = PostNewtonian1PN{}

func (f PostNewtonian1PN) VelocityDependent() bool { return true }

// EvalIndependent is the zero vector: the 1PN correction has no
// velocity-independent piece of its own (callers compose PostNewtonian1PN
// with Newtonian via Sum to get one).
func (f PostNewtonian1PN) EvalIndependent(p *system.Particles, out []vec3.Vector) {
	for i := range out {
		out[i] = vec3.Zero
	}
}

// EvalDependent computes the 1PN correction using p.Vel as each body's
// current velocity (the caller may have swapped in the auxiliary
// velocity before calling, per the General-Midpoint sub-kick).
func (f PostNewtonian1PN) EvalDependent(p *system.Particles, out []vec3.Vector) {
	f.eval(p, out)
}

func (f PostNewtonian1PN) Eval(p *system.Particles, acc []vec3.Vector) {
	f.eval(p, acc)
}

func (f PostNewtonian1PN) eval(p *system.Particles, acc []vec3.Vector) {
	n := p.N()
	c2 := f.LightSpeed * f.LightSpeed
	for i := range acc {
		acc[i] = vec3.Zero
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			r := p.Pos[j].Sub(p.Pos[i])
			d := r.Norm()
			if d == 0 {
				continue
			}
			n3 := r.Scale(1 / d)
			vi, vj := p.Vel[i], p.Vel[j]
			vi2, vj2 := vi.NormSq(), vj.NormSq()
			nDotVi, nDotVj := n3.Dot(vi), n3.Dot(vj)

			// EIH 1PN coefficient (standard harmonic-gauge form,
			// truncated to the pairwise terms independent of a
			// third body's mass, which dominate for widely
			// separated systems).
			a := 4*p.Mass[j]/d - p.Mass[j]/d*vi2 - 2*p.Mass[j]/d*vj2 +
				4*vi.Dot(vj) + 1.5*nDotVj*nDotVj
			coef := p.Mass[j] / (d * d) * a / c2
			vec3.AddScaled(&acc[i], coef, n3)

			relVel := vj.Sub(vi)
			velCoef := p.Mass[j] / (d * d) * (4*nDotVi - 3*nDotVj) / c2
			vec3.AddScaled(&acc[i], velCoef, relVel)
		}
	}
}

func (f PostNewtonian1PN) PotentialEnergy(p *system.Particles) float64 {
	// The 1PN correction's contribution to a conserved energy used
	// only for Δt bookkeeping is folded into B via AdvanceBindE;
	// there is no separate closed-form potential to report here.
	return 0
}
