// Package system implements the particle store and the composed
// "particle system" object that integrators drive: drift, kick,
// acceleration evaluation, pre/post-iterate hooks, chain rebuilding,
// and center-of-mass re-projection.
package system

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/nbodysim/nbody/kahan"
	"github.com/nbodysim/nbody/vec3"
)

// Particles is a structure-of-arrays store of N point bodies: mass,
// position, velocity, an auxiliary velocity (used by the
// General-Midpoint sub-kick for velocity-dependent forces), stable
// integer ids, and one compensated time scalar shared by the whole
// store.
type Particles struct {
	Mass   []float64
	Pos    []vec3.Vector
	Vel    []vec3.Vector
	AuxVel []vec3.Vector
	ID     []int
	Time   kahan.Sum
}

// NewParticles validates and constructs a Particles store. It fails
// (rather than panicking) on non-positive mass, duplicate ids, or
// N < 2, per the core's input-validation error policy.
func NewParticles(mass []float64, pos, vel []vec3.Vector, id []int) (*Particles, error) {
	n := len(mass)
	if n < 2 {
		return nil, errors.Errorf("system: need at least 2 bodies, got %d", n)
	}
	if len(pos) != n || len(vel) != n || len(id) != n {
		return nil, errors.Errorf("system: mass/pos/vel/id length mismatch (%d/%d/%d/%d)", n, len(pos), len(vel), len(id))
	}
	seen := make(map[int]bool, n)
	for i, m := range mass {
		if m <= 0 {
			return nil, errors.Errorf("system: body %d has non-positive mass %v", i, m)
		}
		if seen[id[i]] {
			return nil, errors.Errorf("system: duplicate body id %d", id[i])
		}
		seen[id[i]] = true
	}

	p := &Particles{
		Mass:   append([]float64(nil), mass...),
		Pos:    append([]vec3.Vector(nil), pos...),
		Vel:    append([]vec3.Vector(nil), vel...),
		AuxVel: append([]vec3.Vector(nil), vel...),
		ID:     append([]int(nil), id...),
	}
	return p, nil
}

// N returns the number of bodies.
func (p *Particles) N() int {
	return len(p.Mass)
}

// Clone returns a deep copy, including the Kahan compensation term of
// Time, so that snapshot/restore round-trips exactly.
func (p *Particles) Clone() *Particles {
	return &Particles{
		Mass:   append([]float64(nil), p.Mass...),
		Pos:    append([]vec3.Vector(nil), p.Pos...),
		Vel:    append([]vec3.Vector(nil), p.Vel...),
		AuxVel: append([]vec3.Vector(nil), p.AuxVel...),
		ID:     append([]int(nil), p.ID...),
		Time:   p.Time.Clone(),
	}
}

// KineticEnergy returns Σ 0.5 mᵢ |vᵢ|². The per-body terms are reduced
// with gonum/floats.Sum rather than a hand-rolled loop accumulator,
// since this is a plain (non-compensated) reduction over a flat slice
// that already exists in memory shape the same way floats.Sum wants.
func (p *Particles) KineticEnergy() float64 {
	terms := make([]float64, len(p.Mass))
	for i, m := range p.Mass {
		terms[i] = 0.5 * m * p.Vel[i].NormSq()
	}
	return floats.Sum(terms)
}

// AdvancePos moves every position by disp[i] (typically vel[i]*dt).
func (p *Particles) AdvancePos(disp []vec3.Vector) {
	for i := range p.Pos {
		vec3.Add(&p.Pos[i], disp[i])
	}
}

// AdvanceVel moves every velocity by dv[i] (typically acc[i]*dt).
func (p *Particles) AdvanceVel(dv []vec3.Vector) {
	for i := range p.Vel {
		vec3.Add(&p.Vel[i], dv[i])
	}
}

// AdvanceAuxVel moves every auxiliary velocity by dv[i].
func (p *Particles) AdvanceAuxVel(dv []vec3.Vector) {
	for i := range p.AuxVel {
		vec3.Add(&p.AuxVel[i], dv[i])
	}
}

// AdvanceTime advances the compensated time scalar by dt.
func (p *Particles) AdvanceTime(dt float64) {
	p.Time.Add(dt)
}

// SyncAuxVel sets the auxiliary velocity equal to the velocity; called
// once per macro step by System.PreIterate.
func (p *Particles) SyncAuxVel() {
	copy(p.AuxVel, p.Vel)
}

// ProjectToCOM shifts positions and velocities so that the
// center-of-mass position and velocity are zero. The mass-weighted
// reduction runs through gonum/floats.Sum per component, same as
// KineticEnergy, rather than a running vec3 accumulator.
func (p *Particles) ProjectToCOM() {
	n := len(p.Mass)
	massTerms := make([]float64, n)
	xTerms, yTerms, zTerms := make([]float64, n), make([]float64, n), make([]float64, n)
	vxTerms, vyTerms, vzTerms := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, m := range p.Mass {
		massTerms[i] = m
		xTerms[i] = m * p.Pos[i].X
		yTerms[i] = m * p.Pos[i].Y
		zTerms[i] = m * p.Pos[i].Z
		vxTerms[i] = m * p.Vel[i].X
		vyTerms[i] = m * p.Vel[i].Y
		vzTerms[i] = m * p.Vel[i].Z
	}
	totalMass := floats.Sum(massTerms)
	comPos := vec3.Vector{X: floats.Sum(xTerms), Y: floats.Sum(yTerms), Z: floats.Sum(zTerms)}.Scale(1 / totalMass)
	comVel := vec3.Vector{X: floats.Sum(vxTerms), Y: floats.Sum(vyTerms), Z: floats.Sum(vzTerms)}.Scale(1 / totalMass)
	for i := range p.Pos {
		p.Pos[i] = p.Pos[i].Sub(comPos)
		p.Vel[i] = p.Vel[i].Sub(comVel)
	}
}
