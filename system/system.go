package system

import (
	"github.com/pkg/errors"

	"github.com/nbodysim/nbody/chain"
	"github.com/nbodysim/nbody/regularize"
	"github.com/nbodysim/nbody/vec3"
)

// Force evaluates the total acceleration acting on every body. It is
// the minimal contract every interaction law (Newtonian gravity,
// post-Newtonian terms, ...) must satisfy.
type Force interface {
	// VelocityDependent reports whether Eval's result depends on
	// Particles.Vel, which selects the General-Midpoint sub-kick over
	// the plain kick in System.Kick.
	VelocityDependent() bool
	// Eval writes the acceleration of every body into acc, which has
	// length p.N().
	Eval(p *Particles, acc []vec3.Vector)
}

// PotentialForce is a Force that can also report a scalar potential
// energy, needed by the regularizers to compute Δt denominators
// (-PE(x)) and by the driver to report energy error.
type PotentialForce interface {
	Force
	PotentialEnergy(p *Particles) float64
}

// ComponentForce splits a velocity-dependent Force into its
// velocity-independent part g and velocity-dependent part f, so that
// System.Kick can feed the right piece to Regularizer.AdvanceOmega /
// AdvanceBindE. Forces with VelocityDependent() == true must implement
// this; System.Kick type-asserts for it.
type ComponentForce interface {
	Force
	// EvalIndependent writes the velocity-independent acceleration
	// component into out.
	EvalIndependent(p *Particles, out []vec3.Vector)
	// EvalDependent writes the velocity-dependent acceleration
	// component, evaluated at the velocity currently in p.Vel, into out.
	EvalDependent(p *Particles, out []vec3.Vector)
}

// ErrDenominatorCollapse wraps the error that stopped a Drift or Kick
// (regularize.ErrNonPositiveDenominator, or a force that lacks the
// PotentialForce/ComponentForce method the step needs) with the calling
// System operation. bsiter.Iterator treats it as a fatal step fault: it
// is returned as an error, never raised as a panic, and no retry with a
// smaller step is attempted.
type ErrDenominatorCollapse struct {
	Op  string
	Err error
}

func (e *ErrDenominatorCollapse) Error() string {
	return "system: " + e.Op + ": " + e.Err.Error()
}

func (e *ErrDenominatorCollapse) Unwrap() error {
	return e.Err
}

// System composes a particle store, an optional chain coordinate
// mirror, a regularizer, and a force law. There is no inheritance
// hierarchy of system variants (the original expresses bare/chain and
// regularized/unregularized systems as distinct template
// instantiations); a single System struct switches on Regularizer.Kind
// and UseChain instead, per the redesign note the specification
// carries forward from the original's policy-hierarchy design.
type System struct {
	Particles   *Particles
	Chain       *chain.Coordinator
	Regularizer *regularize.Regularizer
	Force       Force
	UseChain    bool

	// scratch buffers for accelerations and drift displacements,
	// reused across Drift/Kick calls; Kick still allocates its
	// velocity-increment slices on every call.
	accBuf, accBuf2, accBuf3 []vec3.Vector
	gIndepBuf, fDepBuf       []vec3.Vector
}

// New constructs a System. It first projects p to the center-of-mass
// frame in place. If useChain is true a Coordinator is built from the
// initial positions. Regularizer.Init is called with the CoM-projected
// initial kinetic and potential energy unless kind is regularize.None.
func New(p *Particles, force Force, kind regularize.Kind, useChain bool) (*System, error) {
	p.ProjectToCOM()
	n := p.N()
	s := &System{
		Particles:   p,
		Regularizer: regularize.New(kind),
		Force:       force,
		UseChain:    useChain,
		accBuf:      make([]vec3.Vector, n),
		accBuf2:     make([]vec3.Vector, n),
		accBuf3:     make([]vec3.Vector, n),
		gIndepBuf:   make([]vec3.Vector, n),
		fDepBuf:     make([]vec3.Vector, n),
	}
	if useChain {
		s.Chain = chain.New(n)
		s.Chain.Index = chain.Build(p.Pos)
		chain.ToChain(p.Pos, s.Chain.Index, s.Chain.Pos)
		chain.ToChain(p.Vel, s.Chain.Index, s.Chain.Vel)
	}
	if kind != regularize.None {
		pe, err := s.potentialEnergy()
		if err != nil {
			return nil, errors.Wrap(err, "system: New")
		}
		s.Regularizer.Init(p.KineticEnergy(), pe)
	}
	return s, nil
}

func (s *System) potentialEnergy() (float64, error) {
	pf, ok := s.Force.(PotentialForce)
	if !ok {
		return 0, errors.New("system: force does not implement PotentialForce, required by the active regularizer")
	}
	return pf.PotentialEnergy(s.Particles), nil
}

// EvaluateAcc writes the current total acceleration into acc, which
// must have length Particles.N().
func (s *System) EvaluateAcc(acc []vec3.Vector) {
	s.Force.Eval(s.Particles, acc)
}

// Drift advances every position by vel*Δt, where Δt is the physical
// time mapped from integrator step h by the active regularizer's
// DriftDt, and advances the shared time scalar by the same Δt.
func (s *System) Drift(h float64) error {
	dt, err := s.Regularizer.DriftDt(h, s.Particles.KineticEnergy())
	if err != nil {
		return &ErrDenominatorCollapse{Op: "Drift", Err: err}
	}
	disp := s.accBuf // reuse: same shape, different meaning (displacement)
	for i, v := range s.Particles.Vel {
		disp[i] = v.Scale(dt)
	}
	s.Particles.AdvancePos(disp)
	s.Particles.AdvanceTime(dt)
	return nil
}

// Kick advances every velocity by acc*Δt, where Δt is the physical
// time mapped from integrator step h by the active regularizer's
// KickDt (using the potential energy at the post-drift positions).
//
// When Force.VelocityDependent() is false, this is a single
// half-kick/half-kick split that also feeds Ω (TTL only) at the
// midpoint using the full (velocity-independent) acceleration. When
// Force.VelocityDependent() is true, this implements the
// General-Midpoint sub-kick: the auxiliary velocity is advanced a
// half-step, swapped in for the real velocity to re-evaluate the
// velocity-dependent piece, the real velocity is advanced a full step,
// Ω/B are updated from the already-computed velocity-dependent
// acceleration and the auxiliary velocity, and finally the auxiliary
// velocity is advanced its closing half-step.
func (s *System) Kick(h float64) error {
	pe, err := s.potentialEnergyOrZero()
	if err != nil {
		return &ErrDenominatorCollapse{Op: "Kick", Err: err}
	}
	dt, err := s.Regularizer.KickDt(h, pe)
	if err != nil {
		return &ErrDenominatorCollapse{Op: "Kick", Err: err}
	}

	if !s.Force.VelocityDependent() {
		return s.kickVelocityIndependent(dt)
	}
	return s.kickGeneralMidpoint(dt)
}

func (s *System) potentialEnergyOrZero() (float64, error) {
	if s.Regularizer.Kind == regularize.None {
		return 0, nil
	}
	return s.potentialEnergy()
}

func (s *System) kickVelocityIndependent(dt float64) error {
	acc := s.accBuf
	s.Force.Eval(s.Particles, acc)

	half := make([]vec3.Vector, len(acc))
	for i, a := range acc {
		half[i] = a.Scale(0.5 * dt)
	}
	s.Particles.AdvanceVel(half)
	s.Particles.AdvanceAuxVel(half)

	s.Regularizer.AdvanceOmega(s.Particles.AuxVel, acc, s.Particles.Mass, dt)

	s.Particles.AdvanceVel(half)
	s.Particles.AdvanceAuxVel(half)
	return nil
}

func (s *System) kickGeneralMidpoint(dt float64) error {
	cf, ok := s.Force.(ComponentForce)
	if !ok {
		return &ErrDenominatorCollapse{Op: "Kick", Err: errors.New("velocity-dependent force does not implement ComponentForce")}
	}
	p := s.Particles
	n := p.N()

	acc1 := s.accBuf
	cf.Eval(p, acc1)
	halfDt := make([]vec3.Vector, n)
	for i, a := range acc1 {
		halfDt[i] = a.Scale(0.5 * dt)
	}
	p.AdvanceAuxVel(halfDt)

	// Evaluate the velocity-dependent piece with the auxiliary
	// velocity standing in for the real one.
	p.Vel, p.AuxVel = p.AuxVel, p.Vel
	acc2 := s.accBuf2
	cf.Eval(p, acc2)
	p.Vel, p.AuxVel = p.AuxVel, p.Vel

	fullDt := make([]vec3.Vector, n)
	for i, a := range acc2 {
		fullDt[i] = a.Scale(dt)
	}
	p.AdvanceVel(fullDt)

	cf.EvalIndependent(p, s.gIndepBuf)
	for i := range s.fDepBuf {
		s.fDepBuf[i] = acc2[i].Sub(s.gIndepBuf[i])
	}
	s.Regularizer.AdvanceOmega(p.AuxVel, s.gIndepBuf, p.Mass, dt)
	s.Regularizer.AdvanceBindE(p.AuxVel, s.fDepBuf, p.Mass, dt)

	acc3 := s.accBuf3
	cf.Eval(p, acc3)
	half2 := make([]vec3.Vector, n)
	for i, a := range acc3 {
		half2[i] = a.Scale(0.5 * dt)
	}
	p.AdvanceAuxVel(half2)
	return nil
}

// PreIterate synchronizes the auxiliary velocity with the real
// velocity; called once at the start of every macro step (an
// integrator's unit of work, e.g. one modified-midpoint call).
func (s *System) PreIterate() {
	s.Particles.SyncAuxVel()
}

// PostIterate re-projects to the center-of-mass frame and, if the
// system carries a chain coordinate mirror, rebuilds it when the
// nearest-neighbor topology has changed.
func (s *System) PostIterate() error {
	s.Particles.ProjectToCOM()
	if !s.UseChain {
		return nil
	}
	newIdx := chain.Build(s.Particles.Pos)
	if chain.TopologyChanged(s.Chain.Index, newIdx) {
		newPos := make([]vec3.Vector, len(newIdx))
		chain.UpdateChainPos(s.Chain.Pos, s.Chain.Index, newIdx, newPos)
		s.Chain.Pos = newPos
		s.Chain.Index = newIdx
	} else {
		chain.ToChain(s.Particles.Pos, s.Chain.Index, s.Chain.Pos)
	}
	chain.ToChain(s.Particles.Vel, s.Chain.Index, s.Chain.Vel)
	return nil
}

// Clone deep-copies the whole System, including the regularizer's
// Kahan-compensated B/Ω and the particle store's compensated time, so
// that a BS iterator can snapshot before a trial step and restore
// exactly on rejection.
func (s *System) Clone() *System {
	c := &System{
		Particles:   s.Particles.Clone(),
		Regularizer: s.Regularizer.Clone(),
		Force:       s.Force,
		UseChain:    s.UseChain,
		accBuf:      make([]vec3.Vector, s.Particles.N()),
		accBuf2:     make([]vec3.Vector, s.Particles.N()),
		accBuf3:     make([]vec3.Vector, s.Particles.N()),
		gIndepBuf:   make([]vec3.Vector, s.Particles.N()),
		fDepBuf:     make([]vec3.Vector, s.Particles.N()),
	}
	if s.UseChain {
		c.Chain = &chain.Coordinator{
			Index: append([]int(nil), s.Chain.Index...),
			Pos:   append([]vec3.Vector(nil), s.Chain.Pos...),
			Vel:   append([]vec3.Vector(nil), s.Chain.Vel...),
		}
	}
	return c
}

// Restore copies another System's state into s in place, so a caller
// holding a long-lived snapshot can restore without reallocating s
// itself (the BS iterator holds a single snapshot and restores from it
// before every tableau row and on every reject).
func (s *System) Restore(snapshot *System) {
	*s.Particles = *snapshot.Particles.Clone()
	*s.Regularizer = *snapshot.Regularizer.Clone()
	if s.UseChain {
		s.Chain.Index = append(s.Chain.Index[:0], snapshot.Chain.Index...)
		s.Chain.Pos = append(s.Chain.Pos[:0], snapshot.Chain.Pos...)
		s.Chain.Vel = append(s.Chain.Vel[:0], snapshot.Chain.Vel...)
	}
}

// EnergyError returns (KE + PE - (-B)) / B, the fractional drift of
// the regularized Hamiltonian's conserved binding energy; for
// Regularizer.Kind == None it returns KE + PE against the energy
// recorded at construction, which callers must track themselves.
func (s *System) EnergyError() (float64, error) {
	pe, err := s.potentialEnergy()
	if err != nil {
		return 0, err
	}
	ke := s.Particles.KineticEnergy()
	if s.Regularizer.Kind == regularize.None {
		return ke + pe, nil
	}
	h := ke + pe
	b := s.Regularizer.B.Value
	if b == 0 {
		return 0, errors.New("system: EnergyError: B is zero")
	}
	return (h - (-b)) / b, nil
}
