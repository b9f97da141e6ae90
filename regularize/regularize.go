// Package regularize implements the auxiliary scalars B (binding
// energy) and Omega and the time-transformation they define, following
// the log-H and TTL regularizations of Mikkola & Tanikawa and Mikkola.
//
// The original C++ source expresses None/LogH/TTL as a policy class
// hierarchy (Regularization<TypeClass> base, LogH/TTL/NoRegu
// subclasses) selected at compile time via a template parameter. Go
// has no templates and the redesign notes in the specification this
// package implements call for composition over inheritance, so the
// three variants collapse into one struct keyed by a closed Kind enum
// and dispatched with a switch — the arithmetic stays inlinable and
// there is exactly one regularizer type to snapshot.
package regularize

import (
	"github.com/pkg/errors"

	"github.com/nbodysim/nbody/kahan"
	"github.com/nbodysim/nbody/vec3"
)

// Kind selects the time transformation used to map integrator step h
// to physical Δt for drift and kick.
type Kind int

const (
	// None applies no time transformation: Δt = h.
	None Kind = iota
	// LogH is the Mikkola-Tanikawa logarithmic Hamiltonian regularization.
	LogH
	// TTL is Mikkola's time-transformed leapfrog regularization.
	TTL
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case LogH:
		return "logH"
	case TTL:
		return "ttl"
	default:
		return "unknown"
	}
}

// ErrNonPositiveDenominator is returned when a drift/kick Δt
// denominator (B+KE, -PE, or Ω/Ω̂) has collapsed to zero or gone
// non-finite — a non-recoverable arithmetic fault per the core's
// error handling design.
var ErrNonPositiveDenominator = errors.New("regularize: denominator collapsed to zero or non-finite")

// Regularizer holds the auxiliary scalars B and Omega, both
// Kahan-compensated, and the Kind that determines how they evolve.
type Regularizer struct {
	Kind  Kind
	B     kahan.Sum
	Omega kahan.Sum
}

// New returns a Regularizer of the given kind with B and Omega unset;
// call Init once the particle system's initial KE/PE are known.
func New(kind Kind) *Regularizer {
	return &Regularizer{Kind: kind}
}

// Init sets B = -(KE+PE), Omega = -PE, evaluated on the CoM-centered
// initial state.
func (r *Regularizer) Init(ke, pe float64) {
	r.B.Set(-(ke + pe))
	r.Omega.Set(-pe)
}

// Clone returns an independent copy (Kahan error terms included).
func (r *Regularizer) Clone() *Regularizer {
	c := *r
	return &c
}

// DriftDt returns the physical time elapsed for a drift of integrator
// step h, and an error if the denominator has collapsed.
//
//	LogH:  Δt = h / (B + KE(v))
//	TTL:   Δt = h / Omega
//	None:  Δt = h
func (r *Regularizer) DriftDt(h, ke float64) (float64, error) {
	switch r.Kind {
	case LogH:
		denom := r.B.Value + ke
		return safeDiv(h, denom)
	case TTL:
		return safeDiv(h, r.Omega.Value)
	default:
		return h, nil
	}
}

// KickDt returns the physical time elapsed for a kick of integrator
// step h given the current potential energy pe (negative for bound
// systems), and an error if the denominator has collapsed.
//
//	LogH:  Δt = h / (-PE(x))
//	TTL:   Δt = h / OmegaHat, OmegaHat = -PE(x) recomputed from positions
//	None:  Δt = h
func (r *Regularizer) KickDt(h, pe float64) (float64, error) {
	switch r.Kind {
	case LogH:
		return safeDiv(h, -pe)
	case TTL:
		return safeDiv(h, -pe)
	default:
		return h, nil
	}
}

func safeDiv(h, denom float64) (float64, error) {
	if denom == 0 || isNonFinite(denom) {
		return 0, ErrNonPositiveDenominator
	}
	dt := h / denom
	if isNonFinite(dt) {
		return 0, ErrNonPositiveDenominator
	}
	return dt, nil
}

func isNonFinite(x float64) bool {
	return x != x || x > maxFinite || x < -maxFinite
}

const maxFinite = 1.7976931348623157e+308

// AdvanceOmega advances Omega during a half-kick by
// Σ mᵢ (v̂ᵢ · gIndep,i) · Δt, where gIndep is the velocity-independent
// acceleration and v̂ the auxiliary velocity. Only meaningful for TTL;
// a no-op otherwise (mirrors the original's trivial NoRegu override).
func (r *Regularizer) AdvanceOmega(auxVel, gIndep []vec3.Vector, mass []float64, dt float64) {
	if r.Kind != TTL {
		return
	}
	var sum kahan.Sum
	for i := range mass {
		sum.Add(auxVel[i].Dot(gIndep[i]) * mass[i])
	}
	r.Omega.Add(sum.Value * dt)
}

// AdvanceBindE advances B after a velocity-dependent kick of duration
// Δt by -Σ mᵢ (v̂ᵢ · fd,i) · Δt, where fd is the velocity-dependent
// acceleration and v̂ the auxiliary velocity. Only meaningful for LogH;
// a no-op otherwise.
func (r *Regularizer) AdvanceBindE(auxVel, fDep []vec3.Vector, mass []float64, dt float64) {
	if r.Kind != LogH {
		return
	}
	var sum kahan.Sum
	for i := range mass {
		sum.Sub(auxVel[i].Dot(fDep[i]) * mass[i])
	}
	r.B.Add(sum.Value * dt)
}
