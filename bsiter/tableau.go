// Package bsiter implements the Bulirsch-Stoer extrapolation iterator
// over the modified-midpoint base method: the adaptive step driver
// that drives a system.System forward by one macro step, choosing its
// own order and step size from the shape of the extrapolation tableau.
package bsiter

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// K is the tableau's row capacity.
const K = 8

// Tableau is the lower-triangular array of extrapolated base-method
// results. Every cell (r, c), 0<=c<=r, is a row of a single dense
// matrix backing store (K*(K+1)/2 rows by numActive columns), indexed
// flat at r*(r+1)/2+c: a cell's value and its neighbors in the
// triangle are never a uniform rectangular shape, but every cell is
// the same fixed-width vector of active-variable deltas, which is
// exactly what mat.Dense's row-major layout wants. Each cell holds the
// delta of every active variable from the snapshot the row's base
// integration started from, not the absolute state, so that
// extrapolation arithmetic never differences two large near-equal
// absolute values.
//
// Per-row bookkeeping (sub-step count, error exponent, step-size
// safety factor, cumulative cost) is derived once at construction from
// K, following the data model's invariant that these are fixed for
// the tableau's lifetime.
type Tableau struct {
	numActive int
	backing   *mat.Dense

	NSub  [K]int     // n_r = 2(r+1)
	Alpha [K]float64 // alpha_r = 1/(2r+1)
	SSafe [K]float64 // s_r = 0.02^alpha_r
	Cost  [K]float64 // c_r = cumulative sub-step count through row r
}

// NewTableau allocates a Tableau sized for numActive active scalars
// (pos+vel[+auxvel]+time+B+Omega flattened). It is the tableau's one
// allocation; no further growth occurs on the hot path.
func NewTableau(numActive int) *Tableau {
	t := &Tableau{
		numActive: numActive,
		backing:   mat.NewDense(K*(K+1)/2, numActive, nil),
	}
	var cumCost float64
	for r := 0; r < K; r++ {
		t.NSub[r] = 2 * (r + 1)
		t.Alpha[r] = 1.0 / float64(2*r+1)
		t.SSafe[r] = math.Pow(0.02, t.Alpha[r])
		cumCost += float64(t.NSub[r])
		t.Cost[r] = cumCost
	}
	return t
}

func idx(r, c int) int {
	return r*(r+1)/2 + c
}

// Cell returns the (r, c) cell, a slice of length numActive aliasing
// the tableau's backing matrix; writes through it are visible to
// later Cell calls on the same (r, c).
func (t *Tableau) Cell(r, c int) []float64 {
	return t.backing.RawRowView(idx(r, c))
}

// Extrapolate fills column c of row r (1<=c<=r) from column c-1 of
// rows r and r-1 via the Aitken-Neville recursion:
//
//	T[r,c] = T[r,c-1] + (T[r,c-1]-T[r-1,c-1]) / ((n_r/n_{r-c})^2 - 1)
func (t *Tableau) Extrapolate(r, c int) {
	cur := t.Cell(r, c-1)
	prev := t.Cell(r-1, c-1)
	out := t.Cell(r, c)
	ratio := float64(t.NSub[r]) / float64(t.NSub[r-c])
	denom := ratio*ratio - 1
	for i := range out {
		out[i] = cur[i] + (cur[i]-prev[i])/denom
	}
}

// ExtrapolateRow extrapolates row r from column 1 through column r,
// in order (each column depends on the previous one).
func (t *Tableau) ExtrapolateRow(r int) {
	for c := 1; c <= r; c++ {
		t.Extrapolate(r, c)
	}
}
