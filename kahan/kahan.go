// Package kahan implements compensated (Kahan) summation for a single
// floating-point scalar, used throughout nbody wherever round-off
// accumulated over very long integrations must stay near machine
// precision: integration time, binding energy B, and Omega.
package kahan

// Sum is a compensated running sum. The zero value is a valid sum of
// zero. Value carries the running total; err carries the compensation
// term. Non-accumulating operations (Set, Scale) reset err to zero,
// since there is no running error to compensate once the accumulation
// history is discarded.
type Sum struct {
	Value float64
	err   float64
}

// New returns a Sum initialized to v with no accumulated error.
func New(v float64) Sum {
	return Sum{Value: v}
}

// Add performs compensated addition: s += delta. Returns s for chaining.
func (s *Sum) Add(delta float64) *Sum {
	y := delta - s.err
	t := s.Value + y
	s.err = (t - s.Value) - y
	s.Value = t
	return s
}

// Sub performs compensated subtraction: s -= delta.
func (s *Sum) Sub(delta float64) *Sum {
	return s.Add(-delta)
}

// Set replaces Value with v and clears the compensation term.
func (s *Sum) Set(v float64) {
	s.Value = v
	s.err = 0
}

// Scale multiplies Value by c. Not an accumulation, so err is cleared.
func (s *Sum) Scale(c float64) {
	s.Value *= c
	s.err = 0
}

// Clone returns an independent copy, including the compensation term,
// so that snapshot/restore of an enclosing struct is exact.
func (s Sum) Clone() Sum {
	return s
}

// Float64 returns the current value.
func (s Sum) Float64() float64 {
	return s.Value
}
