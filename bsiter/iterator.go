package bsiter

import (
	"math"

	"github.com/pkg/errors"

	"github.com/nbodysim/nbody/system"
)

// FaultSentinel is the step size bsiter.Iterate returns when a macro
// step has suffered an unrecoverable fault (non-finite arithmetic,
// denominator collapse, or exhausting every row without converging
// across a bounded number of retries). The driver must abort on
// seeing a return value <= 0.
const FaultSentinel = -1

// maxConsecutiveRejects bounds the reject-and-retry loop inside a
// single Iterate call. Reaching row K-1 without convergence is an
// ordinary reject (retry with half of h_{k*}); this cap
// is what turns a reject loop that never converges into the fatal
// "depth exhaustion" case the error-handling design also names.
const maxConsecutiveRejects = 50

// ErrNonFinite is returned when a tableau cell or a candidate step
// size goes NaN or infinite.
var ErrNonFinite = errors.New("bsiter: non-finite value in tableau")

// ErrDepthExhausted is returned when no row converges within the
// tableau's capacity across repeated retries.
var ErrDepthExhausted = errors.New("bsiter: no convergence within tableau depth across repeated retries")

// Iterator drives one system.System forward by repeated calls to
// Iterate, each advancing (or rejecting and retrying) one macro step
// via Bulirsch-Stoer extrapolation over the modified-midpoint base
// method.
type Iterator struct {
	sys          *system.System
	velDependent bool
	tableau      *Tableau

	snapshot     *system.System
	snapshotFlat []float64

	kStar      int
	RejectRate float64

	AbsTol, RelTol float64
}

// NewIterator constructs an Iterator for sys with the given absolute
// and relative tolerances. kStar starts at 7, clamped to [2, K-1].
func NewIterator(sys *system.System, absTol, relTol float64) *Iterator {
	velDep := sys.Force.VelocityDependent()
	n := numActive(sys.Particles.N(), velDep)
	return &Iterator{
		sys:          sys,
		velDependent: velDep,
		tableau:      NewTableau(n),
		snapshot:     sys.Clone(),
		snapshotFlat: make([]float64, n),
		kStar:        clampInt(7, 2, K-1),
		AbsTol:       absTol,
		RelTol:       relTol,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func hasNonFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}

// Iterate advances sys by one macro step of nominal size H. On
// acceptance it mutates sys in place and returns the step size to try
// next (strictly positive). On an unrecoverable fault it leaves sys
// unmodified since the last accepted step and returns FaultSentinel.
//
// Per §4.6's literal algorithm, a reject restarts the whole procedure
// from the snapshot with a smaller H; this happens inside one Iterate
// call (bounded by maxConsecutiveRejects) rather than being surfaced
// to the caller as a distinct return value, since nothing about sys
// has changed for the caller to act on between a reject and its retry.
func (it *Iterator) Iterate(H float64) (float64, error) {
	it.snapshot.Restore(it.sys)
	flatten(it.snapshot, it.velDependent, it.snapshotFlat)

	for attempt := 0; ; attempt++ {
		if attempt >= maxConsecutiveRejects {
			return FaultSentinel, ErrDepthExhausted
		}

		nextH, accepted, err := it.attempt(H)
		if err != nil {
			it.sys.Restore(it.snapshot)
			return FaultSentinel, err
		}
		if accepted {
			if nextH <= 0 || math.IsNaN(nextH) || math.IsInf(nextH, 0) {
				it.sys.Restore(it.snapshot)
				return FaultSentinel, ErrNonFinite
			}
			return nextH, nil
		}
		if nextH <= 0 || math.IsNaN(nextH) || math.IsInf(nextH, 0) {
			return FaultSentinel, ErrNonFinite
		}
		H = nextH
		it.snapshot.Restore(it.sys) // state unchanged by a reject; re-snapshot is a no-op but keeps flatten cache valid
		flatten(it.snapshot, it.velDependent, it.snapshotFlat)
	}
}

// attempt runs one full pass of §4.6 steps 2-5 for the given H. It
// returns the chosen step size and whether it represents an
// acceptance (state committed into it.sys) or a rejection (it.sys
// restored to snapshot, caller should retry with the returned H).
func (it *Iterator) attempt(H float64) (nextH float64, accepted bool, err error) {
	kStarClamped := clampInt(it.kStar, 2, K-1)

	it.sys.Restore(it.snapshot)
	it.sys.PreIterate()
	if err := baseIntegrate(it.sys, it.velDependent, it.snapshotFlat, H, it.tableau.NSub[0], it.tableau.Cell(0, 0)); err != nil {
		return 0, false, err
	}
	if hasNonFinite(it.tableau.Cell(0, 0)) {
		return 0, false, ErrNonFinite
	}

	var hArr, wArr [K]float64

	for r := 1; r < K; r++ {
		it.sys.Restore(it.snapshot)
		it.sys.PreIterate()
		if err := baseIntegrate(it.sys, it.velDependent, it.snapshotFlat, H, it.tableau.NSub[r], it.tableau.Cell(r, 0)); err != nil {
			return 0, false, err
		}
		it.tableau.ExtrapolateRow(r)
		if hasNonFinite(it.tableau.Cell(r, r)) {
			return 0, false, ErrNonFinite
		}

		errR := it.computeErr(r)
		fR := it.computeF(r, errR)
		hArr[r] = H * fR
		wArr[r] = it.tableau.Cost[r] / fR

		if r < kStarClamped-1 {
			continue // below the window: still building rows the window needs, no trigger check yet
		}

		// The accept trigger stays live for every row from here to K-1:
		// per §4.6 step 5, extending past k*+1 without a trigger keeps
		// testing err_r < 1 on each new row, it does not suppress it.
		if errR < 1 {
			it.commit(r)
			if err := it.sys.PostIterate(); err != nil {
				return 0, false, err
			}
			var newKStar int
			var newH float64
			if r <= kStarClamped+1 {
				newKStar, newH = it.chooseNext(r, kStarClamped, H, hArr, wArr)
			} else {
				// r is past the window: §4.7's table is defined only for
				// Δ = r-k* ∈ {-1,0,+1} and does not cover this case. Adopt
				// the row that just proved convergence as the new ideal
				// order, with its own step size, rather than forcing Δ
				// into the table or treating the accept as fatal.
				newKStar = clampInt(r, 2, K-1)
				newH = hArr[r]
			}
			it.kStar = newKStar
			it.RejectRate *= 0.95
			return newH, true, nil
		}
		// diverged() only fires for r in {k*-1, k*, k*+1}; it returns
		// false by construction for every extended row beyond k*+1, since
		// D_r is undefined there — so no separate window guard is needed.
		if it.diverged(r, kStarClamped, errR) {
			it.RejectRate = it.RejectRate*0.95 + 0.05
			it.sys.Restore(it.snapshot)
			if r == kStarClamped-1 {
				return H * it.tableau.Cost[r+1] / it.tableau.Cost[r], false, nil
			}
			return hArr[kStarClamped], false, nil
		}
		// neither accept nor diverged: keep extending.
	}

	// Row K-1 reached without a trigger: treat as reject, §4.6 step 5.
	it.RejectRate = it.RejectRate*0.95 + 0.05
	it.sys.Restore(it.snapshot)
	return hArr[kStarClamped] / 2, false, nil
}

func (it *Iterator) diverged(r, kStar int, errR float64) bool {
	n := it.tableau.NSub
	nAt := func(i int) float64 {
		if i >= K {
			i = K - 1
		}
		return float64(n[i])
	}
	var d float64
	switch r {
	case kStar - 1:
		d = nAt(r+1) * nAt(r+2) / (float64(n[0]) * float64(n[0]))
	case kStar:
		d = nAt(r+1) / float64(n[0])
	case kStar + 1:
		d = 1
	default:
		return false
	}
	return errR > d*d
}

func (it *Iterator) computeErr(r int) float64 {
	cur := it.tableau.Cell(r, r)
	prev := it.tableau.Cell(r, r-1)
	var maxRatio float64
	for i := range cur {
		init := it.snapshotFlat[i]
		denom := it.AbsTol + it.RelTol*math.Max(math.Abs(prev[i]+init), math.Abs(cur[i]+init))
		ratio := math.Abs(cur[i]-prev[i]) / denom
		if ratio > maxRatio {
			maxRatio = ratio
		}
	}
	return maxRatio / it.RelTol
}

func (it *Iterator) computeF(r int, errR float64) float64 {
	sr := it.tableau.SSafe[r]
	if errR == 0 {
		return 1 / sr
	}
	f := 0.9 * math.Pow(0.95/errR, it.tableau.Alpha[r])
	lo, hi := sr/4, 1/sr
	if f < lo {
		f = lo
	}
	if f > hi {
		f = hi
	}
	return f
}

// chooseNext implements §4.7's order/step decision table, returning
// both the new k* and the new H together since the table pairs them
// row by row (several branches pick an H that depends on which branch
// of the k* decision was taken).
func (it *Iterator) chooseNext(r, kStar int, H float64, hArr, wArr [K]float64) (newKStar int, newH float64) {
	delta := r - kStar
	cost := it.tableau.Cost
	switch delta {
	case -1:
		if kStar <= 2 || wArr[r] < 0.9*wArr[r-1] {
			return kStar, hArr[r] * cost[r+1] / cost[r]
		}
		newKStar = clampInt(kStar-1, 2, K-1)
		return newKStar, hArr[newKStar]
	case 0:
		if wArr[r-1] < 0.8*wArr[r] {
			newKStar = clampInt(kStar-1, 2, K-1)
			return newKStar, hArr[newKStar]
		}
		if wArr[r] < 0.9*wArr[r-1] {
			return clampInt(kStar+1, 2, K-1), hArr[r] * cost[r+1] / cost[r]
		}
		return kStar, hArr[kStar]
	case 1:
		newKStar = kStar
		if wArr[r-2] < 0.8*wArr[r-1] {
			newKStar = clampInt(kStar-1, 2, K-1)
		}
		if wArr[r] < 0.9*wArr[kStar] {
			newKStar = clampInt(kStar+1, 2, K-1)
		}
		return newKStar, hArr[kStar]
	default:
		panic("bsiter: order control reached an unreachable Δ; this is a programming fault")
	}
}

// commit restores sys to the snapshot and adds row r's extrapolated
// delta (column r) onto it, producing the accepted next state.
func (it *Iterator) commit(r int) {
	it.sys.Restore(it.snapshot)
	applyDelta(it.sys, it.velDependent, it.tableau.Cell(r, r))
}
