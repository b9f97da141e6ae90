// Package force implements the interaction laws the integration core
// drives through the system.Force family of interfaces: Newtonian
// gravity and a 1PN post-Newtonian correction, composable with Sum.
package force

import (
	"math"

	"github.com/nbodysim/nbody/chain"
	"github.com/nbodysim/nbody/system"
	"github.com/nbodysim/nbody/vec3"
)

// Newtonian is pairwise inverse-square gravity with an optional
// softening length. It is velocity-independent.
//
// When the Chain field is set, the pairwise separation for bodies
// adjacent in chain order is taken from that chain coordinate mirror
// rather than recomputed as a Cartesian difference;
// every other pair uses the ordinary Cartesian difference. This is the
// topological cross-over rule: chain adjacency decides which bodies
// get the round-off-suppressed path, not their physical separation.
type Newtonian struct {
	Softening float64
	// Chain, when non-nil, supplies the chain-pair differences used
	// for chain-adjacent bodies. Nil disables the chain path entirely
	// (ordinary Cartesian pairwise sums for every pair).
	Chain *chain.Coordinator
}

var _ system.Force = Newtonian{}
var _ system.PotentialForce = Newtonian{}

func (f Newtonian) VelocityDependent() bool { return false }

// chainAdjacent returns the chain-pair separation for positions idx[a]
// and idx[a+1] when i, j are that pair (in either order), and ok=false
// otherwise.
func (f Newtonian) chainAdjacent(i, j int) (sep vec3.Vector, ok bool) {
	if f.Chain == nil {
		return vec3.Zero, false
	}
	idx := f.Chain.Index
	for a := 0; a < len(idx)-1; a++ {
		if idx[a] == i && idx[a+1] == j {
			return f.Chain.Pos[a], true
		}
		if idx[a] == j && idx[a+1] == i {
			return f.Chain.Pos[a].Neg(), true
		}
	}
	return vec3.Zero, false
}

func (f Newtonian) separation(p *system.Particles, i, j int) vec3.Vector {
	if sep, ok := f.chainAdjacent(i, j); ok {
		return sep
	}
	return p.Pos[j].Sub(p.Pos[i])
}

func (f Newtonian) Eval(p *system.Particles, acc []vec3.Vector) {
	n := p.N()
	for i := range acc {
		acc[i] = vec3.Zero
	}
	eps2 := f.Softening * f.Softening
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := f.separation(p, i, j)
			d2 := r.NormSq() + eps2
			invD3 := 1.0 / (d2 * math.Sqrt(d2))
			vec3.AddScaled(&acc[i], p.Mass[j]*invD3, r)
			vec3.AddScaled(&acc[j], -p.Mass[i]*invD3, r)
		}
	}
}

func (f Newtonian) PotentialEnergy(p *system.Particles) float64 {
	n := p.N()
	var pe float64
	eps2 := f.Softening * f.Softening
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := f.separation(p, i, j)
			d := math.Sqrt(r.NormSq() + eps2)
			pe -= p.Mass[i] * p.Mass[j] / d
		}
	}
	return pe
}
