// Package chain implements the chain coordinate transformation: a
// relabeling of N bodies as a path through nearest-neighbor pairs, so
// that positions and velocities can be expressed as differences
// between adjacent chain members rather than absolute Cartesian
// values. This suppresses round-off when a subset of the bodies is
// much more tightly bound to each other than to the rest of the
// system.
package chain

import (
	"sort"

	"github.com/nbodysim/nbody/vec3"
)

// edge is a candidate link between two bodies, ordered by distance.
type edge struct {
	dist    float64
	i, j    int
	used    bool
}

// Coordinator maintains the index permutation and the chain-pair
// mirrors of a particle store's Cartesian position and velocity.
type Coordinator struct {
	Index []int // idx[0..N-1], chain order
	Pos   []vec3.Vector
	Vel   []vec3.Vector
}

// New allocates a Coordinator for n bodies.
func New(n int) *Coordinator {
	return &Coordinator{
		Index: make([]int, n),
		Pos:   make([]vec3.Vector, n),
		Vel:   make([]vec3.Vector, n),
	}
}

// Build computes the nearest-neighbor chain index for the given
// positions: all pairwise distances are sorted ascending (ties broken
// lexicographically on (i,j) for determinism, which the underlying
// algorithm otherwise leaves undefined), then a path is grown greedily
// by repeatedly appending the shortest unused edge whose one endpoint
// is a current terminus of the path and whose other endpoint has not
// yet been visited.
func Build(pos []vec3.Vector) []int {
	n := len(pos)
	idx := make([]int, n)
	if n <= 1 {
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	edges := make([]edge, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, edge{dist: vec3.Distance(pos[i], pos[j]), i: i, j: j})
		}
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].dist != edges[b].dist {
			return edges[a].dist < edges[b].dist
		}
		if edges[a].i != edges[b].i {
			return edges[a].i < edges[b].i
		}
		return edges[a].j < edges[b].j
	})

	path := make([]int, 0, n)
	visited := make(map[int]bool, n)
	path = append(path, edges[0].i, edges[0].j)
	visited[edges[0].i] = true
	visited[edges[0].j] = true
	edges[0].used = true

	for len(path) < n {
		extended := false
		head, tail := path[0], path[len(path)-1]
		for k := range edges {
			if edges[k].used {
				continue
			}
			e := edges[k]
			switch {
			case e.i == head && !visited[e.j]:
				path = append([]int{e.j}, path...)
			case e.j == head && !visited[e.i]:
				path = append([]int{e.i}, path...)
			case e.i == tail && !visited[e.j]:
				path = append(path, e.j)
			case e.j == tail && !visited[e.i]:
				path = append(path, e.i)
			default:
				continue
			}
			edges[k].used = true
			visited[path[0]] = true
			visited[path[len(path)-1]] = true
			extended = true
			break
		}
		if !extended {
			// No remaining edge connects to a terminus (can only
			// happen with degenerate/duplicate positions); fall back
			// to appending any unvisited body to keep the chain total.
			for b := 0; b < n; b++ {
				if !visited[b] {
					path = append(path, b)
					visited[b] = true
					break
				}
			}
		}
	}
	copy(idx, path)
	return idx
}

// TopologyChanged reports whether newIdx describes a different chain
// than oldIdx, treating a permutation and its reverse as the same
// undirected chain.
func TopologyChanged(oldIdx, newIdx []int) bool {
	if sameSequence(oldIdx, newIdx) {
		return false
	}
	reversed := make([]int, len(oldIdx))
	for i, v := range oldIdx {
		reversed[len(oldIdx)-1-i] = v
	}
	return !sameSequence(reversed, newIdx)
}

func sameSequence(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ToChain computes the chain-pair array from Cartesian positions:
// cp[i] = pos[idx[i+1]] - pos[idx[i]] for i < N-1, and the last slot
// holds pos[idx[0]] so that the mapping back to Cartesian is
// invertible without a separate stored origin.
func ToChain(cartesian []vec3.Vector, idx []int, chainOut []vec3.Vector) {
	n := len(cartesian)
	chainOut[n-1] = cartesian[idx[0]]
	for i := 0; i < n-1; i++ {
		chainOut[i] = cartesian[idx[i+1]].Sub(cartesian[idx[i]])
	}
}

// ToCartesian inverts ToChain exactly: a single forward pass
// accumulates chain differences back into absolute positions.
func ToCartesian(chainIn []vec3.Vector, idx []int, cartesianOut []vec3.Vector) {
	n := len(chainIn)
	cartesianOut[idx[0]] = chainIn[n-1]
	for i := 1; i < n; i++ {
		cartesianOut[idx[i]] = cartesianOut[idx[i-1]].Add(chainIn[i-1])
	}
}

// UpdateChainPos rebuilds the chain-pair array under newIdx from the
// old chain-pair array under oldIdx, without returning to Cartesian
// coordinates: each new segment is the signed sum of the old segments
// it spans, sign +1 if the old order runs old_head->old_tail in the
// same direction as the new edge, -1 otherwise.
func UpdateChainPos(oldChain []vec3.Vector, oldIdx, newIdx []int, newChainOut []vec3.Vector) {
	size := len(oldChain) - 1
	pos := make(map[int]int, len(oldIdx))
	for p, body := range oldIdx {
		pos[body] = p
	}

	head0 := pos[newIdx[0]]
	origin := oldChain[size]
	for i := 0; i < head0; i++ {
		origin = origin.Add(oldChain[i])
	}
	newChainOut[size] = origin

	for i := 0; i < size; i++ {
		headBody, tailBody := newIdx[i], newIdx[i+1]
		oldHead, oldTail := pos[headBody], pos[tailBody]
		var seg vec3.Vector
		if oldHead < oldTail {
			for j := oldHead; j < oldTail; j++ {
				seg = seg.Add(oldChain[j])
			}
		} else {
			for j := oldTail; j < oldHead; j++ {
				seg = seg.Sub(oldChain[j])
			}
		}
		newChainOut[i] = seg
	}
}
