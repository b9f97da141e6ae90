package kahan_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbodysim/nbody/kahan"
)

func TestAddRecoversPrecisionLostToNaiveSum(t *testing.T) {
	var naive float64
	var comp kahan.Sum
	const n = 100000
	const delta = 1.0
	naive = 1e16
	comp.Set(1e16)
	for i := 0; i < n; i++ {
		naive += delta
		comp.Add(delta)
	}
	want := 1e16 + n*delta
	require.Less(t, math.Abs(comp.Value-want), math.Abs(naive-want),
		"compensated sum should be strictly closer to the exact result than naive summation")
}

func TestSubIsAddOfNegation(t *testing.T) {
	a, b := kahan.New(5), kahan.New(5)
	a.Add(-3.25)
	b.Sub(3.25)
	assert.Equal(t, a, b)
}

func TestSetClearsCompensation(t *testing.T) {
	var s kahan.Sum
	s.Add(1e16)
	s.Add(1)
	s.Set(2)
	assert.Equal(t, kahan.New(2), s)
}

func TestScaleClearsCompensation(t *testing.T) {
	var s kahan.Sum
	s.Add(1e16)
	s.Add(1)
	s.Scale(2)
	assert.Equal(t, kahan.New((1e16+1)*2), s)
}

func TestCloneIsIndependent(t *testing.T) {
	var s kahan.Sum
	s.Add(1)
	c := s.Clone()
	s.Add(1)
	assert.Equal(t, 1.0, c.Value)
	assert.Equal(t, 2.0, s.Value)
}
