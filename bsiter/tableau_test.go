package bsiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableauPerRowBookkeeping(t *testing.T) {
	tb := NewTableau(4)
	assert.Equal(t, 2, tb.NSub[0])
	assert.Equal(t, 16, tb.NSub[7])
	assert.InDelta(t, 1.0, tb.Alpha[0], 1e-15)
	assert.InDelta(t, 1.0/15.0, tb.Alpha[7], 1e-15)
	assert.InDelta(t, 2.0, tb.Cost[0], 1e-15)
}

func TestExtrapolateMatchesHandComputedValue(t *testing.T) {
	tb := NewTableau(1)
	// Row 0: raw value 10 (n_0=2)
	tb.Cell(0, 0)[0] = 10
	// Row 1: raw value 9 (n_1=4)
	tb.Cell(1, 0)[0] = 9
	tb.ExtrapolateRow(1)

	ratio := float64(tb.NSub[1]) / float64(tb.NSub[0]) // 2
	want := 9 + (9-10)/(ratio*ratio-1)
	assert.InDelta(t, want, tb.Cell(1, 1)[0], 1e-15)
}

func TestExtrapolateRowFillsAllColumns(t *testing.T) {
	tb := NewTableau(1)
	for r := 0; r < 3; r++ {
		tb.Cell(r, 0)[0] = float64(10 - r)
		tb.ExtrapolateRow(r)
	}
	// every column up to r must have been written (non-zero-by-construction
	// check: column r of row 2 differs from the raw column-0 value).
	assert.NotEqual(t, tb.Cell(2, 0)[0], tb.Cell(2, 2)[0])
}
