package icfile_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbodysim/nbody/icfile"
)

const sample = `# 2 0.0
0 star 1.0 0.01 -0.001 0 0 0 -0.001 0
1 planet 0.001 0.001 0.999 0 0 0 1.0 0
`

func TestLoadParsesHeaderAndBodies(t *testing.T) {
	hdr, bodies, err := icfile.Load(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, 2, hdr.N)
	assert.Equal(t, 0.0, hdr.T0)
	require.Len(t, bodies, 2)
	assert.Equal(t, "star", bodies[0].Type)
	assert.Equal(t, 1.0, bodies[0].Mass)
	assert.Equal(t, 1.0, bodies[1].Vel.Y)
}

func TestLoadRejectsBodyCountMismatch(t *testing.T) {
	bad := "# 3 0.0\n0 star 1.0 0.01 0 0 0 0 0 0\n"
	_, _, err := icfile.Load(strings.NewReader(bad))
	require.Error(t, err)
}

func TestLoadRejectsMissingHeader(t *testing.T) {
	_, _, err := icfile.Load(strings.NewReader("0 star 1.0 0.01 0 0 0 0 0 0\n"))
	require.Error(t, err)
}

func TestLoadRejectsMalformedBodyLine(t *testing.T) {
	bad := "# 1 0.0\n0 star 1.0 0.01 0 0 0 0 0\n"
	_, _, err := icfile.Load(strings.NewReader(bad))
	require.Error(t, err)
}

func TestToParticlesBuildsValidSystemParticles(t *testing.T) {
	_, bodies, err := icfile.Load(strings.NewReader(sample))
	require.NoError(t, err)
	p, err := icfile.ToParticles(bodies)
	require.NoError(t, err)
	assert.Equal(t, 2, p.N())
}
