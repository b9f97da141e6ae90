package system_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbodysim/nbody/system"
	"github.com/nbodysim/nbody/vec3"
)

func twoBody() (*system.Particles, error) {
	mass := []float64{1.0, 1.0}
	pos := []vec3.Vector{{X: -1}, {X: 1}}
	vel := []vec3.Vector{{Y: -0.5}, {Y: 0.5}}
	id := []int{0, 1}
	return system.NewParticles(mass, pos, vel, id)
}

func TestNewParticlesRejectsTooFewBodies(t *testing.T) {
	_, err := system.NewParticles([]float64{1}, []vec3.Vector{{}}, []vec3.Vector{{}}, []int{0})
	require.Error(t, err)
}

func TestNewParticlesRejectsNonPositiveMass(t *testing.T) {
	_, err := system.NewParticles([]float64{1, 0}, []vec3.Vector{{}, {}}, []vec3.Vector{{}, {}}, []int{0, 1})
	require.Error(t, err)
}

func TestNewParticlesRejectsDuplicateID(t *testing.T) {
	_, err := system.NewParticles([]float64{1, 1}, []vec3.Vector{{}, {X: 1}}, []vec3.Vector{{}, {}}, []int{0, 0})
	require.Error(t, err)
}

func TestKineticEnergy(t *testing.T) {
	p, err := twoBody()
	require.NoError(t, err)
	want := 0.5*1*0.25 + 0.5*1*0.25
	assert.InDelta(t, want, p.KineticEnergy(), 1e-15)
}

func TestProjectToCOMZeroesComPosAndVel(t *testing.T) {
	p, err := twoBody()
	require.NoError(t, err)
	p.ProjectToCOM()

	var comPos, comVel vec3.Vector
	for i, m := range p.Mass {
		vec3.AddScaled(&comPos, m, p.Pos[i])
		vec3.AddScaled(&comVel, m, p.Vel[i])
	}
	assert.InDelta(t, 0, comPos.Norm(), 1e-14)
	assert.InDelta(t, 0, comVel.Norm(), 1e-14)
}

func TestCloneIsIndependent(t *testing.T) {
	p, err := twoBody()
	require.NoError(t, err)
	c := p.Clone()
	c.Pos[0].X = 999
	c.Time.Add(5)
	assert.NotEqual(t, p.Pos[0].X, c.Pos[0].X)
	assert.NotEqual(t, p.Time.Value, c.Time.Value)
}

func TestSyncAuxVelMatchesVel(t *testing.T) {
	p, err := twoBody()
	require.NoError(t, err)
	p.Vel[0].X = 3.14
	p.SyncAuxVel()
	assert.Equal(t, p.Vel, p.AuxVel)
}
