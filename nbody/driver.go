package nbody

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nbodysim/nbody/bsiter"
	"github.com/nbodysim/nbody/system"
)

// Sink is invoked at each output-cadence logging point with the
// current time, a read-only view of the system, and the value of
// System.EnergyError: the fractional energy error since construction
// for a regularized system, or the total energy KE+PE when the
// regularization kind is none.
type Sink func(t float64, sys *system.System, energyErr float64)

// Driver owns the BS iterator and drives it from t0 to Config.EndTime,
// invoking Sink every Config.OutputCadence time units, following the
// teacher's Simulation.Begin() loop shape: verify config up front,
// then loop on a running predicate, advancing and logging each pass.
type Driver struct {
	Config Config
	Sys    *system.System
	iter   *bsiter.Iterator
	log    zerolog.Logger
	sink   Sink
}

// NewDriver validates cfg, builds the configured force and system
// around p, and returns a ready-to-run Driver.
func NewDriver(cfg Config, p *system.Particles, log zerolog.Logger, sink Sink) (*Driver, error) {
	if err := verifyConfig(cfg); err != nil {
		return nil, err
	}
	f, err := buildForce(cfg)
	if err != nil {
		return nil, err
	}
	kind, err := regularizationKind(cfg.Regularize)
	if err != nil {
		return nil, err
	}
	sys, err := system.New(p, f, kind, cfg.UseChain)
	if err != nil {
		return nil, errors.Wrap(err, "nbody: NewDriver")
	}
	return &Driver{
		Config: cfg,
		Sys:    sys,
		iter:   bsiter.NewIterator(sys, cfg.AbsTol, cfg.RelTol),
		log:    log,
		sink:   sink,
	}, nil
}

// Run drives the system from its current time to Config.EndTime,
// calling Sink at each output-cadence crossing and returning the
// first fault bsiter.Iterate reports, if any. A successful return
// means EndTime was reached.
func (d *Driver) Run() error {
	h := d.Config.InitialStep
	nextOutput := d.Sys.Particles.Time.Value + d.Config.OutputCadence

	d.log.Info().Float64("end_time", d.Config.EndTime).Float64("initial_step", h).Msg("driver starting")

	for d.Sys.Particles.Time.Value < d.Config.EndTime {
		next, err := d.iter.Iterate(h)
		if err != nil || next <= 0 {
			d.log.Error().Err(err).Float64("t", d.Sys.Particles.Time.Value).Msg("macro step faulted")
			if err == nil {
				err = errors.New("nbody: iterate returned a non-finite step")
			}
			return errors.Wrap(err, "nbody: Driver.Run")
		}
		h = next

		if d.Sys.Particles.Time.Value >= nextOutput {
			energyErr, eerr := d.Sys.EnergyError()
			if eerr != nil {
				d.log.Warn().Err(eerr).Msg("energy error unavailable at logging point")
			}
			if d.sink != nil {
				d.sink(d.Sys.Particles.Time.Value, d.Sys, energyErr)
			}
			d.log.Debug().
				Float64("t", d.Sys.Particles.Time.Value).
				Float64("h", h).
				Float64("energy_err", energyErr).
				Float64("reject_rate", d.iter.RejectRate).
				Msg("logging point")
			nextOutput += d.Config.OutputCadence
		}
	}

	d.log.Info().Float64("t", d.Sys.Particles.Time.Value).Msg("driver reached end time")
	return nil
}
