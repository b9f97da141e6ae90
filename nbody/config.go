// Package nbody is the driver loop: it owns end-time/output-cadence
// bookkeeping, loads a Config through viper, and calls into bsiter on
// the caller's behalf, logging progress and invoking a sink at each
// logging point.
package nbody

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/nbodysim/nbody/force"
	"github.com/nbodysim/nbody/regularize"
)

// ForceKind selects the interaction law the driver wires up. The
// actual law catalog (Newtonian, post-Newtonian) is out of the core's
// scope per the specification's external-collaborator boundary; the
// driver only needs to name one.
type ForceKind string

const (
	ForceNewtonian      ForceKind = "newtonian"
	ForcePostNewtonian1 ForceKind = "post_newtonian_1pn"
)

// Config mirrors the driver's external config struct: end time,
// initial step, output cadence, tolerances, and which force/
// regularization to use. Loadable from YAML via viper, following the
// teacher's godesim.Config / niceyeti-tabular's viper-backed config
// loading style.
type Config struct {
	EndTime       float64   `yaml:"end_time" mapstructure:"end_time"`
	InitialStep   float64   `yaml:"initial_step" mapstructure:"initial_step"`
	OutputCadence float64   `yaml:"output_cadence" mapstructure:"output_cadence"`
	AbsTol        float64   `yaml:"atol" mapstructure:"atol"`
	RelTol        float64   `yaml:"rtol" mapstructure:"rtol"`
	ForceKind     ForceKind `yaml:"force_kind" mapstructure:"force_kind"`
	Regularize    string    `yaml:"regularization_kind" mapstructure:"regularization_kind"`
	UseChain      bool      `yaml:"use_chain" mapstructure:"use_chain"`
	LightSpeed    float64   `yaml:"light_speed" mapstructure:"light_speed"`
	Softening     float64   `yaml:"softening" mapstructure:"softening"`
}

// LoadConfig reads a YAML config file via viper and decodes it into a
// Config, following niceyeti-tabular's viper.New()+SetConfigFile+
// ReadInConfig+Unmarshal pattern rather than viper's package-level
// globals (the teacher's own Config is a plain struct set once; viper
// here exists to parse the file, not to act as a live global registry).
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "nbody: LoadConfig: read")
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "nbody: LoadConfig: unmarshal")
	}
	if err := verifyConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func verifyConfig(cfg Config) error {
	if cfg.EndTime <= 0 {
		return errors.New("nbody: config: end_time must be positive")
	}
	if cfg.InitialStep <= 0 {
		return errors.New("nbody: config: initial_step must be positive")
	}
	if cfg.OutputCadence <= 0 {
		return errors.New("nbody: config: output_cadence must be positive")
	}
	if cfg.AbsTol <= 0 || cfg.RelTol <= 0 {
		return errors.New("nbody: config: atol/rtol must be positive")
	}
	switch cfg.ForceKind {
	case ForceNewtonian, ForcePostNewtonian1:
	default:
		return errors.Errorf("nbody: config: unknown force_kind %q", cfg.ForceKind)
	}
	if _, err := regularizationKind(cfg.Regularize); err != nil {
		return err
	}
	return nil
}

func regularizationKind(s string) (regularize.Kind, error) {
	switch s {
	case "none", "":
		return regularize.None, nil
	case "logH":
		return regularize.LogH, nil
	case "ttl":
		return regularize.TTL, nil
	default:
		return 0, errors.Errorf("nbody: config: unknown regularization_kind %q", s)
	}
}

// buildForce constructs the system.Force named by the config.
func buildForce(cfg Config) (force.Sum, error) {
	switch cfg.ForceKind {
	case ForceNewtonian:
		return force.Sum{force.Newtonian{Softening: cfg.Softening}}, nil
	case ForcePostNewtonian1:
		c := cfg.LightSpeed
		if c == 0 {
			c = 1e4
		}
		return force.Sum{
			force.Newtonian{Softening: cfg.Softening},
			force.PostNewtonian1PN{LightSpeed: c},
		}, nil
	default:
		return nil, errors.Errorf("nbody: unknown force_kind %q", cfg.ForceKind)
	}
}
