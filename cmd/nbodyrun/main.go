// Command nbodyrun is a thin CLI wrapper around package nbody: load a
// YAML config and an initial-condition file, run the driver to
// completion, and write a CSV trajectory file. Flag-driven like
// ChristopherRabotin-smd's cmd/od, which loads a scenario file named
// by -scenario rather than taking structured flags for every field.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/nbodysim/nbody/icfile"
	"github.com/nbodysim/nbody/nbody"
	"github.com/nbodysim/nbody/system"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML driver config file")
		icPath     = flag.String("ic", "", "path to an initial-condition text file")
		outPath    = flag.String("out", "trajectory.csv", "path to write the CSV trajectory")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *configPath == "" || *icPath == "" {
		fmt.Fprintln(os.Stderr, "nbodyrun: -config and -ic are required")
		flag.Usage()
		os.Exit(2)
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	if err := run(*configPath, *icPath, *outPath, log); err != nil {
		log.Error().Err(err).Msg("nbodyrun failed")
		os.Exit(1)
	}
}

func run(configPath, icPath, outPath string, log zerolog.Logger) error {
	cfg, err := nbody.LoadConfig(configPath)
	if err != nil {
		return err
	}

	icf, err := os.Open(icPath)
	if err != nil {
		return err
	}
	defer icf.Close()

	_, bodies, err := icfile.Load(icf)
	if err != nil {
		return err
	}
	particles, err := icfile.ToParticles(bodies)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	traj := nbody.NewTrajectoryLogger(out)

	sink := func(t float64, sys *system.System, energyErr float64) {
		pos := make([][3]float64, sys.Particles.N())
		vel := make([][3]float64, sys.Particles.N())
		for i := range pos {
			pos[i] = [3]float64{sys.Particles.Pos[i].X, sys.Particles.Pos[i].Y, sys.Particles.Pos[i].Z}
			vel[i] = [3]float64{sys.Particles.Vel[i].X, sys.Particles.Vel[i].Y, sys.Particles.Vel[i].Z}
		}
		traj.Log(t, energyErr, pos, vel)
	}

	d, err := nbody.NewDriver(cfg, particles, log, sink)
	if err != nil {
		return err
	}
	if err := d.Run(); err != nil {
		return err
	}
	return traj.Flush()
}
