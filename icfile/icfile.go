// Package icfile loads the initial-condition text format into
// system.Particles: a "# N t0" header line followed by N body lines
// of "id type mass radius px py pz vx vy vz". Units are the caller's
// concern; this package only parses and validates shape, the way the
// teacher's SetX0FromMap takes an already-typed map rather than doing
// any unit conversion itself.
package icfile

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nbodysim/nbody/system"
	"github.com/nbodysim/nbody/vec3"
)

// Body is one parsed initial-condition line. Type and Radius are
// carried through for callers that want them (e.g. collision
// detection in a future extension) but are not consumed by the core.
type Body struct {
	ID     int
	Type   string
	Mass   float64
	Radius float64
	Pos    vec3.Vector
	Vel    vec3.Vector
}

// Header is the parsed "# N t0" line: body count and initial time.
type Header struct {
	N  int
	T0 float64
}

// Load reads the initial-condition text format from r and returns the
// header plus every parsed body, in file order. Comment lines (those
// starting with '#' other than the header) and blank lines are
// skipped.
func Load(r io.Reader) (Header, []Body, error) {
	sc := bufio.NewScanner(r)
	var hdr Header
	var haveHeader bool
	var bodies []Body

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !haveHeader {
			h, err := parseHeader(line)
			if err != nil {
				return Header{}, nil, err
			}
			hdr = h
			haveHeader = true
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		b, err := parseBody(line)
		if err != nil {
			return Header{}, nil, err
		}
		bodies = append(bodies, b)
	}
	if err := sc.Err(); err != nil {
		return Header{}, nil, errors.Wrap(err, "icfile: scan")
	}
	if !haveHeader {
		return Header{}, nil, errors.New("icfile: missing \"# N t0\" header line")
	}
	if len(bodies) != hdr.N {
		return Header{}, nil, errors.Errorf("icfile: header declares %d bodies, found %d", hdr.N, len(bodies))
	}
	return hdr, bodies, nil
}

func parseHeader(line string) (Header, error) {
	fields := strings.Fields(strings.TrimPrefix(line, "#"))
	if len(fields) != 2 {
		return Header{}, errors.Errorf("icfile: malformed header %q, want \"# N t0\"", line)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return Header{}, errors.Wrapf(err, "icfile: header body count %q", fields[0])
	}
	t0, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Header{}, errors.Wrapf(err, "icfile: header t0 %q", fields[1])
	}
	return Header{N: n, T0: t0}, nil
}

func parseBody(line string) (Body, error) {
	fields := strings.Fields(line)
	if len(fields) != 10 {
		return Body{}, errors.Errorf("icfile: malformed body line %q, want 10 fields", line)
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return Body{}, errors.Wrapf(err, "icfile: body id %q", fields[0])
	}
	nums := make([]float64, 8)
	for i, f := range fields[2:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Body{}, errors.Wrapf(err, "icfile: body field %q", f)
		}
		nums[i] = v
	}
	return Body{
		ID:     id,
		Type:   fields[1],
		Mass:   nums[0],
		Radius: nums[1],
		Pos:    vec3.Vector{X: nums[2], Y: nums[3], Z: nums[4]},
		Vel:    vec3.Vector{X: nums[5], Y: nums[6], Z: nums[7]},
	}, nil
}

// ToParticles converts parsed bodies into a system.Particles, in
// file order.
func ToParticles(bodies []Body) (*system.Particles, error) {
	mass := make([]float64, len(bodies))
	pos := make([]vec3.Vector, len(bodies))
	vel := make([]vec3.Vector, len(bodies))
	ids := make([]int, len(bodies))
	for i, b := range bodies {
		mass[i] = b.Mass
		pos[i] = b.Pos
		vel[i] = b.Vel
		ids[i] = b.ID
	}
	return system.NewParticles(mass, pos, vel, ids)
}
