package nbody

import (
	"fmt"
	"io"
	"strings"
)

// TrajectoryLogger accumulates one CSV line per logging point and
// writes them to Output in one shot when the run finishes, mirroring
// the teacher's Logger (accumulate into a strings.Builder, flush once)
// rather than writing a line per call — useful when Output is a file
// and the run may abort partway through a macro step.
type TrajectoryLogger struct {
	Output io.Writer
	buff   strings.Builder
	wrote  bool
}

// NewTrajectoryLogger wraps w, writing a CSV header on the first Log call.
func NewTrajectoryLogger(w io.Writer) *TrajectoryLogger {
	return &TrajectoryLogger{Output: w}
}

// Log appends one CSV row: time, energy error, then each body's
// position and velocity components in order.
func (l *TrajectoryLogger) Log(t, energyErr float64, pos, vel [][3]float64) {
	if !l.wrote {
		l.buff.WriteString("t,energy_err")
		for i := range pos {
			fmt.Fprintf(&l.buff, ",x%d,y%d,z%d,vx%d,vy%d,vz%d", i, i, i, i, i, i)
		}
		l.buff.WriteString("\n")
		l.wrote = true
	}
	fmt.Fprintf(&l.buff, "%g,%g", t, energyErr)
	for i := range pos {
		p, v := pos[i], vel[i]
		fmt.Fprintf(&l.buff, ",%g,%g,%g,%g,%g,%g", p[0], p[1], p[2], v[0], v[1], v[2])
	}
	l.buff.WriteString("\n")
}

// Flush writes the accumulated buffer to Output and resets it.
func (l *TrajectoryLogger) Flush() error {
	_, err := l.Output.Write([]byte(l.buff.String()))
	l.buff.Reset()
	return err
}
