// Package trace prints optional debug output to stderr. Nothing is printed
// unless a level above zero is configured.
package trace

import (
	"io"
	"log"

	"github.com/anas-shakeel/go-bmp-filter/internal/filters"
)

const (
	Off = iota
	Header
	Pixels
)

type Logger struct {
	level int
	log   *log.Logger
}

// New returns a Logger writing to w at the given level.
func New(w io.Writer, level int) *Logger {
	return &Logger{
		level: level,
		log:   log.New(w, "bmpfilter: ", 0),
	}
}

// Debugf prints at level Header and above.
func (l *Logger) Debugf(format string, args ...any) {
	if l.level >= Header {
		l.log.Printf(format, args...)
	}
}

// PixelTracer returns a filters.Tracer when per-pixel output is on, nil otherwise.
func (l *Logger) PixelTracer() filters.Tracer {
	if l.level < Pixels {
		return nil
	}
	return func(row, col int, blue, green, red, avg byte) {
		l.log.Printf("Average Intensity at (%d, %d) for %d, %d, %d is: %d", row, col, blue, green, red, avg)
	}
}
