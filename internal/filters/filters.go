// Filters perform per-pixel color manipulation on a bitmap, in place
package filters

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/anas-shakeel/go-bmp-filter/internal/bmp"
	"github.com/anas-shakeel/go-bmp-filter/internal/utils"
)

const (
	ThresholdValue = 128
	White          = 0xff
	Black          = 0x00
)

// Mode selects the per-pixel filter.
type Mode int

const (
	Threshold Mode = iota
	Grayscale
)

func (m Mode) String() string {
	switch m {
	case Threshold:
		return "threshold"
	case Grayscale:
		return "grayscale"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) pixelFunc() (func(p []byte), error) {
	switch m {
	case Threshold:
		return ThresholdPixel, nil
	case Grayscale:
		return GrayscalePixel, nil
	}
	return nil, fmt.Errorf("filters: unknown mode %v", m)
}

// Tracer observes every pixel before it is filtered. With more than one
// worker it is called concurrently.
type Tracer func(row, col int, blue, green, red, avg byte)

type options struct {
	workers int
	tracer  Tracer
}

type Option func(*options)

// WithWorkers spreads rows over n goroutines. n <= 1 runs sequentially.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

func WithTracer(t Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// Returns the truncated mean of the three channels
func AverageIntensity(blue, green, red byte) byte {
	return utils.Average(blue, green, red)
}

func setPixelToColor(p []byte, color byte) {
	p[0], p[1], p[2] = color, color, color
}

// Sets every channel of a BGR pixel to its average
func GrayscalePixel(p []byte) {
	setPixelToColor(p, AverageIntensity(p[0], p[1], p[2]))
}

// Turns a BGR pixel white if its average reaches ThresholdValue, black otherwise
func ThresholdPixel(p []byte) {
	if AverageIntensity(p[0], p[1], p[2]) >= ThresholdValue {
		setPixelToColor(p, White)
	} else {
		setPixelToColor(p, Black)
	}
}

// Converts a bitmap to shades of gray
func ToGrayscale(b *bmp.Bitmap, opts ...Option) error {
	return Apply(b, Grayscale, opts...)
}

// Converts a bitmap to pure Black-and-White
func ToThreshold(b *bmp.Bitmap, opts ...Option) error {
	return Apply(b, Threshold, opts...)
}

// Apply runs the filter for mode over every pixel of b, row by row in
// storage order. Row padding is never touched.
func Apply(b *bmp.Bitmap, mode Mode, opts ...Option) error {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	fn, err := mode.pixelFunc()
	if err != nil {
		return err
	}

	rows := b.Rows()
	if o.workers <= 1 || rows < 2 {
		return applyRows(b, 0, rows, fn, o.tracer)
	}

	// Contiguous chunks, one per worker
	workers := min(o.workers, rows)
	chunk := (rows + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < rows; start += chunk {
		end := min(start+chunk, rows)
		g.Go(func() error {
			return applyRows(b, start, end, fn, o.tracer)
		})
	}
	return g.Wait()
}

// applyRows filters rows [start, end). A bounds fault from a header that
// points past the buffer is returned as bmp.ErrPixelBounds.
func applyRows(b *bmp.Bitmap, start, end int, fn func(p []byte), trace Tracer) (err error) {
	row := start
	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(runtime.Error)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("row %d: %w (%v)", row, bmp.ErrPixelBounds, re)
		}
	}()

	width := b.Width()
	for ; row < end; row++ {
		for col := 0; col < width; col++ {
			p := b.Pixel(row, col)
			if trace != nil {
				trace(row, col, p[0], p[1], p[2], AverageIntensity(p[0], p[1], p[2]))
			}
			fn(p)
		}
	}

	return nil
}
