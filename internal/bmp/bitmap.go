// bmp package gives indexed access to the pixels of a 24-bit bitmap held in memory
package bmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Policy decides how much a header is trusted before pixels are touched.
type Policy int

const (
	// Trust reads the header as-is and only fails when a pixel access
	// actually falls outside the buffer.
	Trust Policy = iota
	// Strict validates the header and pixel array extent before filtering.
	Strict
)

func (p Policy) String() string {
	switch p {
	case Trust:
		return "trust"
	case Strict:
		return "strict"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps "trust" or "strict" (any case) to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trust", "":
		return Trust, nil
	case "strict":
		return Strict, nil
	}
	return Trust, fmt.Errorf("unknown header policy %q: must be trust or strict", s)
}

// Bitmap is a whole BMP file kept verbatim. Filters mutate Data in place.
type Bitmap struct {
	Data   []byte
	Header HeaderView
	Policy Policy
	Stride int // Total bytes in a row (incl. padding)
}

// Returns the bytes needed to pad a row of width pixels to a multiple of 4
func RowPadding(width int) int {
	return (4 - (width*BytesPerPixel)%4) % 4
}

// Returns the row length in bytes (incl. padding) for width pixels
func RowStride(width int) int {
	return width*BytesPerPixel + RowPadding(width)
}

// Parse interprets buf as a bitmap without copying it.
func Parse(buf []byte, policy Policy) (*Bitmap, error) {
	h, err := ReadHeader(buf)
	if err != nil {
		return nil, err
	}

	if policy == Strict {
		if err := validate(buf, h); err != nil {
			return nil, err
		}
	}

	return &Bitmap{
		Data:   buf,
		Header: h,
		Policy: policy,
		Stride: RowStride(int(h.Width)),
	}, nil
}

// Width returns the image width in pixels.
func (b *Bitmap) Width() int {
	return int(b.Header.Width)
}

// Rows returns how many rows are filtered. A trusted negative height
// yields no rows; under Strict it is a top-down bitmap of |height| rows.
func (b *Bitmap) Rows() int {
	h := int(b.Header.Height)
	if h < 0 {
		if b.Policy == Strict {
			return -h
		}
		return 0
	}
	return h
}

// Pixel returns the 3 BGR bytes of pixel col in storage row row.
// It panics if the pixel lies outside Data.
func (b *Bitmap) Pixel(row, col int) []byte {
	i := int(b.Header.PixelArrayOffset) + row*b.Stride + col*BytesPerPixel
	return b.Data[i : i+BytesPerPixel : i+BytesPerPixel]
}

// Creates and returns a zeroed bitmap (24 bit uncompressed)
func CreateBitmap(width, height int) (*Bitmap, error) {
	if width <= 0 {
		return nil, errors.New("width must be greater than 0")
	} else if height <= 0 {
		return nil, errors.New("height must be greater than 0")
	}

	stride := RowStride(width)
	biSizeImage := uint32(stride * height)
	fileSize := HeaderLen + biSizeImage // Size of the whole bitmap file

	bfh := BitmapFileHeader{Type: [2]byte{0x42, 0x4d}, OffBits: HeaderLen, Size: fileSize}
	bih := BitmapInfoHeader{Size: InfoHeaderLen, Width: int32(width), Height: int32(height), Planes: 1, BitCount: 24, SizeImage: biSizeImage}

	var buf bytes.Buffer
	buf.Grow(int(fileSize))
	if err := binary.Write(&buf, binary.LittleEndian, bfh); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, bih); err != nil {
		return nil, err
	}
	buf.Write(make([]byte, biSizeImage))

	return Parse(buf.Bytes(), Strict)
}

// Prints the bitmap metadata in human-readable format through printf
func (b *Bitmap) PrintMetadata(printf func(format string, args ...any)) {
	printf("Filesize: \t%v bytes", len(b.Data))
	printf("Width: \t\t%v px", b.Header.Width)
	printf("Height: \t%v px", b.Header.Height)
	printf("PixelOffset: \t%v bytes", b.Header.PixelArrayOffset)
	printf("Rows: \t\t%v", b.Rows())
	printf("Stride: \t%v bytes", b.Stride)
	printf("Padding: \t%v bytes", RowPadding(b.Width()))
	printf("Policy: \t%v", b.Policy)
}
