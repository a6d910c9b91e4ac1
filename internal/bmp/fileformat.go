// BMP-specific structs, field offsets and errors
package bmp

import (
	"encoding/binary"
	"errors"
	"strconv"
)

const (
	FileHeaderLen = 14
	InfoHeaderLen = 40
	HeaderLen     = FileHeaderLen + InfoHeaderLen // Minimum size of a 24-bit BMP header

	BytesPerPixel = 3

	offPixelArray = 10 // uint32: offset to the pixel array
	offWidth      = 18 // int32: width in pixels
	offHeight     = 22 // int32: height in pixels
	offBitCount   = 28 // uint16: bits per pixel
	offCompress   = 30 // uint32: compression method

	minHeaderView = offHeight + 4
)

// The BitmapFileHeader structure contains information about the type, size,
// and layout of a file that contains a DIB [device-independent bitmap].
// https://learn.microsoft.com/en-us/windows/win32/api/wingdi/ns-wingdi-bitmapfileheader

type BitmapFileHeader struct {
	Type      [2]byte // The file type: must be 0x4d42 (ASCII string "BM").
	Size      uint32  // The size, in bytes, of the bitmap file.
	Reserved1 uint16  // Reserved; must be zero.
	Reserved2 uint16  // Reserved; must be zero.
	OffBits   uint32  // Bitmap File Offset (In bytes) to Pixel Arrays
}

// The BitmapInfoHeader structure contains information about the
// dimensions and color format of DIB [device-independent bitmap].

type BitmapInfoHeader struct {
	Size            uint32 // The number of bytes required by the structure.
	Width           int32  // The width of the bitmap, in pixels.
	Height          int32  // The height of the bitmap, in pixels
	Planes          uint16 // The number of planes for the target device.
	BitCount        uint16 // The number of bits-per-pixel.
	Compression     uint32 // The type of compression
	SizeImage       uint32 // The size of the image (in bytes).
	XPixelsPerM     int32  // The horizontal resolution, in pixels-per-meter.
	YPixelsPerM     int32  // The vertical resolution, in pixels-per-meter.
	ColorsUsed      uint32 // Number of color indexes that are actually used by bitmap.
	ColorsImportant uint32 // Number of color indexes required for displaying the bitmap.
}

// HeaderView is the part of the header needed to locate the pixel array.
// It is decoded from the buffer, the buffer itself is never copied.
type HeaderView struct {
	PixelArrayOffset uint32
	Width            int32
	Height           int32
}

// FormatError reports that the input is not a usable BMP.
type FormatError string

func (e FormatError) Error() string { return "bmp: invalid format: " + string(e) }

// UnsupportedError reports that the input uses a valid BMP feature this
// filter does not handle (compression, palettes, other bit depths).
type UnsupportedError string

func (e UnsupportedError) Error() string { return "bmp: unsupported feature: " + string(e) }

// ErrPixelBounds is returned when the header points the pixel array
// outside of the buffer.
var ErrPixelBounds = errors.New("bmp: pixel array out of bounds")

// ReadHeader decodes the pixel array offset, width and height from their
// fixed little-endian offsets (10, 18 and 22).
func ReadHeader(buf []byte) (HeaderView, error) {
	if len(buf) < minHeaderView {
		return HeaderView{}, FormatError("header truncated at " + strconv.Itoa(len(buf)) + " bytes")
	}

	return HeaderView{
		PixelArrayOffset: binary.LittleEndian.Uint32(buf[offPixelArray:]),
		Width:            int32(binary.LittleEndian.Uint32(buf[offWidth:])),
		Height:           int32(binary.LittleEndian.Uint32(buf[offHeight:])),
	}, nil
}

// validate runs the checks of the Strict policy.
func validate(buf []byte, h HeaderView) error {
	if len(buf) < HeaderLen {
		return FormatError("file shorter than " + strconv.Itoa(HeaderLen) + " bytes")
	}
	if buf[0] != 'B' || buf[1] != 'M' {
		return FormatError("missing BM signature")
	}
	if bpp := binary.LittleEndian.Uint16(buf[offBitCount:]); bpp != 24 {
		return UnsupportedError("bit count " + strconv.Itoa(int(bpp)))
	}
	if c := binary.LittleEndian.Uint32(buf[offCompress:]); c != 0 {
		return UnsupportedError("compression " + strconv.Itoa(int(c)))
	}
	if h.Width < 0 {
		return FormatError("negative width")
	}

	size := int64(len(buf))
	off := int64(h.PixelArrayOffset)
	if off > size {
		return FormatError("pixel array offset " + strconv.FormatInt(off, 10) +
			" past file size " + strconv.Itoa(len(buf)))
	}

	// Compared by division, rows*stride overflows for huge dimensions
	rows := int64(h.Height)
	if rows < 0 {
		rows = -rows
	}
	stride := int64(RowStride(int(h.Width)))
	if stride > 0 && rows > (size-off)/stride {
		return FormatError(strconv.FormatInt(rows, 10) + " rows of " + strconv.FormatInt(stride, 10) +
			" bytes do not fit in file size " + strconv.Itoa(len(buf)))
	}

	return nil
}
