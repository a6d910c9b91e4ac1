package bmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"testing"

	encbmp "github.com/sergeymakinen/go-bmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xbmp "golang.org/x/image/bmp"
)

func TestRowStride(t *testing.T) {
	tests := []struct {
		width, stride, padding int
	}{
		{0, 0, 0},
		{1, 4, 1},
		{2, 8, 2},
		{3, 12, 3},
		{4, 12, 0},
		{5, 16, 1},
		{640, 1920, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.stride, RowStride(tt.width), "width %d", tt.width)
		assert.Equal(t, tt.padding, RowPadding(tt.width), "width %d", tt.width)
	}

	for w := 0; w < 2048; w++ {
		s := RowStride(w)
		require.Zero(t, s%4, "width %d", w)
		require.GreaterOrEqual(t, s-w*3, 0, "width %d", w)
		require.Less(t, s-w*3, 4, "width %d", w)
	}
}

func TestReadHeader(t *testing.T) {
	b, err := CreateBitmap(3, 2)
	require.NoError(t, err)

	h, err := ReadHeader(b.Data)
	require.NoError(t, err)
	assert.Equal(t, HeaderView{PixelArrayOffset: 54, Width: 3, Height: 2}, h)
	assert.Len(t, b.Data, 54+2*12)
}

func TestReadHeaderTruncated(t *testing.T) {
	_, err := ReadHeader(make([]byte, 25))
	var fe FormatError
	require.ErrorAs(t, err, &fe)

	_, err = ReadHeader(make([]byte, 26))
	require.NoError(t, err)
}

func TestReadHeaderNegativeHeight(t *testing.T) {
	b, err := CreateBitmap(2, 2)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(b.Data[22:], uint32(0xfffffffe)) // -2

	h, err := ReadHeader(b.Data)
	require.NoError(t, err)
	assert.Equal(t, int32(-2), h.Height)
}

func TestCreateBitmapInvalid(t *testing.T) {
	_, err := CreateBitmap(0, 1)
	require.Error(t, err)
	_, err = CreateBitmap(1, -1)
	require.Error(t, err)
}

func TestCreateBitmapDecodes(t *testing.T) {
	b, err := CreateBitmap(5, 3)
	require.NoError(t, err)

	cfg, err := xbmp.DecodeConfig(bytes.NewReader(b.Data))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Width)
	assert.Equal(t, 3, cfg.Height)
}

func TestParseStrictRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(buf []byte) []byte
		wantFmt bool // FormatError, otherwise UnsupportedError
	}{
		{"short", func(buf []byte) []byte { return buf[:40] }, true},
		{"signature", func(buf []byte) []byte { buf[0] = 'X'; return buf }, true},
		{"bit count", func(buf []byte) []byte { binary.LittleEndian.PutUint16(buf[28:], 32); return buf }, false},
		{"compression", func(buf []byte) []byte { binary.LittleEndian.PutUint32(buf[30:], 1); return buf }, false},
		{"negative width", func(buf []byte) []byte { binary.LittleEndian.PutUint32(buf[18:], uint32(0xffffffff)); return buf }, true},
		{"offset past end", func(buf []byte) []byte { binary.LittleEndian.PutUint32(buf[10:], 1000); return buf }, true},
		{"truncated pixels", func(buf []byte) []byte { return buf[:len(buf)-1] }, true},
		{"overflowing dimensions", func(buf []byte) []byte {
			binary.LittleEndian.PutUint32(buf[18:], 0x7fffffff)
			binary.LittleEndian.PutUint32(buf[22:], 0x7fffffff)
			return buf
		}, true},
		{"overflowing top-down height", func(buf []byte) []byte {
			binary.LittleEndian.PutUint32(buf[18:], 0x7fffffff)
			binary.LittleEndian.PutUint32(buf[22:], 0x80000000)
			return buf
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := CreateBitmap(3, 2)
			require.NoError(t, err)
			buf := tt.mutate(b.Data)
			orig := bytes.Clone(buf)

			_, err = Parse(buf, Strict)
			require.Error(t, err)
			var fe FormatError
			var ue UnsupportedError
			if tt.wantFmt {
				assert.ErrorAs(t, err, &fe)
			} else {
				assert.ErrorAs(t, err, &ue)
			}
			assert.Equal(t, orig, buf)
		})
	}
}

func TestParseTrustAcceptsBadHeader(t *testing.T) {
	b, err := CreateBitmap(3, 2)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(b.Data[10:], 1000)

	parsed, err := Parse(b.Data, Trust)
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), parsed.Header.PixelArrayOffset)
	assert.Panics(t, func() { parsed.Pixel(0, 0) })
}

func TestRows(t *testing.T) {
	b, err := CreateBitmap(2, 3)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(b.Data[22:], uint32(0xfffffffd)) // -3

	trusted, err := Parse(b.Data, Trust)
	require.NoError(t, err)
	assert.Equal(t, 0, trusted.Rows())

	strict, err := Parse(b.Data, Strict)
	require.NoError(t, err)
	assert.Equal(t, 3, strict.Rows())
}

func TestPixel(t *testing.T) {
	b, err := CreateBitmap(2, 2) // stride 8
	require.NoError(t, err)

	copy(b.Pixel(1, 1), []byte{1, 2, 3})
	assert.Equal(t, []byte{1, 2, 3}, b.Data[54+8+3:54+8+6])

	p := b.Pixel(0, 1)
	assert.Len(t, p, 3)
	assert.Equal(t, 3, cap(p))
}

func TestParseThirdPartyEncoding(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, color.RGBA{R: uint8(10 * x), G: uint8(20 * y), B: 200, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, encbmp.Encode(&buf, img))

	b, err := Parse(buf.Bytes(), Strict)
	require.NoError(t, err)
	assert.Equal(t, HeaderView{PixelArrayOffset: 54, Width: 3, Height: 2}, b.Header)
	assert.Equal(t, 12, b.Stride)

	// Storage row 0 is the bottom image row, pixels are BGR
	assert.Equal(t, []byte{200, 20, 20}, b.Pixel(0, 2))
	assert.Equal(t, []byte{200, 0, 0}, b.Pixel(1, 0))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, Strict, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Trust, p)

	_, err = ParsePolicy("lenient")
	require.Error(t, err)
}

func TestPrintMetadata(t *testing.T) {
	b, err := CreateBitmap(1, 1)
	require.NoError(t, err)

	var lines []string
	b.PrintMetadata(func(format string, args ...any) {
		lines = append(lines, format)
	})
	assert.Len(t, lines, 8)
}

func TestErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(FormatError("x"), ErrPixelBounds))
	assert.Equal(t, "bmp: invalid format: x", FormatError("x").Error())
	assert.Equal(t, "bmp: unsupported feature: y", UnsupportedError("y").Error())
}

func TestParseStrictHugeDimensionsSmallFile(t *testing.T) {
	b, err := CreateBitmap(1, 1)
	require.NoError(t, err)
	require.Len(t, b.Data, 58)
	binary.LittleEndian.PutUint32(b.Data[18:], 0x7fffffff)
	binary.LittleEndian.PutUint32(b.Data[22:], 0x7fffffff)

	_, err = Parse(b.Data, Strict)
	var fe FormatError
	require.ErrorAs(t, err, &fe)
}

func TestParseStrictZeroWidth(t *testing.T) {
	b, err := CreateBitmap(1, 1)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(b.Data[18:], 0)

	parsed, err := Parse(b.Data, Strict)
	require.NoError(t, err)
	assert.Equal(t, 0, parsed.Stride)
}
