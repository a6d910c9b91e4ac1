// Package stream loads a whole bitmap into memory and writes it back out.
//
// Every failure is wrapped around one of the sentinel errors below so the
// caller can tell the failing step apart with errors.Is.
package stream

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrSeek  = errors.New("seek input")
	ErrRead  = errors.New("read input")
	ErrAlloc = errors.New("allocate buffer")
	ErrWrite = errors.New("write output")
)

// Load reads all of r. Regular files are sized by seeking to their end and
// read in one piece; pipes and other readers are read until EOF. Inputs
// larger than maxBytes fail with ErrAlloc (maxBytes <= 0 means no limit).
func Load(r io.Reader, maxBytes int64) ([]byte, error) {
	if f, ok := r.(*os.File); ok {
		if fi, err := f.Stat(); err == nil && fi.Mode().IsRegular() {
			return loadSeekable(f, maxBytes)
		}
	}

	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	if maxBytes > 0 && int64(len(buf)) > maxBytes {
		return nil, fmt.Errorf("%w: input exceeds %d bytes", ErrAlloc, maxBytes)
	}
	return buf, nil
}

func loadSeekable(rs io.ReadSeeker, maxBytes int64) ([]byte, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSeek, err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSeek, err)
	}

	buf, err := allocate(size, maxBytes)
	if err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(rs, buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return buf, nil
}

func allocate(size, maxBytes int64) (buf []byte, err error) {
	if maxBytes > 0 && size > maxBytes {
		return nil, fmt.Errorf("%w: input of %d bytes exceeds %d", ErrAlloc, size, maxBytes)
	}

	// makeslice panics on lengths the runtime cannot satisfy
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("%w: %d bytes: %v", ErrAlloc, size, r)
		}
	}()
	return make([]byte, size), nil
}

// Emit writes buf to w in full.
func Emit(w io.Writer, buf []byte) error {
	n, err := w.Write(buf)
	if err == nil && n != len(buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return fmt.Errorf("%w: %d of %d bytes: %w", ErrWrite, n, len(buf), err)
	}
	return nil
}
