// Package binreader provides big-endian primitive decoding over a byte
// slice, the shared foundation used by the AAF, WSYS, IBNK and sequence
// bytecode readers in this module. The wave codecs read their samples
// with encoding/binary directly.
package binreader

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrUnexpectedEOF is returned when a read would run past the end of the
// underlying buffer.
var ErrUnexpectedEOF = errors.New("binreader: unexpected eof")

// Reader reads big-endian primitives from a fixed byte slice, tracking
// its own cursor. All format parsers in this module (§4.1) build on it
// instead of hand-rolling offset arithmetic.
type Reader struct {
	data []byte
	pos  int
}

// New returns a Reader positioned at the start of data.
func New(data []byte) *Reader {
	return &Reader{data: data}
}

// NewAt returns a Reader positioned at the given offset.
func NewAt(data []byte, offset int) *Reader {
	return &Reader{data: data, pos: offset}
}

// Pos returns the current cursor position.
func (r *Reader) Pos() int { return r.pos }

// Seek repositions the cursor to an absolute offset.
func (r *Reader) Seek(offset int) { r.pos = offset }

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) { r.pos += n }

// Len returns the number of bytes remaining in the buffer.
func (r *Reader) Len() int { return len(r.data) - r.pos }

// Bytes returns the underlying buffer.
func (r *Reader) Bytes() []byte { return r.data }

func (r *Reader) require(n int) error {
	if r.pos < 0 || r.pos+n > len(r.data) {
		return ErrUnexpectedEOF
	}
	return nil
}

// U8 reads an unsigned byte.
func (r *Reader) U8() (byte, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// I8 reads a signed byte.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// U16 reads a big-endian uint16.
func (r *Reader) U16() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// I16 reads a big-endian int16.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// U24 reads a big-endian 24-bit unsigned integer (used by jump targets).
func (r *Reader) U24() (uint32, error) {
	if err := r.require(3); err != nil {
		return 0, err
	}
	v := uint32(r.data[r.pos])<<16 | uint32(r.data[r.pos+1])<<8 | uint32(r.data[r.pos+2])
	r.pos += 3
	return v, nil
}

// U32 reads a big-endian uint32.
func (r *Reader) U32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// I32 reads a big-endian int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// F32 reads a big-endian IEEE-754 32-bit float.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Take reads n raw bytes.
func (r *Reader) Take(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

// FixedString reads an n-byte field and returns it as a string truncated
// at the first NUL byte, matching the null-terminated ASCII fields used
// throughout AAF/WSYS/IBNK.
func (r *Reader) FixedString(n int) (string, error) {
	b, err := r.Take(n)
	if err != nil {
		return "", err
	}
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), nil
		}
	}
	return string(b), nil
}

// Magic reads len(want) bytes and reports whether they match want.
func (r *Reader) Magic(want string) (bool, error) {
	b, err := r.Take(len(want))
	if err != nil {
		return false, err
	}
	return string(b) == want, nil
}

// U32At peeks a big-endian uint32 at an absolute offset without moving
// the cursor, used to look ahead at embedded ids (e.g. the WSYS wsys_id
// inside a chunk payload, §4.2).
func U32At(data []byte, offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(data) {
		return 0, ErrUnexpectedEOF
	}
	return binary.BigEndian.Uint32(data[offset:]), nil
}
