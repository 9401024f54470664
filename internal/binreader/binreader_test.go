package binreader

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_PrimitivesBigEndian(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A}
	r := New(data)

	u8, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), u8)

	u16, err := r.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0203), u16)

	u24, err := r.U24()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x040506), u24)

	u32, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0708090A), u32)
}

func TestReader_F32(t *testing.T) {
	var buf [4]byte
	v := math.Float32bits(3.5)
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)

	r := New(buf[:])
	f, err := r.F32()
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), f)
}

func TestReader_UnexpectedEOF(t *testing.T) {
	r := New([]byte{0x01})
	_, err := r.U32()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestReader_FixedStringTruncatesAtNUL(t *testing.T) {
	data := append([]byte("hello"), make([]byte, 11)...)
	r := New(data)
	s, err := r.FixedString(16)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestReader_Magic(t *testing.T) {
	r := New([]byte("WSYS"))
	ok, err := r.Magic("WSYS")
	require.NoError(t, err)
	assert.True(t, ok)

	r2 := New([]byte("XXXX"))
	ok, err = r2.Magic("WSYS")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReader_SeekAndSkip(t *testing.T) {
	r := New([]byte{0, 1, 2, 3, 4, 5})
	r.Seek(2)
	assert.Equal(t, 2, r.Pos())
	r.Skip(2)
	assert.Equal(t, 4, r.Pos())
	b, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, byte(4), b)
}

func TestU32At_ReadsAtAbsoluteOffset(t *testing.T) {
	data := []byte{0, 0, 0, 0, 0x11, 0x22, 0x33, 0x44}
	v, err := U32At(data, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x11223344), v)
}
