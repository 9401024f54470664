package pcmsink

import (
	"bytes"
	"encoding/binary"
	"testing"

	"jaudio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seekBuf struct {
	bytes.Buffer
	pos int64
}

func (s *seekBuf) Write(p []byte) (int, error) {
	if s.pos < int64(s.Buffer.Len()) {
		b := s.Buffer.Bytes()
		n := copy(b[s.pos:], p)
		s.pos += int64(n)
		if n < len(p) {
			s.Buffer.Write(p[n:])
			s.pos += int64(len(p) - n)
		}
		return len(p), nil
	}
	n, err := s.Buffer.Write(p)
	s.pos += int64(n)
	return n, err
}

func (s *seekBuf) Seek(offset int64, whence int) (int64, error) {
	s.pos = offset
	return s.pos, nil
}

func TestPCMSink_WritesValidHeader(t *testing.T) {
	buf := &seekBuf{}
	s, err := New(buf, 48000)
	require.NoError(t, err)

	require.NoError(t, s.Write([]float32{0.5, -0.5, 1, -1}))
	require.NoError(t, s.Close())

	out := buf.Bytes()
	require.Len(t, out, 44+8)
	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.Equal(t, "WAVEfmt ", string(out[8:16]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(out[22:24]), "stereo")
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(out[24:28]))
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(out[40:44]), "data chunk size matches bytes written")
}

func TestInt16FromFloat_Clips(t *testing.T) {
	assert.Equal(t, int16(32767), jaudio.Int16FromFloat(2.0))
	assert.Equal(t, int16(-32768), jaudio.Int16FromFloat(-2.0))
}
