// Package pcmsink implements jaudio.Sink as a streaming stereo WAV
// writer, grounded in the teacher's own wavHeader (kelindar-ultima-sdk
// wav.go), adapted here to patch the header's size fields on Close
// instead of building the whole payload in memory first.
package pcmsink

import (
	"fmt"
	"io"

	"jaudio"
)

const (
	channels      = uint16(2)
	bitsPerSample = uint16(16)
)

// Sink writes interleaved stereo float32 frames to w as 16-bit PCM WAV.
// w must also implement io.Seeker so Close can patch the RIFF and data
// chunk sizes once the final length is known.
type Sink struct {
	w          io.WriteSeeker
	samplerate uint32
	dataLen    uint32
	buf        []byte
}

// New writes a placeholder 44-byte WAV header to w and returns a Sink
// ready to stream interleaved stereo frames at samplerate.
func New(w io.WriteSeeker, samplerate uint32) (*Sink, error) {
	if _, err := w.Write(wavHeader(samplerate, 0)); err != nil {
		return nil, fmt.Errorf("jaudio: pcmsink: write header: %w", err)
	}
	return &Sink{w: w, samplerate: samplerate}, nil
}

// Write appends one tick's worth of interleaved [L,R,L,R,...] samples.
func (s *Sink) Write(frames []float32) error {
	s.buf = s.buf[:0]
	for _, f := range frames {
		v := jaudio.Int16FromFloat(f)
		s.buf = append(s.buf, byte(v), byte(uint16(v)>>8))
	}
	if _, err := s.w.Write(s.buf); err != nil {
		return fmt.Errorf("jaudio: pcmsink: write: %w", err)
	}
	s.dataLen += uint32(len(s.buf))
	return nil
}

// Close rewrites the WAV header now that the final data length is
// known.
func (s *Sink) Close() error {
	if _, err := s.w.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("jaudio: pcmsink: seek: %w", err)
	}
	if _, err := s.w.Write(wavHeader(s.samplerate, s.dataLen)); err != nil {
		return fmt.Errorf("jaudio: pcmsink: rewrite header: %w", err)
	}
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// wavHeader returns a standard 44-byte PCM WAV header for stereo,
// 16-bit audio at samplerate (kelindar-ultima-sdk wav.go, generalized
// from its hardcoded mono/22050Hz layout to stereo at an arbitrary
// rate).
func wavHeader(samplerate uint32, dataLen uint32) []byte {
	blockAlign := channels * bitsPerSample / 8
	byteRate := samplerate * uint32(blockAlign)
	chunkSize := 36 + dataLen

	header := make([]byte, 44)
	copy(header[0:], []byte("RIFF"))
	header[4] = byte(chunkSize)
	header[5] = byte(chunkSize >> 8)
	header[6] = byte(chunkSize >> 16)
	header[7] = byte(chunkSize >> 24)
	copy(header[8:], []byte("WAVEfmt "))
	header[16] = 16 // Subchunk1Size for PCM
	header[20] = 1  // AudioFormat PCM
	header[22] = byte(channels)
	header[24] = byte(samplerate)
	header[25] = byte(samplerate >> 8)
	header[26] = byte(samplerate >> 16)
	header[27] = byte(samplerate >> 24)
	header[28] = byte(byteRate)
	header[29] = byte(byteRate >> 8)
	header[30] = byte(byteRate >> 16)
	header[31] = byte(byteRate >> 24)
	header[32] = byte(blockAlign)
	header[33] = byte(blockAlign >> 8)
	header[34] = byte(bitsPerSample)
	header[35] = byte(bitsPerSample >> 8)
	copy(header[36:], []byte("data"))
	header[40] = byte(dataLen)
	header[41] = byte(dataLen >> 8)
	header[42] = byte(dataLen >> 16)
	header[43] = byte(dataLen >> 24)
	return header
}
