// Package otosink implements jaudio.Sink over github.com/hajimehoshi/oto/v2,
// grounded in the oto.NewContext/ctx.NewPlayer pattern used by
// aaliyan1230-midi-mixer's audio engine. oto's player pulls bytes
// through an io.Reader, so the sink bridges the controller's push-style
// Write calls through an io.Pipe into the player.
package otosink

import (
	"encoding/binary"
	"fmt"
	"io"

	"jaudio"

	"github.com/hajimehoshi/oto/v2"
)

const (
	channelCount = 2
	bitDepth     = 2 // bytes per sample, 16-bit PCM
)

// Sink streams interleaved stereo float32 frames to the system audio
// device in real time.
type Sink struct {
	ctx    *oto.Context
	player oto.Player
	pw     *io.PipeWriter
	buf    []byte
}

// New opens an oto playback context at samplerate and starts a player
// reading from an internal pipe.
func New(samplerate int) (*Sink, error) {
	ctx, ready, err := oto.NewContext(samplerate, channelCount, bitDepth)
	if err != nil {
		return nil, fmt.Errorf("jaudio: otosink: new context: %w", err)
	}
	<-ready

	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.Play()

	return &Sink{ctx: ctx, player: player, pw: pw}, nil
}

// Write blocks until the player has consumed frames, encoded as
// interleaved little-endian 16-bit PCM.
func (s *Sink) Write(frames []float32) error {
	s.buf = s.buf[:0]
	for _, f := range frames {
		v := jaudio.Int16FromFloat(f)
		s.buf = binary.LittleEndian.AppendUint16(s.buf, uint16(v))
	}
	_, err := s.pw.Write(s.buf)
	if err != nil {
		return fmt.Errorf("jaudio: otosink: write: %w", err)
	}
	return nil
}

// Close closes the pipe feeding the player and then the player itself.
// The oto context stays open.
func (s *Sink) Close() error {
	if err := s.pw.Close(); err != nil {
		return fmt.Errorf("jaudio: otosink: close pipe: %w", err)
	}
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("jaudio: otosink: close player: %w", err)
	}
	return nil
}
