package jaudio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrack_Wait(t *testing.T) {
	seqdata := []byte{0x80, 0x02, 0xFF} // wait 2, then track end
	c := NewController(nil, nil, nil, 48000, seqdata)
	tr := c.tracks[0]

	samples, err := tr.tick(10)
	require.NoError(t, err)
	assert.Len(t, samples, 10)
	assert.Equal(t, uint32(1), tr.delayTimer)
	assert.False(t, tr.Finished())

	_, err = tr.tick(10)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), tr.delayTimer)
	assert.False(t, tr.Finished(), "delay_timer reaching zero doesn't re-enter decode until the next tick")
}

func TestTrack_SlideWithoutDuration(t *testing.T) {
	seqdata := []byte{0x94, 0x00, 0x7F, 0xFF} // volume = 127/127 = 1.0, no duration
	c := NewController(nil, nil, nil, 48000, seqdata)
	tr := c.tracks[0]
	tr.tick(10)
	assert.InDelta(t, 1.0, tr.volume, 1e-6)
}

func TestTrack_SlideWithDuration(t *testing.T) {
	// perf type 0 (volume), u8 value 0x80, duration 8 ticks, followed by
	// a long wait so the track stays alive while the slide runs.
	seqdata := []byte{0x96, 0x00, 0x80, 0x08, 0x88, 0x00, 0xC8}
	c := NewController(nil, nil, nil, 48000, seqdata)
	tr := c.tracks[0]
	require.Equal(t, float32(0), tr.volume) // default track volume before first tick

	// first tick decodes the SetPerf, enqueues the slide, and applies
	// the t=0 ratio (value 0).
	tr.tick(10)
	require.Len(t, tr.slides, 1)
	assert.InDelta(t, 0.0, tr.volume, 1e-6)

	// four more ticks bring the ramp to t=4/8, the spec's worked
	// example of value ~0.504.
	for i := 0; i < 4; i++ {
		tr.tick(10)
	}
	assert.InDelta(t, 0.504, tr.volume, 0.01)

	// four more ticks (t=8) complete the ramp at the target value.
	for i := 0; i < 4; i++ {
		tr.tick(10)
	}
	assert.InDelta(t, 128.0/127.0, tr.volume, 1e-4)
	assert.Len(t, tr.slides, 0, "slide is dropped once it completes")
}

func TestTrack_CallAndReturn(t *testing.T) {
	// C3 00 00 05 : call -> target 5
	// C5          : return, at offset 5
	// FF          : track end, at the instruction after the call (offset 4)
	seqdata := []byte{0xC3, 0x00, 0x00, 0x05, 0xFF, 0xC5}
	c := NewController(nil, nil, nil, 48000, seqdata)
	tr := c.tracks[0]

	_, err := tr.tick(10)
	require.NoError(t, err)
	assert.True(t, tr.Finished(), "call jumps to offset 5 (Return), which pops back to offset 4 (TrackEnd)")
}

func TestTrack_VoiceOffClearsSlot(t *testing.T) {
	seqdata := []byte{0x81, 0xFF} // VoiceOff(voice 1), track end
	c := NewController(nil, nil, nil, 48000, seqdata)
	tr := c.tracks[0]
	_, err := tr.tick(10)
	require.NoError(t, err)
	assert.Empty(t, tr.voices[0])
}
