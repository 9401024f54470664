// Package voice implements playback state for a single note: pitch,
// envelope, fractional sample position, and loop handling, per spec §3
// and §4.6. It also provides the reusable voice pool described in §4.9
// and §5.
package voice

import (
	"math"

	"jaudio/internal/envelope"
	"jaudio/internal/freqtable"
	"jaudio/internal/ibnk"
	"jaudio/internal/wsys"
)

// Note owns the playback state of a single voice (§3).
type Note struct {
	Wave         *wsys.Wave
	Volume       float32 // product of instrument/region/leaf volume
	Pitch        float32 // product of instrument/region/leaf pitch
	Key          uint8
	Vel          uint8
	IsPercussion bool
	VolumeAdj    float32
	PitchAdj     float32

	position float64
	playing  bool
	finished bool

	env *envelope.Envelope

	outputRate float64
}

// Start (re)initializes a pooled Note for a new NoteOn (§4.6 states:
// "idle -> playing").
func (n *Note) Start(wave *wsys.Wave, osci *ibnk.Osci, volume, pitch float32, key, vel uint8, isPercussion bool, outputRate float64) {
	n.Wave = wave
	n.Volume = volume
	n.Pitch = pitch
	n.Key = key
	n.Vel = vel
	n.IsPercussion = isPercussion
	n.VolumeAdj = 1
	n.PitchAdj = 1
	n.position = 0
	n.playing = true
	n.finished = false
	n.outputRate = outputRate

	n.env = envelope.New(osci, outputRate)
}

// Stop begins the release phase; the envelope continues to run through
// its release segments until it reports StatusFinished (§4.6 states:
// "playing -> releasing").
func (n *Note) Stop() {
	if n.env != nil {
		n.env.BeginRelease()
	}
}

// StopNow hard-kills the voice, bypassing the envelope (§4.6, §5
// "Cancellation").
func (n *Note) StopNow() {
	if n.env != nil {
		n.env.ForceOff()
	}
	n.playing = false
	n.finished = true
}

// Reset forces the voice back to idle so the pool can recycle it
// (§4.6).
func (n *Note) Reset() {
	*n = Note{}
}

// Playing reports whether the voice is still producing audio.
func (n *Note) Playing() bool { return n.playing }

// Finished reports whether the voice is done and eligible for reuse.
func (n *Note) Finished() bool { return n.finished }

// looped implements the §4.6 wrap helper: values past the loop window
// wrap back into [a, b).
func looped(p, a, b float64) float64 {
	if p >= b-1 {
		span := b - a - 1
		if span <= 0 {
			return a
		}
		m := math.Mod(p-a, span)
		if m < 0 {
			m += span
		}
		return m + a
	}
	return p
}

// Tick renders one output sample and advances playback state (§4.6).
func (n *Note) Tick() float32 {
	if !n.playing || n.Wave == nil {
		n.finished = true
		return 0
	}

	envValue := float32(0)
	if n.env != nil {
		envValue = float32(n.env.Tick())
		if n.env.Status() == envelope.StatusFinished {
			n.playing = false
			n.finished = true
			return 0
		}
	}

	wave := n.Wave
	if !wave.Loop && n.position >= float64(wave.LoopEnd) {
		n.playing = false
		n.finished = true
		return 0
	}

	tickDelta := float64(wave.SampleRate) / n.outputRate * float64(n.Pitch) * float64(n.PitchAdj)
	if !n.IsPercussion {
		tickDelta *= freqtable.Of(int(n.Key)) / freqtable.Of(int(wave.BaseKey))
	}

	v := float32(n.Vel) / 127.0
	level := envValue * n.Volume * n.Volume * v * n.VolumeAdj

	sample := n.interpolate(wave)

	n.position += tickDelta
	return sample * level
}

func (n *Note) interpolate(wave *wsys.Wave) float32 {
	if len(wave.Data) == 0 {
		return 0
	}

	a := float64(wave.LoopStart) + 1
	b := float64(wave.LoopEnd)
	startPos := looped(n.position, a, b)

	s := int(startPos)
	e := int(looped(startPos+1, a, b))
	if s < 0 || s >= len(wave.Data) {
		return 0
	}
	if e < 0 || e >= len(wave.Data) {
		e = s
	}
	frac := float32(startPos - float64(s))
	return wave.Data[s] + (wave.Data[e]-wave.Data[s])*frac
}

// Pool recycles Note records across all tracks, as described in §3
// ("the voice pool owns all Note records") and §5 ("reuse any finished
// voice or append a new one").
type Pool struct {
	notes []*Note
}

// NewPool returns an empty voice pool.
func NewPool() *Pool {
	return &Pool{}
}

// Allocate returns a Note ready for Start, reusing a finished slot when
// one is available.
func (p *Pool) Allocate() *Note {
	for _, n := range p.notes {
		if n.Finished() {
			n.Reset()
			return n
		}
	}
	n := &Note{}
	p.notes = append(p.notes, n)
	return n
}

// Len reports the number of notes ever allocated by this pool
// (finished or not), used by tests and diagnostics.
func (p *Pool) Len() int { return len(p.notes) }
