// Package envelope evaluates the per-sample programmable attack/release
// envelope used by every voice, per spec §4.5.
package envelope

import (
	"math"

	"jaudio/internal/ibnk"
)

// Status is the coarse state of an Envelope, used by the voice to
// decide whether to keep rendering (§4.5).
type Status int

const (
	StatusEmpty Status = iota
	StatusFinished
	StatusHold
	StatusActive
)

// Envelope is the runtime state for one voice's attack/release pair
// (§3 "Envelope runtime").
type Envelope struct {
	osci *ibnk.Osci

	pos      float64 // ms since segment start
	currEnv  int     // index into the active sequence
	lastEnv  ibnk.Envp
	release  bool
	forceOff bool
	lastVal  float64
	holdVal  float64

	inc float64 // 1000/samplerate
}

// New returns an Envelope bound to osci (which may be nil for a
// wave/instrument with no oscillator data) at the given sample rate.
func New(osci *ibnk.Osci, samplerate float64) *Envelope {
	e := &Envelope{osci: osci}
	if samplerate > 0 {
		e.inc = 1000.0 / samplerate
	}
	e.lastEnv = ibnk.Envp{Mode: 0xFF, Time: 0, Value: 0}
	return e
}

func (e *Envelope) activeSeq() []ibnk.Envp {
	if e.osci == nil {
		return nil
	}
	if e.release {
		return e.osci.ReleaseEnv
	}
	return e.osci.AttackEnv
}

// Status reports the current coarse envelope state per §4.5.
func (e *Envelope) Status() Status {
	switch {
	case e.osci == nil || (len(e.osci.AttackEnv) == 0 && len(e.osci.ReleaseEnv) == 0):
		return StatusEmpty
	case e.forceOff:
		return StatusFinished
	}

	seq := e.activeSeq()
	if e.currEnv >= len(seq) {
		return StatusFinished
	}
	switch seq[e.currEnv].Mode {
	case ibnk.ModeStop:
		return StatusFinished
	case ibnk.ModeHold:
		return StatusHold
	default:
		return StatusActive
	}
}

// ForceOff hard-stops the envelope, bypassing any remaining segments
// (used by Note.StopNow, §4.6).
func (e *Envelope) ForceOff() {
	e.forceOff = true
}

// BeginRelease switches the envelope into its release sequence,
// snapshotting the last attack value as the release starting point
// (§4.5).
func (e *Envelope) BeginRelease() {
	e.release = true
	e.pos = 0
	e.currEnv = 0
	e.holdVal = e.lastVal
	e.lastEnv = ibnk.Envp{Mode: 0xFF, Time: 0, Value: 0}
}

// Tick advances the envelope by one sample and returns its current
// output value in [-1, 1] (§4.5).
func (e *Envelope) Tick() float64 {
	if e.osci == nil {
		return 0
	}

	seq := e.activeSeq()
	if len(seq) == 0 {
		return 0
	}
	if e.currEnv >= len(seq) {
		return e.lastVal
	}

	for e.currEnv < len(seq) && e.pos >= float64(seq[e.currEnv].Time) {
		e.lastEnv = seq[e.currEnv]
		e.currEnv++
	}

	var value float64
	switch {
	case e.currEnv >= len(seq):
		value = e.lastVal
	default:
		cur := seq[e.currEnv]
		dt := float64(cur.Time) - float64(e.lastEnv.Time)
		t := e.pos - float64(e.lastEnv.Time)

		y := float64(e.lastEnv.Value) / 32767.0
		if e.lastEnv.Mode == 0xFF {
			y = e.holdVal
		}
		dy := float64(cur.Value)/32767.0 - y

		switch cur.Mode {
		case ibnk.ModeLinear:
			value = y + dy*ratio(t, dt)
		case ibnk.ModeSquare:
			r := ratio(t, dt)
			value = y + dy*r*r
		case ibnk.ModeRoot:
			value = y + dy*math.Sqrt(math.Max(0, ratio(t, dt)))
		case ibnk.ModeDirect:
			value = y + dy
		case ibnk.ModeHold:
			value = y
		case ibnk.ModeLoop:
			// Undefined per §9 "Envelope LOOP mode" — emitting 0 is the
			// documented placeholder until this is reverse-engineered.
			value = 0
		default:
			value = 0
		}
	}

	e.pos += e.inc
	e.lastVal = value
	return value
}

func ratio(t, dt float64) float64 {
	if dt == 0 {
		return 1
	}
	return t / dt
}
