package jaudio

import (
	"math"

	"jaudio/internal/ibnk"
	"jaudio/internal/seq"
	"jaudio/internal/voice"
	"jaudio/internal/wsys"
)

const numVoiceSlots = 7

// instrumentBinding is the result of a track's most recent SetParam
// bank/program selection (§3 "instrument: resolved (bank_id, prog_id,
// SampleInstr)").
type instrumentBinding struct {
	bankID uint32
	progID uint32
	bank   *ibnk.Bank
	wsys   *wsys.Wavesystem
}

// Track is one bytecode program counter and its mixing state, driven
// once per controller tick (§3 "Track", §4.8).
type Track struct {
	TrackID uint8

	pc         uint32
	delayTimer uint32
	callstack  []uint32
	loops      uint32

	volume float32
	pitch  float32
	reverb float32
	pan    float32

	instr instrumentBinding

	voices [numVoiceSlots][]*voice.Note
	notes  []*voice.Note

	slides []*Slide

	seqdata  []byte
	ctrl     *Controller
	finished bool
	err      error // set when the track retired abnormally; nil on a clean TrackEnd
}

// Err reports why a track retired, or nil for a normal TrackEnd.
func (t *Track) Err() error { return t.err }

func newTrack(id uint8, pc uint32, seqdata []byte, ctrl *Controller) *Track {
	return &Track{
		TrackID: id,
		pc:      pc,
		volume:  0,
		pitch:   0,
		reverb:  0,
		pan:     0.5,
		seqdata: seqdata,
		ctrl:    ctrl,
	}
}

// setPerf writes one of the four track-scoped scalars directly,
// mirroring the teacher's original `setPerf` dispatch (§4.8).
func (t *Track) setPerf(typ PerfType, v float32) {
	switch typ {
	case PerfVolume:
		t.volume = v
	case PerfPitch:
		t.pitch = v
	case PerfReverb:
		t.reverb = v
	default:
		t.pan = v
	}
}

func (t *Track) perfValue(typ PerfType) float32 {
	switch typ {
	case PerfVolume:
		return t.volume
	case PerfPitch:
		return t.pitch
	case PerfReverb:
		return t.reverb
	default:
		return t.pan
	}
}

// resolveNote performs the bank/keymap lookup for a NoteOn, folding in
// the instrument-level volume/pitch on top of the region/leaf scaling
// already folded by ibnk.Instrument.Resolve (§4.4, original_source banks.cpp
// "note->volume = inst->volume * info->volume * info->rgn->volume").
func (t *Track) resolveNote(key, vel uint8) (wave *wsys.Wave, osci *ibnk.Osci, volume, pitch float32, isPercussion bool, ok bool) {
	if t.instr.bank == nil || t.instr.wsys == nil {
		return nil, nil, 0, 0, false, false
	}
	if t.instr.progID >= uint32(len(t.instr.bank.Instruments)) {
		return nil, nil, 0, 0, false, false
	}
	inst := t.instr.bank.Instruments[t.instr.progID]
	if inst == nil {
		return nil, nil, 0, 0, false, false
	}
	leaf, ok := inst.Resolve(key, vel)
	if !ok {
		return nil, nil, 0, 0, false, false
	}
	wave = t.instr.wsys.Lookup(wsys.Key{AwID: leaf.AwID, WaveID: leaf.WaveID})
	return wave, &inst.Osci, inst.Volume * leaf.Volume, inst.Pitch * leaf.Pitch, inst.IsPercussion, true
}

// decode runs the command dispatch loop until delay_timer is nonzero
// or the track has nothing left to do this tick (§4.8 step 1).
func (t *Track) decode() {
	for t.delayTimer == 0 && !t.finished {
		cmd, err := seq.Read(t.seqdata, t.pc)
		if err != nil {
			t.ctrl.log.Warn("bad command, retiring track", "track", t.TrackID, "pc", t.pc, "err", err)
			t.err = err
			t.finished = true
			return
		}
		t.pc += uint32(cmd.Size())

		switch c := cmd.(type) {
		case seq.NoteOn:
			t.handleNoteOn(c)
		case seq.VoiceOff:
			t.handleVoiceOff(c)
		case seq.Wait:
			t.delayTimer = uint32(c.Delay)
		case seq.SetPerf:
			t.handleSetPerf(c)
		case seq.SetParam:
			t.handleSetParam(c)
		case seq.OpenTrack:
			t.ctrl.addTrack(c.TrackID, c.Offset, t.seqdata)
		case seq.Jump:
			t.handleJump(c.Call, c.Target)
		case seq.JumpF:
			// Condition byte is treated as always-taken (§9 "JumpF
			// condition byte"); only the branch arity is preserved.
			t.handleJump(c.Call, c.Target)
		case seq.Return:
			t.handleReturn()
		case seq.ReturnF:
			t.handleReturn()
		case seq.Tempo:
			t.ctrl.tempo = c.Value
		case seq.Timebase:
			t.ctrl.timebase = c.Value
		case seq.TrackEnd:
			t.finished = true
		case seq.Ignored:
			// no-op
		default:
			t.finished = true
		}
	}
}

func (t *Track) handleNoteOn(c seq.NoteOn) {
	wave, osci, volume, pitch, isPercussion, ok := t.resolveNote(c.Note, c.Vel)
	if !ok {
		return // VoiceResolveMiss: silent no-op (§7)
	}
	n := t.ctrl.pool.Allocate()
	n.Start(wave, osci, volume, pitch, c.Note, c.Vel, isPercussion, float64(t.ctrl.samplerate))

	slot := c.Voice - 1
	t.voices[slot] = append(t.voices[slot], n)
	t.notes = append(t.notes, n)
}

func (t *Track) handleVoiceOff(c seq.VoiceOff) {
	slot := c.Voice - 1
	for _, n := range t.voices[slot] {
		n.Stop()
	}
	t.voices[slot] = nil
}

func (t *Track) handleSetPerf(c seq.SetPerf) {
	typ := PerfType(c.Type)
	if c.Duration == 0 {
		t.setPerf(typ, c.Value)
		return
	}
	t.slides = append(t.slides, &Slide{
		Type:     typ,
		Start:    t.perfValue(typ),
		End:      c.Value,
		Duration: uint32(c.Duration),
	})
}

func (t *Track) handleSetParam(c seq.SetParam) {
	switch c.Type {
	case seq.ParamBank:
		bankID := uint32(c.Value)
		bank, err := t.ctrl.getBank(bankID)
		if err != nil {
			t.ctrl.log.Warn("bank resolve failed, retiring track", "track", t.TrackID, "bank", bankID, "err", err)
			t.err = err
			t.finished = true
			return
		}
		wsystem, err := t.ctrl.getWavesystem(bank.WsysID)
		if err != nil {
			t.ctrl.log.Warn("wavesystem resolve failed, retiring track", "track", t.TrackID, "err", err)
			t.err = err
			t.finished = true
			return
		}
		t.instr.bankID = bankID
		t.instr.bank = bank
		t.instr.wsys = wsystem
	case seq.ParamProgram:
		t.instr.progID = uint32(c.Value)
	}
}

func (t *Track) handleJump(call bool, target uint32) {
	if call {
		t.callstack = append(t.callstack, t.pc)
		t.pc = target
		return
	}
	t.pc = target
	t.loops++
	if t.ctrl.loopLimit > 0 && t.loops >= uint32(t.ctrl.loopLimit) {
		t.finished = true
	}
}

func (t *Track) handleReturn() {
	if len(t.callstack) == 0 {
		t.ctrl.log.Warn("callstack underflow, retiring track", "track", t.TrackID, "err", ErrCallstackUnderflow)
		t.err = ErrCallstackUnderflow
		t.finished = true
		return
	}
	top := len(t.callstack) - 1
	t.pc = t.callstack[top]
	t.callstack = t.callstack[:top]
}

// advanceSlides applies one tick of every in-flight parameter ramp
// (§4.8 step 2).
func (t *Track) advanceSlides() {
	live := t.slides[:0]
	for _, s := range t.slides {
		value, done := s.step()
		t.setPerf(s.Type, value)
		if !done {
			live = append(live, s)
		}
	}
	t.slides = live
}

// pitchAdj is the semitone-to-ratio calibration the teacher's original
// applies per note each tick (§9 "pitch_adj calibration constant").
func (t *Track) pitchAdj() float32 {
	return float32(math.Pow(2, float64(t.pitch)*6.0/12.0))
}

// tick runs one controller tick for this track: decode, slides, then n
// samples of mixed note output (§4.8).
func (t *Track) tick(n int) ([]float32, error) {
	t.decode()

	t.advanceSlides()

	out := make([]float32, n)
	adj := t.pitchAdj()
	for _, note := range t.notes {
		note.PitchAdj = adj
	}

	for i := 0; i < n; i++ {
		var total float32
		for _, note := range t.notes {
			total += note.Tick()
		}
		out[i] = total * t.volume
	}

	live := t.notes[:0]
	for _, note := range t.notes {
		if !note.Finished() {
			live = append(live, note)
		}
	}
	t.notes = live

	if t.delayTimer > 0 {
		t.delayTimer--
	}

	return out, nil
}

// Finished reports whether this track has retired (TrackEnd, a bad
// command, callstack underflow, or a loop-limit trip) and should be
// dropped by the controller after this tick's samples are mixed.
func (t *Track) Finished() bool { return t.finished }
