package jaudio

// PerfType mirrors seq.PerfType at the track level so track.go does not
// need to import seq just to name a slide target (§3 "Slide").
type PerfType int

const (
	PerfVolume PerfType = iota
	PerfPitch
	PerfReverb
	PerfPan
)

// Slide is an in-flight linear ramp of one of a track's four scalar
// perf parameters (§3, §4.8).
type Slide struct {
	Type     PerfType
	Start    float32
	End      float32
	Duration uint32 // ticks
	T        uint32
}

// step advances the slide by one tick and reports the value to apply
// this tick, and whether the slide is now finished and should be
// dropped (§4.8 step 2).
func (s *Slide) step() (value float32, done bool) {
	if s.T >= s.Duration {
		return s.End, true
	}
	value = s.Start + (s.End-s.Start)*(float32(s.T)/float32(s.Duration))
	s.T++
	return value, false
}
