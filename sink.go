package jaudio

// Sink is the push interface the controller drives once per tick with
// one interleaved stereo frame buffer (§6 "Output sink"). Implementors
// own buffering/throttling; Write may block.
type Sink interface {
	// Write receives interleaved [L0, R0, L1, R1, ...] float samples in
	// [-1, 1] for one tick's worth of audio.
	Write(frames []float32) error

	// Close releases any resources the sink holds.
	Close() error
}

// Int16FromFloat scales and clips a float sample in [-1, 1] to the
// canonical signed-16-bit external representation (§6).
func Int16FromFloat(f float32) int16 {
	v := f * 32767
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(v)
	}
}

// Interleave combines equal-length left/right buffers into one
// interleaved stereo frame buffer, as the controller hands to a Sink
// each tick (§4.9 step 5).
func Interleave(left, right []float32) []float32 {
	out := make([]float32, 2*len(left))
	for i := range left {
		out[2*i] = left[i]
		out[2*i+1] = right[i]
	}
	return out
}
