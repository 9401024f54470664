package jaudio

import (
	"fmt"
	"log/slog"
	"math"

	"jaudio/internal/aaf"
	"jaudio/internal/ibnk"
	"jaudio/internal/voice"
	"jaudio/internal/wsys"
)

// rootTrackID is the synthetic track the controller spawns at
// construction (§4.9 "Initial track").
const rootTrackID = 255

// Controller owns the track list, the shared voice pool, and the bank
// and wavesystem caches, and drives one mixed stereo tick at a time
// (§3 "Controller", §4.9).
type Controller struct {
	archive *aaf.Archive
	aw      wsys.AWSource
	sink    Sink
	log     *slog.Logger

	tracks    []*Track
	newTracks []*Track
	oldTracks []*Track

	tempo      uint16
	timebase   uint16
	samplerate float32
	tickCount  uint64
	samples    uint64
	loopLimit  int32
	volume     float32

	pool *voice.Pool

	banks    map[uint32]*ibnk.Bank
	wsystems map[uint32]*wsys.Wavesystem
}

// Option configures a Controller at construction time, mirroring the
// teacher's internal/mul and internal/uop functional-options pattern.
type Option func(*Controller)

// WithSampleRate overrides the output rate passed to NewController.
func WithSampleRate(hz float32) Option {
	return func(c *Controller) { c.samplerate = hz }
}

// WithLoopLimit bounds how many times a non-call Jump may loop before a
// track retires itself (0 means unbounded, §3 "loop_limit").
func WithLoopLimit(n int32) Option {
	return func(c *Controller) { c.loopLimit = n }
}

// WithLogger overrides the controller's structured logger (nil-safe: a
// nil logger keeps the default, which discards every record).
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log.With("component", "controller")
		}
	}
}

// WithMasterVolume scales every track's contribution during mixing.
func WithMasterVolume(v float32) Option {
	return func(c *Controller) { c.volume = v }
}

// NewController opens a controller over archive, reading wave payloads
// through aw, and spawns the root track (id=255, pc=0) per §4.9.
func NewController(archive *aaf.Archive, aw wsys.AWSource, sink Sink, samplerate float32, seqdata []byte, opts ...Option) *Controller {
	c := &Controller{
		archive:    archive,
		aw:         aw,
		sink:       sink,
		log:        DiscardLogger().With("component", "controller"),
		tempo:      120,
		timebase:   48,
		samplerate: samplerate,
		loopLimit:  0,
		volume:     1,
		pool:       voice.NewPool(),
		banks:      map[uint32]*ibnk.Bank{},
		wsystems:   map[uint32]*wsys.Wavesystem{},
	}
	for _, opt := range opts {
		opt(c)
	}
	root := newTrack(rootTrackID, 0, seqdata, c)
	c.tracks = append(c.tracks, root)
	return c
}

// SamplesPerTick implements §4.9's tempo/timebase-derived tick length.
func (c *Controller) SamplesPerTick() int {
	if c.tempo == 0 || c.timebase == 0 {
		return 0
	}
	return int(math.Floor(float64(c.samplerate) * 60 / (float64(c.tempo) * float64(c.timebase))))
}

// addTrack stages a new track to appear at the head of the next tick
// (§4.9 step 1, §5 "Track spawn is visible only on the next tick").
func (c *Controller) addTrack(id uint8, offset uint32, seqdata []byte) {
	c.newTracks = append(c.newTracks, newTrack(id, offset, seqdata, c))
}

// removeTrack stages t for removal at the head of the next tick.
func (c *Controller) removeTrack(t *Track) {
	c.oldTracks = append(c.oldTracks, t)
}

// getBank lazily parses and caches the instrument bank with the given
// id, returning an empty bank if the archive has no such chunk (§4.2
// "missing ids return an empty instance").
func (c *Controller) getBank(id uint32) (*ibnk.Bank, error) {
	if b, ok := c.banks[id]; ok {
		return b, nil
	}
	var raw []byte
	if c.archive != nil {
		raw = c.archive.BankBytes(id)
	}
	if raw == nil {
		b := ibnk.Empty()
		c.banks[id] = b
		return b, nil
	}
	b, err := ibnk.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("jaudio: parse bank %d: %w", id, err)
	}
	c.banks[id] = b
	return b, nil
}

// getWavesystem lazily parses and caches the wavesystem with the given
// id.
func (c *Controller) getWavesystem(id uint32) (*wsys.Wavesystem, error) {
	if w, ok := c.wsystems[id]; ok {
		return w, nil
	}
	var raw []byte
	if c.archive != nil {
		raw = c.archive.WavesystemBytes(id)
	}
	if raw == nil {
		w := wsys.Empty()
		c.wsystems[id] = w
		return w, nil
	}
	w, err := wsys.Parse(raw, c.aw)
	if err != nil {
		return nil, fmt.Errorf("jaudio: parse wavesystem %d: %w", id, err)
	}
	c.wsystems[id] = w
	return w, nil
}

// Tick runs one controller tick: commits pending track adds/removes,
// mixes every live track's samples into a stereo frame, and pushes the
// result to the sink. It reports false once no tracks remain (§4.9).
func (c *Controller) Tick() (bool, error) {
	if len(c.oldTracks) > 0 {
		dead := make(map[*Track]bool, len(c.oldTracks))
		for _, t := range c.oldTracks {
			dead[t] = true
		}
		live := c.tracks[:0]
		for _, t := range c.tracks {
			if !dead[t] {
				live = append(live, t)
			}
		}
		c.tracks = live
		c.oldTracks = nil
	}
	if len(c.newTracks) > 0 {
		c.tracks = append(c.tracks, c.newTracks...)
		c.newTracks = nil
	}

	if len(c.tracks) == 0 {
		return false, nil
	}

	n := c.SamplesPerTick()
	if n <= 0 {
		return false, fmt.Errorf("jaudio: non-positive samples per tick (tempo=%d timebase=%d)", c.tempo, c.timebase)
	}

	left := make([]float32, n)
	right := make([]float32, n)

	for _, t := range c.tracks {
		samples, err := t.tick(n)
		if err != nil {
			return false, fmt.Errorf("jaudio: track %d: %w", t.TrackID, err)
		}

		panL := float32(math.Sqrt(float64(1 - t.pan)))
		panR := float32(math.Sqrt(float64(t.pan)))
		for i, s := range samples {
			left[i] += s * panL * c.volume
			right[i] += s * panR * c.volume
		}

		if t.Finished() {
			c.removeTrack(t)
		}
	}

	c.tickCount++
	c.samples += uint64(n)

	if c.sink != nil {
		if err := c.sink.Write(Interleave(left, right)); err != nil {
			return false, fmt.Errorf("jaudio: sink write: %w", err)
		}
	}

	return true, nil
}

// TickCount reports how many ticks have been mixed so far.
func (c *Controller) TickCount() uint64 { return c.tickCount }

// SamplesProcessed reports how many samples per channel have been
// mixed so far.
func (c *Controller) SamplesProcessed() uint64 { return c.samples }

// Close releases the controller's archive handle.
func (c *Controller) Close() error {
	if c.archive != nil {
		return c.archive.Close()
	}
	return nil
}
