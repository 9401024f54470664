// Package wsys parses WSYS (wavesystem) chunks and resolves (aw_id,
// wave_id) pairs to decoded sample buffers, per spec §3 and §4.3.
package wsys

import (
	"fmt"
	"sort"

	"jaudio/internal/binreader"
	"jaudio/internal/codec"
)

// Format mirrors codec.Format for the on-disk wave encoding.
type Format = codec.Format

// Wave is immutable after decode (§3).
type Wave struct {
	Format      Format
	BaseKey     uint8
	SampleRate  float32
	Loop        bool
	LoopStart   uint32
	LoopEnd     uint32
	SampleCount uint32
	AwID        uint16
	WaveID      uint16
	Data        []float32 // dense samples in [-1, 1]
}

// Key is the (aw_id, wave_id) pair identifying a wave within a
// wavesystem, totally ordered by (aw_id, wave_id) (§3).
type Key struct {
	AwID   uint16
	WaveID uint16
}

// Less implements the total order over Key.
func (k Key) Less(o Key) bool {
	if k.AwID != o.AwID {
		return k.AwID < o.AwID
	}
	return k.WaveID < o.WaveID
}

// AWSource abstracts access to the external .aw sample-data files
// named by the WINF groups (§4.3), the file-system collaborator
// specified at §6.
type AWSource interface {
	ReadAt(name string, offset int64, size int) ([]byte, error)
}

type rawWaveInfo struct {
	format       uint8
	baseKey      uint8
	sampleRate   float32
	wavedataOff  uint32
	wavedataSize uint32
	loop         bool
	loopStart    uint32
	loopEnd      uint32
	sampleCount  uint32
}

type group struct {
	awFilename string
	waves      []rawWaveInfo
}

// Wavesystem maps Key to Wave, per spec §3.
type Wavesystem struct {
	WsysID uint32
	byKey  map[Key]*Wave
}

// Lookup returns the Wave for the given key, or nil if absent.
func (w *Wavesystem) Lookup(key Key) *Wave {
	if w == nil {
		return nil
	}
	return w.byKey[key]
}

// Empty returns an empty Wavesystem, used when an id is missing from
// the archive (§4.2 "missing ids return an empty instance").
func Empty() *Wavesystem {
	return &Wavesystem{byKey: map[Key]*Wave{}}
}

// Parse decodes a WSYS chunk's bytes and resolves every referenced
// wave's sample data via src, per the layout in §4.3.
func Parse(data []byte, src AWSource) (*Wavesystem, error) {
	r := binreader.New(data)

	if ok, err := r.Magic("WSYS"); err != nil || !ok {
		return nil, fmt.Errorf("wsys: bad magic")
	}
	if _, err := r.U32(); err != nil { // file_size
		return nil, err
	}
	wsysID, err := r.U32()
	if err != nil {
		return nil, err
	}
	r.Skip(4) // reserved

	winfOff, err := r.U32()
	if err != nil {
		return nil, err
	}
	wbctOff, err := r.U32()
	if err != nil {
		return nil, err
	}

	groups, err := parseWINF(data, int(winfOff))
	if err != nil {
		return nil, fmt.Errorf("wsys: WINF: %w", err)
	}

	scenes, err := parseWBCT(data, int(wbctOff), len(groups))
	if err != nil {
		return nil, fmt.Errorf("wsys: WBCT: %w", err)
	}

	w := &Wavesystem{WsysID: wsysID, byKey: map[Key]*Wave{}}

	for gi, g := range groups {
		keys, err := parseSCNE(data, scenes[gi], len(g.waves))
		if err != nil {
			return nil, fmt.Errorf("wsys: SCNE[%d]: %w", gi, err)
		}

		for wi, raw := range g.waves {
			key := keys[wi]
			wave := &Wave{
				Format:      Format(raw.format),
				BaseKey:     raw.baseKey,
				SampleRate:  raw.sampleRate,
				Loop:        raw.loop,
				LoopStart:   raw.loopStart,
				LoopEnd:     raw.loopEnd,
				SampleCount: raw.sampleCount,
				AwID:        key.AwID,
				WaveID:      key.WaveID,
			}

			if src != nil {
				payload, err := src.ReadAt(g.awFilename, int64(raw.wavedataOff), int(raw.wavedataSize))
				if err == nil {
					if samples, derr := codec.Decode(Format(raw.format), payload); derr == nil {
						if int(raw.sampleCount) < len(samples) {
							samples = samples[:raw.sampleCount]
						}
						wave.Data = samples
					}
				}
			}

			w.byKey[key] = wave
		}
	}

	return w, nil
}

func parseWINF(data []byte, off int) ([]group, error) {
	r := binreader.NewAt(data, off)
	if ok, err := r.Magic("WINF"); err != nil || !ok {
		return nil, fmt.Errorf("bad magic")
	}
	groupCount, err := r.U32()
	if err != nil {
		return nil, err
	}

	groupOffs := make([]uint32, groupCount)
	for i := range groupOffs {
		groupOffs[i], err = r.U32()
		if err != nil {
			return nil, err
		}
	}

	groups := make([]group, groupCount)
	for i, goff := range groupOffs {
		gr := binreader.NewAt(data, int(goff))
		name, err := gr.FixedString(0x70)
		if err != nil {
			return nil, err
		}
		waveCount, err := gr.U32()
		if err != nil {
			return nil, err
		}
		waveOffs := make([]uint32, waveCount)
		for j := range waveOffs {
			waveOffs[j], err = gr.U32()
			if err != nil {
				return nil, err
			}
		}

		waves := make([]rawWaveInfo, waveCount)
		for j, woff := range waveOffs {
			wr := binreader.NewAt(data, int(woff))
			wr.Skip(1) // reserved
			format, err := wr.U8()
			if err != nil {
				return nil, err
			}
			baseKey, err := wr.U8()
			if err != nil {
				return nil, err
			}
			wr.Skip(1) // reserved
			sampleRate, err := wr.F32()
			if err != nil {
				return nil, err
			}
			wavedataOff, err := wr.U32()
			if err != nil {
				return nil, err
			}
			wavedataSize, err := wr.U32()
			if err != nil {
				return nil, err
			}
			loopRaw, err := wr.U32()
			if err != nil {
				return nil, err
			}
			loopStart, err := wr.U32()
			if err != nil {
				return nil, err
			}
			loopEnd, err := wr.U32()
			if err != nil {
				return nil, err
			}
			sampleCount, err := wr.U32()
			if err != nil {
				return nil, err
			}

			waves[j] = rawWaveInfo{
				format:       format,
				baseKey:      baseKey,
				sampleRate:   sampleRate,
				wavedataOff:  wavedataOff,
				wavedataSize: wavedataSize,
				loop:         loopRaw != 0,
				loopStart:    loopStart,
				loopEnd:      loopEnd,
				sampleCount:  sampleCount,
			}
		}

		groups[i] = group{awFilename: name, waves: waves}
	}

	return groups, nil
}

func parseWBCT(data []byte, off int, groupCount int) ([]uint32, error) {
	r := binreader.NewAt(data, off)
	if ok, err := r.Magic("WBCT"); err != nil || !ok {
		return nil, fmt.Errorf("bad magic")
	}
	r.Skip(4) // reserved
	sceneCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	if int(sceneCount) != groupCount {
		return nil, fmt.Errorf("scene_count %d != group_count %d", sceneCount, groupCount)
	}

	sceneOffs := make([]uint32, groupCount)
	for i := range sceneOffs {
		sceneOffs[i], err = r.U32()
		if err != nil {
			return nil, err
		}
	}
	return sceneOffs, nil
}

func parseSCNE(data []byte, off uint32, waveCount int) ([]Key, error) {
	r := binreader.NewAt(data, int(off))
	if ok, err := r.Magic("SCNE"); err != nil || !ok {
		return nil, fmt.Errorf("bad magic")
	}
	r.Skip(8) // reserved
	cdfOff, err := r.U32()
	if err != nil {
		return nil, err
	}

	cr := binreader.NewAt(data, int(cdfOff))
	if ok, err := cr.Magic("C-DF"); err != nil || !ok {
		return nil, fmt.Errorf("bad C-DF magic")
	}
	cdfCount, err := cr.U32()
	if err != nil {
		return nil, err
	}
	if int(cdfCount) != waveCount {
		return nil, fmt.Errorf("cdf_count %d != wave_count %d", cdfCount, waveCount)
	}

	entryOffs := make([]uint32, waveCount)
	for i := range entryOffs {
		entryOffs[i], err = cr.U32()
		if err != nil {
			return nil, err
		}
	}

	keys := make([]Key, waveCount)
	for i, eoff := range entryOffs {
		er := binreader.NewAt(data, int(eoff))
		awID, err := er.U16()
		if err != nil {
			return nil, err
		}
		waveID, err := er.U16()
		if err != nil {
			return nil, err
		}
		keys[i] = Key{AwID: awID, WaveID: waveID}
	}

	return keys, nil
}

// Keys returns every key known to the wavesystem, sorted by the total
// order over Key.
func (w *Wavesystem) Keys() []Key {
	keys := make([]Key, 0, len(w.byKey))
	for k := range w.byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}
