// Package ibnk parses IBNK (instrument bank) chunks: 245 instrument
// slots, melodic or percussion, with nested key/velocity region trees,
// per spec §3 and §4.4.
package ibnk

import (
	"fmt"

	"jaudio/internal/binreader"
)

const slotCount = 245

// Envp is one envelope segment (§3).
type Envp struct {
	Mode  uint16
	Time  uint16
	Value int16
}

// Envelope mode constants (§3).
const (
	ModeLinear = 0
	ModeSquare = 1
	ModeDirect = 2
	ModeRoot   = 3
	ModeLoop   = 0x0D
	ModeHold   = 0x0E
	ModeStop   = 0x0F
)

// Osci is the attack/release envelope pair for an instrument (§3).
type Osci struct {
	AttackEnv  []Envp
	ReleaseEnv []Envp
}

// KeyInfo is the leaf of the instrument lookup tree (§3).
type KeyInfo struct {
	MaxVel uint8
	AwID   uint16
	WaveID uint16
	Volume float32
	Pitch  float32
}

// KeyRegion groups KeyInfo leaves under a key ceiling (§3). Volume and
// Pitch default to 1 (neutral multiplier) for melodic regions, which
// carry no region-level scaling of their own; percussion regions
// overwrite both from the raw per-key header fields (§4.4).
type KeyRegion struct {
	MaxKey uint8
	Volume float32
	Pitch  float32
	Leaves []KeyInfo // sorted ascending by MaxVel
}

// Instrument is a melodic or percussion instrument slot (§3).
type Instrument struct {
	IsPercussion bool
	Volume       float32
	Pitch        float32
	Regions      []KeyRegion
	Osci         Osci
}

// Bank is the 245-slot instrument table plus its paired wavesystem id
// (§3). Missing slots are nil.
type Bank struct {
	WsysID      uint32
	Instruments [slotCount]*Instrument
}

const maxRegions = 128

var (
	// ErrBadMagic is returned when a chunk or record doesn't carry the
	// expected magic string.
	ErrBadMagic = fmt.Errorf("ibnk: bad magic")
	// ErrTooManyRegions is a fatal parse error for a slot whose key- or
	// velocity-region count exceeds 128 (§4.4).
	ErrTooManyRegions = fmt.Errorf("ibnk: region count exceeds 128")
)

// Empty returns a Bank with no populated slots, used when an id is
// missing from the archive (§4.2).
func Empty() *Bank {
	return &Bank{}
}

// Parse decodes an IBNK chunk's bytes per the layout in §4.4.
func Parse(data []byte) (*Bank, error) {
	r := binreader.New(data)
	if ok, err := r.Magic("IBNK"); err != nil || !ok {
		return nil, ErrBadMagic
	}
	if _, err := r.U32(); err != nil { // file_size
		return nil, err
	}
	wsysID, err := r.U32()
	if err != nil {
		return nil, err
	}

	r.Seek(0x20)
	if ok, err := r.Magic("BANK"); err != nil || !ok {
		return nil, ErrBadMagic
	}

	instOffs := make([]uint32, slotCount)
	for i := range instOffs {
		instOffs[i], err = r.U32()
		if err != nil {
			return nil, err
		}
	}

	bank := &Bank{WsysID: wsysID}
	for i, off := range instOffs {
		if off == 0 {
			continue
		}
		inst, err := parseInstrument(data, off)
		if err != nil {
			return nil, fmt.Errorf("ibnk: slot %d: %w", i, err)
		}
		bank.Instruments[i] = inst
	}

	return bank, nil
}

func parseInstrument(data []byte, off uint32) (*Instrument, error) {
	r := binreader.NewAt(data, int(off))
	tag, err := r.Take(4)
	if err != nil {
		return nil, err
	}

	switch string(tag) {
	case "INST":
		return parseMelodic(data, r)
	case "PER2":
		return parsePercussion(data, r)
	default:
		return nil, fmt.Errorf("%w: instrument tag %q", ErrBadMagic, tag)
	}
}

func parseMelodic(data []byte, r *binreader.Reader) (*Instrument, error) {
	r.Skip(4) // padding
	volume, err := r.F32()
	if err != nil {
		return nil, err
	}
	pitch, err := r.F32()
	if err != nil {
		return nil, err
	}
	osciOff, err := r.U32()
	if err != nil {
		return nil, err
	}

	r.Skip(0x14) // reserved
	rgnCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	if rgnCount > maxRegions {
		return nil, ErrTooManyRegions
	}

	rgnOffs := make([]uint32, rgnCount)
	for i := range rgnOffs {
		rgnOffs[i], err = r.U32()
		if err != nil {
			return nil, err
		}
	}

	regions := make([]KeyRegion, rgnCount)
	for i, roff := range rgnOffs {
		region, err := parseKeyRegion(data, roff)
		if err != nil {
			return nil, err
		}
		regions[i] = *region
	}

	osci, err := parseOsci(data, osciOff)
	if err != nil {
		return nil, err
	}

	return &Instrument{
		IsPercussion: false,
		Volume:       volume,
		Pitch:        pitch,
		Regions:      regions,
		Osci:         osci,
	}, nil
}

func parseKeyRegion(data []byte, off uint32) (*KeyRegion, error) {
	r := binreader.NewAt(data, int(off))
	maxKey, err := r.U8()
	if err != nil {
		return nil, err
	}
	r.Skip(3) // reserved
	velCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	if velCount > maxRegions {
		return nil, ErrTooManyRegions
	}

	velOffs := make([]uint32, velCount)
	for i := range velOffs {
		velOffs[i], err = r.U32()
		if err != nil {
			return nil, err
		}
	}

	leaves := make([]KeyInfo, velCount)
	for i, voff := range velOffs {
		leaf, err := parseVelLeaf(data, voff)
		if err != nil {
			return nil, err
		}
		leaves[i] = *leaf
	}

	return &KeyRegion{MaxKey: maxKey, Volume: 1, Pitch: 1, Leaves: leaves}, nil
}

func parseVelLeaf(data []byte, off uint32) (*KeyInfo, error) {
	r := binreader.NewAt(data, int(off))
	maxVel, err := r.U8()
	if err != nil {
		return nil, err
	}
	r.Skip(3) // reserved
	awID, err := r.U16()
	if err != nil {
		return nil, err
	}
	waveID, err := r.U16()
	if err != nil {
		return nil, err
	}
	volume, err := r.F32()
	if err != nil {
		return nil, err
	}
	pitch, err := r.F32()
	if err != nil {
		return nil, err
	}

	return &KeyInfo{MaxVel: maxVel, AwID: awID, WaveID: waveID, Volume: volume, Pitch: pitch}, nil
}

func parsePercussion(data []byte, r *binreader.Reader) (*Instrument, error) {
	r.Skip(0x84)

	const keySlots = 128
	keyOffs := make([]uint32, keySlots)
	for i := range keyOffs {
		off, err := r.U32()
		if err != nil {
			return nil, err
		}
		keyOffs[i] = off
	}

	var regions []KeyRegion
	for key, off := range keyOffs {
		if off == 0 {
			continue
		}
		kr := binreader.NewAt(r.Bytes(), int(off))
		volumeRaw, err := kr.U32()
		if err != nil {
			return nil, err
		}
		pitchRaw, err := kr.U32()
		if err != nil {
			return nil, err
		}
		kr.Skip(8) // reserved
		velCount, err := kr.U32()
		if err != nil {
			return nil, err
		}
		if velCount > maxRegions {
			return nil, ErrTooManyRegions
		}

		velOffs := make([]uint32, velCount)
		for i := range velOffs {
			velOffs[i], err = kr.U32()
			if err != nil {
				return nil, err
			}
		}

		leaves := make([]KeyInfo, velCount)
		for i, voff := range velOffs {
			leaf, err := parseVelLeaf(r.Bytes(), voff)
			if err != nil {
				return nil, err
			}
			leaves[i] = *leaf
		}

		regions = append(regions, KeyRegion{
			MaxKey: uint8(key),
			Volume: float32(volumeRaw),
			Pitch:  float32(pitchRaw),
			Leaves: leaves,
		})
	}

	return &Instrument{
		IsPercussion: true,
		Volume:       1,
		Pitch:        1,
		Regions:      regions,
	}, nil
}

func parseOsci(data []byte, off uint32) (Osci, error) {
	if off == 0 {
		return Osci{}, nil
	}
	r := binreader.NewAt(data, int(off))

	attack, err := parseEnvSeq(r)
	if err != nil {
		return Osci{}, err
	}
	release, err := parseEnvSeq(r)
	if err != nil {
		return Osci{}, err
	}

	return Osci{AttackEnv: attack, ReleaseEnv: release}, nil
}

// parseEnvSeq reads a sequence of Envp segments terminated by a STOP
// segment, stopping early after 257 segments if no STOP appears.
func parseEnvSeq(r *binreader.Reader) ([]Envp, error) {
	var segs []Envp
	for {
		mode, err := r.U16()
		if err != nil {
			return nil, err
		}
		time, err := r.U16()
		if err != nil {
			return nil, err
		}
		value, err := r.I16()
		if err != nil {
			return nil, err
		}
		segs = append(segs, Envp{Mode: mode, Time: time, Value: value})
		if mode == ModeStop {
			return segs, nil
		}
		if len(segs) > 256 {
			return segs, nil // defensive bound; malformed oscillator data
		}
	}
}

// Resolve implements §4.4's key/velocity lookup for both melodic and
// percussion layouts.
func (b *Bank) Resolve(slot int, key, vel uint8) (*KeyInfo, bool) {
	if slot < 0 || slot >= slotCount {
		return nil, false
	}
	inst := b.Instruments[slot]
	if inst == nil {
		return nil, false
	}
	return inst.Resolve(key, vel)
}

// Resolve performs the key/velocity leaf lookup for this instrument.
func (inst *Instrument) Resolve(key, vel uint8) (*KeyInfo, bool) {
	if inst.IsPercussion {
		for i := range inst.Regions {
			if inst.Regions[i].MaxKey == key {
				return lookupLeaf(&inst.Regions[i], vel)
			}
		}
		return nil, false
	}

	for i := range inst.Regions {
		if key <= inst.Regions[i].MaxKey {
			return lookupLeaf(&inst.Regions[i], vel)
		}
	}
	return nil, false
}

func lookupLeaf(region *KeyRegion, vel uint8) (*KeyInfo, bool) {
	for i := range region.Leaves {
		if vel < region.Leaves[i].MaxVel {
			leaf := region.Leaves[i]
			// Inherited region scaling is folded in at resolution time
			// rather than kept as a back-pointer (§4.4, §9 "Back-references
			// from leaf to region").
			leaf.Volume *= region.Volume
			leaf.Pitch *= region.Pitch
			return &leaf, true
		}
	}
	return nil, false
}

