// Package codec decodes the three PCM/ADPCM sample formats used by
// JAudio wavesystems into normalized float32 buffers in [-1, 1].
package codec

import (
	"encoding/binary"
	"errors"
)

// Format identifies the on-disk sample encoding of a Wave (§3).
type Format uint8

const (
	ADPCM4 Format = 0
	PCM8   Format = 2
	PCM16  Format = 3
)

// Errors returned by the decoders (§7 "Decode" kind, fatal for that
// wave only — callers degrade a single Wave, not the whole wavesystem).
var (
	ErrBadAdpcmFrame = errors.New("codec: adpcm4 data is not a multiple of 9 bytes")
	ErrOddPCM16Size  = errors.New("codec: pcm16 data has an odd byte length")
	ErrUnknownFormat = errors.New("codec: unknown wave format")
)

// adpcmCoeff holds the fixed 16-entry (c1, c2) coefficient table (§4.3).
var adpcmCoeff = [16][2]int32{
	{0, 0}, {2048, 0}, {0, 2048}, {1024, 1024},
	{4096, -2048}, {3584, -1536}, {3072, -1024}, {4608, -2560},
	{4200, -2248}, {4800, -2300}, {5120, -3072}, {2048, -2048},
	{1024, -1024}, {-1024, 1024}, {-1024, 0}, {-2048, 0},
}

// adpcmNibble holds the fixed signed-nibble sign-extension table (§4.3).
var adpcmNibble = [16]int32{0, 1, 2, 3, 4, 5, 6, 7, -8, -7, -6, -5, -4, -3, -2, -1}

// Decode decodes raw on-disk bytes of the given format into a dense
// float32 buffer in [-1, 1].
func Decode(format Format, data []byte) ([]float32, error) {
	switch format {
	case ADPCM4:
		return decodeADPCM4(data)
	case PCM8:
		return decodePCM8(data), nil
	case PCM16:
		return decodePCM16(data)
	default:
		return nil, ErrUnknownFormat
	}
}

// decodeADPCM4 decodes 9-byte frames of 4-bit ADPCM into 16 samples each.
func decodeADPCM4(data []byte) ([]float32, error) {
	if len(data)%9 != 0 {
		return nil, ErrBadAdpcmFrame
	}

	frames := len(data) / 9
	out := make([]float32, 0, frames*16)

	var h1, h2 int32
	for f := 0; f < frames; f++ {
		frame := data[f*9 : f*9+9]
		shift := uint(frame[0] >> 4)
		coeffIdx := frame[0] & 0x0F
		c1, c2 := adpcmCoeff[coeffIdx][0], adpcmCoeff[coeffIdx][1]

		for i := 0; i < 16; i++ {
			b := frame[1+i/2]
			var nibble byte
			if i%2 == 0 {
				nibble = b >> 4
			} else {
				nibble = b & 0x0F
			}
			delta := adpcmNibble[nibble]

			raw := ((delta<<shift)*2048 + h1*c1 + h2*c2) >> 11
			sample := clamp16(raw)
			out = append(out, float32(sample)/32768.0)

			h2 = h1
			h1 = int32(sample)
		}
	}

	return out, nil
}

func clamp16(v int32) int32 {
	switch {
	case v < -32768:
		return -32768
	case v > 32767:
		return 32767
	default:
		return v
	}
}

// decodePCM8 decodes signed 8-bit PCM.
func decodePCM8(data []byte) []float32 {
	out := make([]float32, len(data))
	for i, b := range data {
		out[i] = float32(int8(b)) / 128.0
	}
	return out
}

// decodePCM16 decodes big-endian signed 16-bit PCM.
func decodePCM16(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, ErrOddPCM16Size
	}

	out := make([]float32, len(data)/2)
	for i := range out {
		v := int16(binary.BigEndian.Uint16(data[i*2:]))
		out[i] = float32(v) / 32768.0
	}
	return out, nil
}
