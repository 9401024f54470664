package seq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_NoteOn(t *testing.T) {
	data := []byte{0x3C, 0x01, 0x64} // note=0x3C, voice=1, vel=100
	cmd, err := Read(data, 0)
	require.NoError(t, err)
	n, ok := cmd.(NoteOn)
	require.True(t, ok)
	assert.Equal(t, uint8(0x3C), n.Note)
	assert.Equal(t, uint8(1), n.Voice)
	assert.Equal(t, uint8(100), n.Vel)
	assert.Equal(t, 3, n.Size())
}

func TestRead_NoteOn_RejectsOutOfRangeVoice(t *testing.T) {
	data := []byte{0x3C, 0x00, 0x64} // voice 0 is invalid
	_, err := Read(data, 0)
	require.Error(t, err)
	var bad *BadCommand
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, BadInvalidData, bad.Kind)
}

func TestRead_Wait8(t *testing.T) {
	data := []byte{0x80, 0x0A}
	cmd, err := Read(data, 0)
	require.NoError(t, err)
	w := cmd.(Wait)
	assert.Equal(t, uint16(10), w.Delay)
	assert.Equal(t, 2, w.Size())
}

func TestRead_Wait16(t *testing.T) {
	data := []byte{0x88, 0x01, 0x00}
	cmd, err := Read(data, 0)
	require.NoError(t, err)
	w := cmd.(Wait)
	assert.Equal(t, uint16(256), w.Delay)
	assert.Equal(t, 3, w.Size())
}

func TestRead_VoiceOff(t *testing.T) {
	data := []byte{0x83} // voice 3
	cmd, err := Read(data, 0)
	require.NoError(t, err)
	v := cmd.(VoiceOff)
	assert.Equal(t, uint8(3), v.Voice)
}

func TestRead_Tempo(t *testing.T) {
	data := []byte{0xFE, 0x00, 0x78}
	cmd, err := Read(data, 0)
	require.NoError(t, err)
	tp := cmd.(Tempo)
	assert.Equal(t, uint16(120), tp.Value)
}

func TestRead_Timebase(t *testing.T) {
	data := []byte{0xFD, 0x00, 0x30}
	cmd, err := Read(data, 0)
	require.NoError(t, err)
	tb := cmd.(Timebase)
	assert.Equal(t, uint16(48), tb.Value)
}

func TestRead_TrackEnd(t *testing.T) {
	data := []byte{0xFF}
	cmd, err := Read(data, 0)
	require.NoError(t, err)
	_, ok := cmd.(TrackEnd)
	assert.True(t, ok)
}

func TestRead_JumpCall(t *testing.T) {
	data := []byte{0xC3, 0x00, 0x01, 0x00}
	cmd, err := Read(data, 0)
	require.NoError(t, err)
	j := cmd.(Jump)
	assert.True(t, j.Call)
	assert.Equal(t, uint32(0x000100), j.Target)
	assert.Equal(t, 4, j.Size())
}

func TestRead_JumpPlain(t *testing.T) {
	data := []byte{0xC7, 0x00, 0x00, 0x10}
	cmd, err := Read(data, 0)
	require.NoError(t, err)
	j := cmd.(Jump)
	assert.False(t, j.Call)
	assert.Equal(t, uint32(0x000010), j.Target)
}

func TestRead_JumpFPreservesCondition(t *testing.T) {
	data := []byte{0xC4, 0x2A, 0x00, 0x00, 0x10}
	cmd, err := Read(data, 0)
	require.NoError(t, err)
	j := cmd.(JumpF)
	assert.True(t, j.Call)
	assert.Equal(t, uint8(0x2A), j.Cond)
	assert.Equal(t, uint32(0x000010), j.Target)
}

func TestRead_ReturnAndReturnF(t *testing.T) {
	cmd, err := Read([]byte{0xC5}, 0)
	require.NoError(t, err)
	_, ok := cmd.(Return)
	assert.True(t, ok)

	cmd, err = Read([]byte{0xC6}, 0)
	require.NoError(t, err)
	_, ok = cmd.(ReturnF)
	assert.True(t, ok)
}

func TestRead_OpenTrack(t *testing.T) {
	data := []byte{0xC1, 0x02, 0x00, 0x01, 0x00}
	cmd, err := Read(data, 0)
	require.NoError(t, err)
	ot := cmd.(OpenTrack)
	assert.Equal(t, uint8(2), ot.TrackID)
	assert.Equal(t, uint32(0x000100), ot.Offset)
}

func TestRead_SetPerfVolumeNoDuration(t *testing.T) {
	data := []byte{0x94, 0x00, 0x7F} // volume, u8, full scale
	cmd, err := Read(data, 0)
	require.NoError(t, err)
	sp := cmd.(SetPerf)
	assert.Equal(t, PerfVolume, sp.Type)
	assert.InDelta(t, 1.0, sp.Value, 1e-6)
	assert.Equal(t, uint16(0), sp.Duration)
}

func TestRead_SetPerfWithU16Duration(t *testing.T) {
	data := []byte{0x97, 0x01, 0x7F, 0x00, 0x64} // pitch, u8 value, u16 duration
	cmd, err := Read(data, 0)
	require.NoError(t, err)
	sp := cmd.(SetPerf)
	assert.Equal(t, PerfPitch, sp.Type)
	assert.Equal(t, uint16(100), sp.Duration)
	assert.Equal(t, 5, sp.Size())
}

func TestRead_SetParam(t *testing.T) {
	data := []byte{0xA4, 0x20, 0x05}
	cmd, err := Read(data, 0)
	require.NoError(t, err)
	sp := cmd.(SetParam)
	assert.Equal(t, ParamBank, sp.Type)
	assert.Equal(t, uint16(5), sp.Value)
}

func TestRead_UnknownOpcodeIsBad(t *testing.T) {
	data := []byte{0xD0}
	_, err := Read(data, 0)
	require.Error(t, err)
	var bad *BadCommand
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, BadInvalidOpcode, bad.Kind)
}

func TestRead_TruncatedCommandIsEof(t *testing.T) {
	data := []byte{0xC1, 0x02} // OpenTrack needs 5 bytes total
	_, err := Read(data, 0)
	require.Error(t, err)
	var bad *BadCommand
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, BadEof, bad.Kind)
}

func TestRead_PastEndOfStreamIsEof(t *testing.T) {
	data := []byte{0xFF}
	_, err := Read(data, 5)
	require.Error(t, err)
	var bad *BadCommand
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, BadEof, bad.Kind)
}
