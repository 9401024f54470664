package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jaudio/internal/ibnk"
	"jaudio/internal/wsys"
)

func TestLooped_AlwaysInRange(t *testing.T) {
	a, b := 10.0, 100.0
	for p := a; p < 300; p += 3.7 {
		v := looped(p, a, b)
		assert.GreaterOrEqual(t, v, a)
		assert.Less(t, v, b)
	}
}

func sustainOsci() *ibnk.Osci {
	return &ibnk.Osci{
		AttackEnv: []ibnk.Envp{
			{Mode: ibnk.ModeDirect, Time: 0, Value: 32767},
			{Mode: ibnk.ModeHold, Time: 1, Value: 32767},
		},
	}
}

func TestNote_FinishesWhenWaveMissing(t *testing.T) {
	n := &Note{}
	n.Start(nil, sustainOsci(), 1, 1, 60, 100, false, 44100)
	out := n.Tick()
	assert.Equal(t, float32(0), out)
	assert.True(t, n.Finished())
}

func TestNote_FinishesAtLoopEndWhenNotLooped(t *testing.T) {
	wave := &wsys.Wave{
		SampleRate: 44100,
		BaseKey:    60,
		Loop:       false,
		LoopEnd:    4,
		Data:       []float32{0, 0.1, 0.2, 0.3, 0.4},
	}
	n := &Note{}
	n.Start(wave, sustainOsci(), 1, 1, 60, 100, true, 44100)
	n.position = 4
	out := n.Tick()
	assert.Equal(t, float32(0), out)
	assert.True(t, n.Finished())
}

func TestNote_StopNowBypassesEnvelope(t *testing.T) {
	wave := &wsys.Wave{SampleRate: 44100, Loop: true, LoopStart: 0, LoopEnd: 100, Data: make([]float32, 100)}
	n := &Note{}
	n.Start(wave, sustainOsci(), 1, 1, 60, 100, true, 44100)
	require.True(t, n.Playing())
	n.StopNow()
	assert.True(t, n.Finished())
	assert.False(t, n.Playing())
}

func TestPool_ReusesFinishedSlot(t *testing.T) {
	p := NewPool()
	n1 := p.Allocate()
	n1.Start(nil, sustainOsci(), 1, 1, 60, 80, false, 44100)
	n1.Tick() // wave is nil -> immediately finished

	n2 := p.Allocate()
	assert.Same(t, n1, n2, "pool should reuse a finished slot instead of appending")
	assert.Equal(t, 1, p.Len())
}

func TestPool_AppendsWhenNoneFinished(t *testing.T) {
	p := NewPool()
	n1 := p.Allocate()
	n1.Start(&wsys.Wave{SampleRate: 44100, Loop: true, LoopEnd: 10, Data: make([]float32, 10)}, sustainOsci(), 1, 1, 60, 80, true, 44100)

	n2 := p.Allocate()
	assert.NotSame(t, n1, n2)
	assert.Equal(t, 2, p.Len())
}
