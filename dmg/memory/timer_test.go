package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/input"
)

func tickN(t *Timer, n int) {
	for range n {
		t.Tick()
	}
}

func TestDividerIncrementsAndResets(t *testing.T) {
	timer := NewTimer(nil)

	tickN(timer, 63)
	assert.Equal(t, uint8(0), timer.Read(addr.DIV))
	timer.Tick()
	assert.Equal(t, uint8(1), timer.Read(addr.DIV))

	tickN(timer, 64*10)
	assert.Equal(t, uint8(11), timer.Read(addr.DIV))

	for _, v := range []uint8{0x00, 0x5A, 0xFF} {
		tickN(timer, 200)
		timer.Write(addr.DIV, v)
		assert.Equal(t, uint8(0), timer.Read(addr.DIV), "writing %02X", v)
	}

	tickN(timer, 63)
	assert.Equal(t, uint8(0), timer.Read(addr.DIV), "the divider phase restarts on write")
}

func TestCounterPeriods(t *testing.T) {
	tests := []struct {
		tac    uint8
		period int
	}{
		{0x04, 256},
		{0x05, 4},
		{0x06, 16},
		{0x07, 64},
	}

	for _, tt := range tests {
		timer := NewTimer(nil)
		timer.Write(addr.TAC, tt.tac)

		tickN(timer, tt.period-1)
		assert.Equal(t, uint8(0), timer.Read(addr.TIMA), "tac %02X", tt.tac)
		timer.Tick()
		assert.Equal(t, uint8(1), timer.Read(addr.TIMA), "tac %02X", tt.tac)
	}
}

func TestCounterDisabled(t *testing.T) {
	timer := NewTimer(nil)
	timer.Write(addr.TAC, 0x01)
	tickN(timer, 1000)
	assert.Equal(t, uint8(0), timer.Read(addr.TIMA))
	assert.Equal(t, uint8(0xF9), timer.Read(addr.TAC))
}

func TestOverflowReloadsAndInterruptsOnce(t *testing.T) {
	interrupts := 0
	timer := NewTimer(func() { interrupts++ })
	timer.Write(addr.TMA, 0xF0)
	timer.Write(addr.TIMA, 0xFE)
	timer.Write(addr.TAC, 0x05)

	tickN(timer, 4)
	assert.Equal(t, uint8(0xFF), timer.Read(addr.TIMA))
	assert.Equal(t, 0, interrupts)

	tickN(timer, 4)
	assert.Equal(t, uint8(0xF0), timer.Read(addr.TIMA))
	assert.Equal(t, 1, interrupts)

	tickN(timer, 3)
	assert.Equal(t, 1, interrupts)

	// 16 increments from 0xF0 overflow exactly once more
	tickN(timer, 1+15*4)
	assert.Equal(t, uint8(0xF0), timer.Read(addr.TIMA))
	assert.Equal(t, 2, interrupts)
}

func TestTimerStateRoundTrip(t *testing.T) {
	timer := NewTimer(nil)
	timer.Write(addr.TAC, 0x06)
	timer.Write(addr.TMA, 0x33)
	tickN(timer, 1234)

	fresh := NewTimer(nil)
	fresh.SetState(timer.State())
	assert.Equal(t, timer.State(), fresh.State())

	tickN(timer, 100)
	tickN(fresh, 100)
	assert.Equal(t, timer.State(), fresh.State())
}

func TestJoypadRowsAndInterrupt(t *testing.T) {
	interrupts := 0
	j := NewJoypad(func() { interrupts++ })

	assert.Equal(t, uint8(0xFF), j.Read(addr.P1), "nothing selected")

	j.Write(addr.P1, 0x20) // select directions
	j.Tick()
	assert.Equal(t, uint8(0xEF), j.Read(addr.P1))

	j.SetPressed(input.KeySet(0).With(input.Left).With(input.A))
	j.Tick()
	assert.Equal(t, uint8(0xED), j.Read(addr.P1))
	assert.Equal(t, 1, interrupts)

	j.Tick()
	assert.Equal(t, 1, interrupts, "held keys do not retrigger")

	j.Write(addr.P1, 0x10) // select buttons
	j.Tick()
	assert.Equal(t, uint8(0xDE), j.Read(addr.P1))
	assert.Equal(t, 2, interrupts)

	j.SetPressed(0)
	j.Tick()
	assert.Equal(t, uint8(0xDF), j.Read(addr.P1))
	assert.Equal(t, 2, interrupts)
}
