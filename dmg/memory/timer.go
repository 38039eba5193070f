package memory

import (
	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/bit"
	"github.com/valerio/go-dmgcore/dmg/bus"
)

// divPeriod is the number of machine cycles between DIV increments (16384 Hz).
const divPeriod = 64

// timaPeriods maps TAC bits 0-1 to the machine cycles between TIMA increments.
//
//	00 -> 256 (4096 Hz)
//	01 ->   4 (262144 Hz)
//	10 ->  16 (65536 Hz)
//	11 ->  64 (16384 Hz)
var timaPeriods = [4]int{256, 4, 16, 64}

// Timer is the divider and the programmable counter. It advances one machine
// cycle per Tick.
type Timer struct {
	div    uint8
	divAcc int

	tima uint8
	tma  uint8
	tac  uint8
	acc  int

	// TimerInterruptHandler is called once per TIMA overflow.
	TimerInterruptHandler func()
}

// NewTimer returns a stopped timer that calls irq on every overflow.
func NewTimer(irq func()) *Timer {
	return &Timer{TimerInterruptHandler: irq}
}

// Tick advances the timer by one machine cycle.
func (t *Timer) Tick() {
	t.divAcc++
	if t.divAcc == divPeriod {
		t.divAcc = 0
		t.div++
	}

	if !bit.IsSet(2, t.tac) {
		return
	}
	t.acc++
	if t.acc < timaPeriods[t.tac&0x03] {
		return
	}
	t.acc = 0
	t.tima++
	if t.tima == 0 {
		t.tima = t.tma
		if t.TimerInterruptHandler != nil {
			t.TimerInterruptHandler()
		}
	}
}

func (t *Timer) Read(address uint16) uint8 {
	switch address {
	case addr.DIV:
		return t.div
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | 0xF8
	}
	return bus.OpenBus
}

func (t *Timer) Write(address uint16, value uint8) {
	switch address {
	case addr.DIV:
		t.div = 0
		t.divAcc = 0
	case addr.TIMA:
		t.tima = value
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		if value&0x03 != t.tac&0x03 {
			t.acc = 0
		}
		t.tac = value & 0x07
	}
}

// Attach maps DIV, TIMA, TMA and TAC.
func (t *Timer) Attach(b *bus.Bus) {
	b.Map(addr.IO, bus.Range(addr.DIV, addr.TAC, t.Read, t.Write))
}
