package audio

import (
	"sync/atomic"

	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/bit"
	"github.com/valerio/go-dmgcore/dmg/bus"
)

const (
	// SampleRate is the rate at which sample pairs are produced, one every
	// SampleCycles machine cycles.
	SampleRate   = 32768
	SampleCycles = 32

	// sequencerCycles is the number of machine cycles per 512 Hz frame
	// sequencer step (8192 clock ticks).
	sequencerCycles = 2048
	// tCycles is the number of clock ticks per machine cycle.
	tCycles = 4
	// outputScale brings the mixed level (at most 4 channels x 15 x 7) near
	// the int16 range.
	outputScale = 64
)

// readMasks are ORed into register reads; unused and write only bits read 1.
var readMasks = [0x17]uint8{
	0x80, 0x3F, 0x00, 0xFF, 0xBF, // NR10-NR14
	0xFF, 0x3F, 0x00, 0xFF, 0xBF, // NR20-NR24
	0x7F, 0xFF, 0x9F, 0xFF, 0xBF, // NR30-NR34
	0xFF, 0xFF, 0x00, 0x00, 0xBF, // NR40-NR44
	0x00, 0x00, 0x70, // NR50-NR52
}

// SampleSink receives one stereo sample pair per sample period.
type SampleSink func(right, left int16)

// APU is the audio processing unit: a 512 Hz frame sequencer driving two
// square channels, a wave channel and a noise channel, mixed to stereo.
type APU struct {
	enabled bool
	nr50    uint8
	nr51    uint8

	ch1 Square
	ch2 Square
	ch3 Wave
	ch4 Noise

	step         int // frame sequencer step, 0-7
	stepCycles   int
	sampleCycles int

	sinks []SampleSink

	// muted is a host side mask of channels left out of the mix (bit 0 is
	// channel 1). It is not part of the emulated state.
	muted atomic.Uint32
}

// New returns an APU with the post boot register values.
func New() *APU {
	a := &APU{}
	a.Reset()
	return a
}

// Reset powers the APU on with the values the boot ROM leaves behind.
func (a *APU) Reset() {
	a.ch1 = newSquare(true)
	a.ch2 = newSquare(false)
	a.ch3 = newWave()
	a.ch4 = newNoise()
	a.step, a.stepCycles, a.sampleCycles = 0, 0, 0
	a.enabled = true

	a.WriteRegister(addr.NR10, 0x80)
	a.WriteRegister(addr.NR11, 0xBF)
	a.WriteRegister(addr.NR12, 0xF3)
	a.WriteRegister(addr.NR14, 0x3F)
	a.WriteRegister(addr.NR21, 0x3F)
	a.WriteRegister(addr.NR24, 0x3F)
	a.WriteRegister(addr.NR30, 0x7F)
	a.WriteRegister(addr.NR31, 0xFF)
	a.WriteRegister(addr.NR32, 0x9F)
	a.WriteRegister(addr.NR34, 0x3F)
	a.WriteRegister(addr.NR41, 0xFF)
	a.WriteRegister(addr.NR44, 0x3F)
	a.WriteRegister(addr.NR50, 0x77)
	a.WriteRegister(addr.NR51, 0xF3)
}

// AddSink registers a receiver for the mixed output.
func (a *APU) AddSink(s SampleSink) {
	a.sinks = append(a.sinks, s)
}

// Tick advances the APU by one machine cycle.
func (a *APU) Tick() {
	if a.enabled {
		a.ch1.tick(tCycles)
		a.ch2.tick(tCycles)
		a.ch3.tick(tCycles)
		a.ch4.tick(tCycles)

		a.stepCycles++
		if a.stepCycles == sequencerCycles {
			a.stepCycles = 0
			a.clockSequencer()
		}
	}

	a.sampleCycles++
	if a.sampleCycles == SampleCycles {
		a.sampleCycles = 0
		right, left := a.Mix()
		for _, s := range a.sinks {
			s(right, left)
		}
	}
}

// clockSequencer runs the current step and advances to the next:
//
//	Step   Length  Sweep  Envelope
//	0      Clock   -      -
//	2      Clock   Clock  -
//	4      Clock   -      -
//	6      Clock   Clock  -
//	7      -       -      Clock
func (a *APU) clockSequencer() {
	switch a.step {
	case 0, 4:
		a.clockLengths()
	case 2, 6:
		a.clockLengths()
		a.ch1.clockSweep()
	case 7:
		a.ch1.Envelope.clock()
		a.ch2.Envelope.clock()
		a.ch4.Envelope.clock()
	}
	a.step = (a.step + 1) & 0x07
}

func (a *APU) clockLengths() {
	a.ch1.clockLength()
	a.ch2.clockLength()
	a.ch3.clockLength()
	a.ch4.clockLength()
}

// Mix returns the current (right, left) output. Each side sums the channels
// routed to it by NR51 and multiplies by its NR50 volume (0-7).
func (a *APU) Mix() (right, left int16) {
	if !a.enabled {
		return 0, 0
	}
	samples := [4]int{a.ch1.Sample(), a.ch2.Sample(), a.ch3.Sample(), a.ch4.Sample()}
	muted := a.muted.Load()

	var r, l int
	for i, s := range samples {
		if muted&(1<<i) != 0 {
			continue
		}
		if bit.IsSet(uint8(i), a.nr51) {
			r += s
		}
		if bit.IsSet(uint8(i+4), a.nr51) {
			l += s
		}
	}
	r *= int(a.nr50 & 0x07)
	l *= int(a.nr50 >> 4 & 0x07)
	return int16(r * outputScale), int16(l * outputScale)
}

// ReadRegister serves NR10-NR52 and wave RAM.
func (a *APU) ReadRegister(address uint16) uint8 {
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		return a.ch3.Table[address-addr.WaveRAMStart]
	}
	if address < addr.NR10 || address > addr.NR52 {
		return bus.OpenBus
	}

	var v uint8
	reg := int(address-addr.NR10) % 5
	switch {
	case address <= addr.NR14:
		v = a.ch1.Read(reg)
	case address <= addr.NR24:
		v = a.ch2.Read(reg)
	case address <= addr.NR34:
		v = a.ch3.Read(reg)
	case address <= addr.NR44:
		v = a.ch4.Read(reg)
	case address == addr.NR50:
		v = a.nr50
	case address == addr.NR51:
		v = a.nr51
	case address == addr.NR52:
		v = a.status()
	}
	return v | readMasks[address-addr.NR10]
}

func (a *APU) status() uint8 {
	var v uint8
	v = bit.SetTo(7, v, a.enabled)
	v = bit.SetTo(0, v, a.ch1.Enabled)
	v = bit.SetTo(1, v, a.ch2.Enabled)
	v = bit.SetTo(2, v, a.ch3.Enabled)
	v = bit.SetTo(3, v, a.ch4.Enabled)
	return v
}

// WriteRegister serves NR10-NR52 and wave RAM. While powered off, only NR52
// and wave RAM accept writes.
func (a *APU) WriteRegister(address uint16, value uint8) {
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		a.ch3.Table[address-addr.WaveRAMStart] = value
		return
	}
	if address == addr.NR52 {
		a.setPower(bit.IsSet(7, value))
		return
	}
	if !a.enabled || address < addr.NR10 || address > addr.NR51 {
		return
	}

	reg := int(address-addr.NR10) % 5
	switch {
	case address <= addr.NR14:
		a.ch1.Write(reg, value)
	case address <= addr.NR24:
		a.ch2.Write(reg, value)
	case address <= addr.NR34:
		a.ch3.Write(reg, value)
	case address <= addr.NR44:
		a.ch4.Write(reg, value)
	case address == addr.NR50:
		a.nr50 = value
	case address == addr.NR51:
		a.nr51 = value
	}
}

// setPower handles NR52 bit 7. Powering off clears every register except
// wave RAM; powering on restarts the frame sequencer.
func (a *APU) setPower(on bool) {
	switch {
	case a.enabled && !on:
		table := a.ch3.Table
		a.ch1 = newSquare(true)
		a.ch2 = newSquare(false)
		a.ch3 = newWave()
		a.ch3.Table = table
		a.ch4 = newNoise()
		a.nr50, a.nr51 = 0, 0
	case !a.enabled && on:
		a.step = 0
		a.stepCycles = 0
	}
	a.enabled = on
}

// Enabled reports NR52 bit 7.
func (a *APU) Enabled() bool { return a.enabled }

// Channel1 through Channel4 expose the channels for inspection.
func (a *APU) Channel1() *Square { return &a.ch1 }
func (a *APU) Channel2() *Square { return &a.ch2 }
func (a *APU) Channel3() *Wave   { return &a.ch3 }
func (a *APU) Channel4() *Noise  { return &a.ch4 }

// ToggleChannel mutes or unmutes channel 1-4 in the mix. Safe to call from
// the host goroutine.
func (a *APU) ToggleChannel(channel int) {
	if channel < 1 || channel > 4 {
		return
	}
	for {
		old := a.muted.Load()
		if a.muted.CompareAndSwap(old, old^1<<(channel-1)) {
			return
		}
	}
}

// SoloChannel mutes every channel except channel; 0 unmutes all.
func (a *APU) SoloChannel(channel int) {
	if channel < 1 || channel > 4 {
		a.muted.Store(0)
		return
	}
	a.muted.Store(0x0F &^ (1 << (channel - 1)))
}

// ChannelStatus reports, per channel, whether it is enabled and audible.
func (a *APU) ChannelStatus() (ch1, ch2, ch3, ch4 bool) {
	m := a.muted.Load()
	return a.ch1.Enabled && m&1 == 0,
		a.ch2.Enabled && m&2 == 0,
		a.ch3.Enabled && m&4 == 0,
		a.ch4.Enabled && m&8 == 0
}

// Attach maps the sound registers and wave RAM.
func (a *APU) Attach(b *bus.Bus) {
	b.Map(addr.IO, bus.Range(addr.NR10, addr.WaveRAMEnd, a.ReadRegister, a.WriteRegister))
}
