package memory

import (
	"fmt"
	"slices"
)

// CartridgeState is the mutable part of a cartridge: bank registers, external
// RAM contents and the clock. ROM is not part of it.
type CartridgeState struct {
	ROM0       int
	ROMN       int
	RAMBank    int
	RAMEnabled bool
	Mode       uint8
	Low        uint8
	High       uint8
	RAMReg     uint8
	RTCSelect  uint8
	LatchArm   bool
	RAM        [][]byte
	RTCLive    [5]uint8
	RTCLatched [5]uint8
	RTCLast    int64
}

func (c *Cartridge) State() CartridgeState {
	ram := make([][]byte, len(c.ram))
	for i, bank := range c.ram {
		ram[i] = slices.Clone(bank)
	}
	return CartridgeState{
		ROM0:       c.state.ROM0,
		ROMN:       c.state.ROMN,
		RAMBank:    c.state.RAM,
		RAMEnabled: c.state.RAMEnabled,
		Mode:       c.state.Mode,
		Low:        c.state.Low,
		High:       c.state.High,
		RAMReg:     c.state.RAMReg,
		RTCSelect:  c.state.RTCSelect,
		LatchArm:   c.state.LatchArm,
		RAM:        ram,
		RTCLive:    c.rtc.Live,
		RTCLatched: c.rtc.Latched,
		RTCLast:    c.rtc.Last,
	}
}

// SetState restores a state taken from a cartridge built from the same ROM.
func (c *Cartridge) SetState(s CartridgeState) error {
	if s.ROM0 < 0 || s.ROM0 >= len(c.rom) || s.ROMN < 0 || s.ROMN >= len(c.rom) {
		return fmt.Errorf("restore cartridge: %w: rom banks %d/%d of %d", ErrBankOutOfRange, s.ROM0, s.ROMN, len(c.rom))
	}
	if len(s.RAM) != len(c.ram) || (len(c.ram) > 0 && (s.RAMBank < 0 || s.RAMBank >= len(c.ram))) {
		return fmt.Errorf("restore cartridge: %w: ram bank %d of %d", ErrBankOutOfRange, s.RAMBank, len(c.ram))
	}
	for i, bank := range s.RAM {
		if len(bank) != len(c.ram[i]) {
			return fmt.Errorf("restore cartridge: ram bank %d has %d bytes, want %d", i, len(bank), len(c.ram[i]))
		}
	}

	c.state = bankState{
		ROM0:       s.ROM0,
		ROMN:       s.ROMN,
		RAM:        s.RAMBank,
		RAMEnabled: s.RAMEnabled,
		Mode:       s.Mode,
		Low:        s.Low,
		High:       s.High,
		RAMReg:     s.RAMReg,
		RTCSelect:  s.RTCSelect,
		LatchArm:   s.LatchArm,
	}
	for i, bank := range s.RAM {
		copy(c.ram[i], bank)
	}
	c.rtc = rtc{Live: s.RTCLive, Latched: s.RTCLatched, Last: s.RTCLast}
	return nil
}

// TimerState holds the divider and counter registers with their accumulators.
type TimerState struct {
	DIV    uint8
	DIVAcc int
	TIMA   uint8
	TMA    uint8
	TAC    uint8
	Acc    int
}

func (t *Timer) State() TimerState {
	return TimerState{DIV: t.div, DIVAcc: t.divAcc, TIMA: t.tima, TMA: t.tma, TAC: t.tac, Acc: t.acc}
}

func (t *Timer) SetState(s TimerState) {
	t.div, t.divAcc = s.DIV, s.DIVAcc
	t.tima, t.tma, t.tac, t.acc = s.TIMA, s.TMA, s.TAC&0x07, s.Acc
}

// RAMState holds work RAM and high RAM.
type RAMState struct {
	Work [0x2000]uint8
	High [0x7F]uint8
}

func (r *RAM) State() RAMState {
	return RAMState{Work: r.work, High: r.high}
}

func (r *RAM) SetState(s RAMState) {
	r.work, r.high = s.Work, s.High
}

// JoypadState holds the row selection and the last visible lines. Held keys
// belong to the host and are not saved.
type JoypadState struct {
	Selection uint8
	Lines     uint8
}

func (j *Joypad) State() JoypadState {
	return JoypadState{Selection: j.selection, Lines: j.lines}
}

func (j *Joypad) SetState(s JoypadState) {
	j.selection, j.lines = s.Selection&0x30, s.Lines&0x0F
}
