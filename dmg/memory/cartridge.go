package memory

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/bus"
)

const (
	ROMBankSize = 0x4000
	RAMBankSize = 0x2000

	// smallRAMSize is the single undersized bank declared by RAM code 0x01.
	smallRAMSize = 0x0800
)

// Controller identifies the bank controller chip on the cartridge.
type Controller uint8

const (
	NoMBC Controller = iota
	MBC1
	MBC3
	MBC5
)

func (c Controller) String() string {
	switch c {
	case NoMBC:
		return "none"
	case MBC1:
		return "MBC1"
	case MBC3:
		return "MBC3"
	case MBC5:
		return "MBC5"
	}
	return fmt.Sprintf("controller(%d)", uint8(c))
}

// Header holds the fields of the cartridge header the core depends on.
type Header struct {
	Title      string
	Type       uint8
	ROMCode    uint8
	RAMCode    uint8
	Controller Controller
	HasBattery bool
	HasRTC     bool
}

// Cartridge holds the ROM and external RAM banks and the bank indices a
// controller has selected. Bank selection never leaves an index outside the
// parsed bank count.
type Cartridge struct {
	Header

	rom [][]byte
	ram [][]byte

	decoder decoder
	clock   Clock
	state   bankState
	rtc     rtc
	logger  *slog.Logger
}

// bankState is the part of the cartridge a controller mutates.
type bankState struct {
	ROM0       int
	ROMN       int
	RAM        int
	RAMEnabled bool
	Mode       uint8 // MBC1 banking mode
	Low        uint8 // rom bank number register (low part)
	High       uint8 // secondary bank register (MBC1 upper bits, MBC5 bit 8)
	RAMReg     uint8 // MBC3/MBC5 RAM bank register
	RTCSelect  uint8 // MBC3: 0x08-0x0C when a clock register is mapped
	LatchArm   bool  // MBC3: last latch write was 0x00
}

// Option configures a Cartridge.
type Option func(*Cartridge)

// WithClock sets the time source of an MBC3 real time clock.
func WithClock(c Clock) Option { return func(cart *Cartridge) { cart.clock = c } }

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l *slog.Logger) Option { return func(cart *Cartridge) { cart.logger = l } }

// NewCartridge validates a ROM image and slices it into banks.
func NewCartridge(data []byte, opts ...Option) (*Cartridge, error) {
	if len(data) < int(addr.HeaderEnd) {
		return nil, &ConfigurationError{Field: "length", Value: len(data), Err: ErrHeaderTooShort}
	}

	romCode := data[addr.HeaderROMSize]
	banks, ok := romBankCount(romCode)
	if !ok {
		return nil, &ConfigurationError{Field: "rom size", Value: int(romCode), Err: ErrUnsupportedROMSize}
	}
	if want := banks * ROMBankSize; len(data) != want {
		return nil, &ConfigurationError{
			Field: "rom size",
			Value: int(romCode),
			Err:   fmt.Errorf("%w: header declares %d bytes, file has %d", ErrROMSizeMismatch, want, len(data)),
		}
	}

	cartType := data[addr.HeaderType]
	info, ok := cartridgeTypes[cartType]
	if !ok {
		return nil, &ConfigurationError{Field: "type", Value: int(cartType), Err: ErrUnsupportedMBC}
	}

	ramCode := data[addr.HeaderRAMSize]
	ramBanks, ramSize, ok := ramLayout(ramCode)
	if !ok {
		return nil, &ConfigurationError{Field: "ram size", Value: int(ramCode), Err: ErrUnsupportedRAMSize}
	}

	c := &Cartridge{
		Header: Header{
			Title:      cleanTitle(data[addr.HeaderTitle:addr.HeaderTitleEnd]),
			Type:       cartType,
			ROMCode:    romCode,
			RAMCode:    ramCode,
			Controller: info.controller,
			HasBattery: info.battery,
			HasRTC:     info.rtc,
		},
		rom:    make([][]byte, banks),
		ram:    make([][]byte, ramBanks),
		clock:  systemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	for i := range c.rom {
		c.rom[i] = make([]byte, ROMBankSize)
		copy(c.rom[i], data[i*ROMBankSize:])
	}
	for i := range c.ram {
		c.ram[i] = make([]byte, ramSize)
	}

	c.decoder = decoders[c.Controller]
	c.state = bankState{ROMN: 1, Low: 1}
	if c.Controller == NoMBC {
		c.state.RAMEnabled = len(c.ram) > 0
	}
	if c.HasRTC {
		c.rtc.reset(c.clock.Now())
	}

	c.logger.Debug("cartridge loaded",
		"title", c.Title,
		"controller", c.Controller,
		"rom_banks", len(c.rom),
		"ram_banks", len(c.ram),
		"battery", c.HasBattery)

	return c, nil
}

// ROMBanks returns the number of 16 KiB ROM banks.
func (c *Cartridge) ROMBanks() int { return len(c.rom) }

// RAMBanks returns the number of external RAM banks.
func (c *Cartridge) RAMBanks() int { return len(c.ram) }

// ActiveBanks returns the ROM bank mapped at 0x0000, the one mapped at 0x4000
// and the selected RAM bank.
func (c *Cartridge) ActiveBanks() (rom0, romN, ram int) {
	return c.state.ROM0, c.state.ROMN, c.state.RAM
}

// RAMEnabled reports whether external RAM accepts accesses.
func (c *Cartridge) RAMEnabled() bool { return c.state.RAMEnabled }

// Read serves reads in 0x0000-0x7FFF and 0xA000-0xBFFF.
func (c *Cartridge) Read(address uint16) uint8 {
	switch {
	case address < 0x4000:
		return c.rom[c.state.ROM0][address]
	case address < 0x8000:
		return c.rom[c.state.ROMN][address-0x4000]
	case address >= 0xA000 && address < 0xC000:
		return c.readRAM(address - 0xA000)
	}
	return bus.OpenBus
}

// Write decodes control writes in 0x0000-0x7FFF and stores to external RAM
// in 0xA000-0xBFFF. A bank selection the cartridge cannot honour leaves the
// state untouched and returns an error wrapping ErrBankOutOfRange.
func (c *Cartridge) Write(address uint16, value uint8) error {
	if address < 0x8000 {
		return c.decoder.write(c, address, value)
	}
	if address >= 0xA000 && address < 0xC000 {
		c.writeRAM(address-0xA000, value)
	}
	return nil
}

func (c *Cartridge) readRAM(offset uint16) uint8 {
	if !c.state.RAMEnabled {
		return bus.OpenBus
	}
	if c.state.RTCSelect != 0 {
		return c.rtc.read(c.state.RTCSelect)
	}
	if len(c.ram) == 0 {
		return bus.OpenBus
	}
	bank := c.ram[c.state.RAM]
	if int(offset) >= len(bank) {
		return bus.OpenBus
	}
	return bank[offset]
}

func (c *Cartridge) writeRAM(offset uint16, value uint8) {
	if !c.state.RAMEnabled {
		return
	}
	if c.state.RTCSelect != 0 {
		c.rtc.write(c.state.RTCSelect, value, c.clock.Now())
		return
	}
	if len(c.ram) == 0 {
		return
	}
	bank := c.ram[c.state.RAM]
	if int(offset) < len(bank) {
		bank[offset] = value
	}
}

// Attach registers the cartridge on the ROM and external RAM regions of b.
// Bank selection failures are latched on the bus.
func (c *Cartridge) Attach(b *bus.Bus) {
	h := bus.Funcs{
		ReadFunc: func(a uint16) (uint8, bool) { return c.Read(a), true },
		WriteFunc: func(a uint16, v uint8) bool {
			if err := c.Write(a, v); err != nil {
				c.logger.Error("bank selection failed", "address", fmt.Sprintf("%04X", a), "value", v, "error", err)
				b.Fail(err)
			}
			return true
		},
	}
	b.Map(addr.ROMBank0, h)
	b.Map(addr.ROMBankN, h)
	b.Map(addr.ExtRAM, h)
}

type typeInfo struct {
	controller Controller
	battery    bool
	rtc        bool
}

var cartridgeTypes = map[uint8]typeInfo{
	0x00: {controller: NoMBC},
	0x08: {controller: NoMBC},
	0x09: {controller: NoMBC, battery: true},
	0x01: {controller: MBC1},
	0x02: {controller: MBC1},
	0x03: {controller: MBC1, battery: true},
	0x0F: {controller: MBC3, battery: true, rtc: true},
	0x10: {controller: MBC3, battery: true, rtc: true},
	0x11: {controller: MBC3},
	0x12: {controller: MBC3},
	0x13: {controller: MBC3, battery: true},
	0x19: {controller: MBC5},
	0x1A: {controller: MBC5},
	0x1B: {controller: MBC5, battery: true},
	0x1C: {controller: MBC5},
	0x1D: {controller: MBC5},
	0x1E: {controller: MBC5, battery: true},
}

func romBankCount(code uint8) (int, bool) {
	switch {
	case code <= 0x08:
		return 2 << code, true
	case code == 0x52:
		return 72, true
	case code == 0x53:
		return 80, true
	case code == 0x54:
		return 96, true
	}
	return 0, false
}

func ramLayout(code uint8) (banks, size int, ok bool) {
	switch code {
	case 0x00:
		return 0, 0, true
	case 0x01:
		return 1, smallRAMSize, true
	case 0x02:
		return 1, RAMBankSize, true
	case 0x03:
		return 4, RAMBankSize, true
	case 0x04:
		return 16, RAMBankSize, true
	case 0x05:
		return 8, RAMBankSize, true
	}
	return 0, 0, false
}
