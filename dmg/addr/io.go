package addr

// joypad and serial
const (
	// P1 selects the joypad row (bits 4-5) and reads the pressed keys (bits 0-3, active low).
	P1 uint16 = 0xFF00
	// SB holds the byte to shift out over the link port.
	SB uint16 = 0xFF01
	// SC starts a transfer when bit 7 is written; bit 0 selects the internal clock.
	SC uint16 = 0xFF02
)

// timers
const (
	// DIV is the divider register, incremented every 64 machine cycles. Any write clears it.
	DIV uint16 = 0xFF04
	// TIMA is the timer counter. It requests an interrupt when it overflows.
	TIMA uint16 = 0xFF05
	// TMA is the value loaded into TIMA on overflow.
	TMA uint16 = 0xFF06
	// TAC enables the timer (bit 2) and selects its period (bits 0-1).
	TAC uint16 = 0xFF07
)

// interrupts
const (
	// IF is the interrupt request register.
	IF uint16 = 0xFF0F
	// IE is the interrupt enable register.
	IE uint16 = 0xFFFF
)

// sound registers
const (
	NR10 uint16 = 0xFF10 // ch1 sweep
	NR11 uint16 = 0xFF11 // ch1 duty, length
	NR12 uint16 = 0xFF12 // ch1 envelope
	NR13 uint16 = 0xFF13 // ch1 period low
	NR14 uint16 = 0xFF14 // ch1 trigger, length enable, period high

	NR21 uint16 = 0xFF16
	NR22 uint16 = 0xFF17
	NR23 uint16 = 0xFF18
	NR24 uint16 = 0xFF19

	NR30 uint16 = 0xFF1A // ch3 DAC enable
	NR31 uint16 = 0xFF1B
	NR32 uint16 = 0xFF1C // ch3 output level
	NR33 uint16 = 0xFF1D
	NR34 uint16 = 0xFF1E

	NR41 uint16 = 0xFF20
	NR42 uint16 = 0xFF21
	NR43 uint16 = 0xFF22 // ch4 clock shift, width, divisor
	NR44 uint16 = 0xFF23

	NR50 uint16 = 0xFF24 // master volume
	NR51 uint16 = 0xFF25 // panning
	NR52 uint16 = 0xFF26 // power and channel status

	WaveRAMStart uint16 = 0xFF30
	WaveRAMEnd   uint16 = 0xFF3F
)

// lcd registers
const (
	// LCDC is the LCD control register.
	LCDC uint16 = 0xFF40
	// STAT holds the interrupt selection bits, the coincidence flag and the current mode.
	STAT uint16 = 0xFF41
	SCY  uint16 = 0xFF42
	SCX  uint16 = 0xFF43
	// LY is the line currently being drawn. Read only.
	LY  uint16 = 0xFF44
	LYC uint16 = 0xFF45
	// DMA starts an OAM transfer from (value << 8).
	DMA  uint16 = 0xFF46
	BGP  uint16 = 0xFF47
	OBP0 uint16 = 0xFF48
	OBP1 uint16 = 0xFF49
	WY   uint16 = 0xFF4A
	WX   uint16 = 0xFF4B
)

// video memory layout
const (
	// TileData0 is the base of the unsigned tile set (tiles 0-255).
	TileData0 uint16 = 0x8000
	// TileData2 is the zero point of the signed tile set (tiles -128 to 127).
	TileData2 uint16 = 0x9000
	TileMap0  uint16 = 0x9800
	TileMap1  uint16 = 0x9C00
	OAMStart  uint16 = 0xFE00
	OAMEnd    uint16 = 0xFE9F
)

// cartridge header
const (
	HeaderTitle    uint16 = 0x0134
	HeaderTitleEnd uint16 = 0x0143
	HeaderType     uint16 = 0x0147
	HeaderROMSize  uint16 = 0x0148
	HeaderRAMSize  uint16 = 0x0149
	HeaderChecksum uint16 = 0x014D
	HeaderEnd      uint16 = 0x0150
)

// Interrupt is a single bit of the IE/IF registers.
type Interrupt uint8

const (
	// VBlankInterrupt is requested when the PPU enters vertical blank.
	VBlankInterrupt Interrupt = 1 << iota
	// LCDSTATInterrupt is requested on the STAT conditions selected in bits 3-6.
	LCDSTATInterrupt
	// TimerInterrupt is requested when TIMA overflows.
	TimerInterrupt
	// SerialInterrupt is requested when a link transfer completes.
	SerialInterrupt
	// JoypadInterrupt is requested when a selected key goes from released to pressed.
	JoypadInterrupt
)

// Vector returns the address the CPU jumps to when servicing the interrupt.
func (i Interrupt) Vector() uint16 {
	v := uint16(0x40)
	for b := i; b > 1; b >>= 1 {
		v += 8
	}
	return v
}
