package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-dmgcore/dmg/addr"
)

func TestBootRegisters(t *testing.T) {
	c, _, _ := newTestCPU()
	assert.Equal(t, uint16(0x01B0), c.AF())
	assert.Equal(t, uint16(0x0013), c.BC())
	assert.Equal(t, uint16(0x00D8), c.DE())
	assert.Equal(t, uint16(0x014D), c.HL())
	assert.Equal(t, uint16(0xFFFE), c.SP())
	assert.Equal(t, uint16(0x0100), c.PC())
	assert.Equal(t, "Z-HC", c.FlagString())
}

func TestInstructionCycles(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		flags   Flag
		cycles  int
	}{
		{"NOP", []uint8{0x00}, 0, 1},
		{"LD B,C", []uint8{0x41}, 0, 1},
		{"LD B,(HL)", []uint8{0x46}, 0, 2},
		{"LD (HL),n", []uint8{0x36, 0x12}, 0, 3},
		{"INC (HL)", []uint8{0x34}, 0, 3},
		{"LD BC,nn", []uint8{0x01, 0x34, 0x12}, 0, 3},
		{"INC BC", []uint8{0x03}, 0, 2},
		{"ADD HL,BC", []uint8{0x09}, 0, 2},
		{"LD (nn),SP", []uint8{0x08, 0x00, 0xC0}, 0, 5},
		{"PUSH BC", []uint8{0xC5}, 0, 4},
		{"POP BC", []uint8{0xC1}, 0, 3},
		{"JP nn", []uint8{0xC3, 0x00, 0x02}, 0, 4},
		{"JP NZ taken", []uint8{0xC2, 0x00, 0x02}, 0, 4},
		{"JP NZ not taken", []uint8{0xC2, 0x00, 0x02}, zeroFlag, 3},
		{"JP HL", []uint8{0xE9}, 0, 1},
		{"JR e", []uint8{0x18, 0x05}, 0, 3},
		{"JR Z not taken", []uint8{0x28, 0x05}, 0, 2},
		{"JR Z taken", []uint8{0x28, 0x05}, zeroFlag, 3},
		{"CALL nn", []uint8{0xCD, 0x00, 0x02}, 0, 6},
		{"CALL C not taken", []uint8{0xDC, 0x00, 0x02}, 0, 3},
		{"CALL C taken", []uint8{0xDC, 0x00, 0x02}, carryFlag, 6},
		{"RET", []uint8{0xC9}, 0, 4},
		{"RET NC taken", []uint8{0xD0}, 0, 5},
		{"RET NC not taken", []uint8{0xD0}, carryFlag, 2},
		{"RETI", []uint8{0xD9}, 0, 4},
		{"RST 38H", []uint8{0xFF}, 0, 4},
		{"LDH (n),A", []uint8{0xE0, 0x80}, 0, 3},
		{"LD (C),A", []uint8{0xE2}, 0, 2},
		{"LD (nn),A", []uint8{0xEA, 0x00, 0xC0}, 0, 4},
		{"ADD SP,e", []uint8{0xE8, 0x02}, 0, 4},
		{"LD HL,SP+e", []uint8{0xF8, 0x02}, 0, 3},
		{"LD SP,HL", []uint8{0xF9}, 0, 2},
		{"ADD A,n", []uint8{0xC6, 0x01}, 0, 2},
		{"RLC B", []uint8{0xCB, 0x00}, 0, 2},
		{"RLC (HL)", []uint8{0xCB, 0x06}, 0, 4},
		{"BIT 0,(HL)", []uint8{0xCB, 0x46}, 0, 3},
		{"SET 0,(HL)", []uint8{0xCB, 0xC6}, 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, clk := newTestCPU(tt.program...)
			c.SetHL(0xC000)
			c.SetSP(0xD000)
			c.af.SetLo(uint8(tt.flags))

			cycles, err := stepCycles(c, clk)
			require.NoError(t, err)
			assert.Equal(t, tt.cycles, cycles)
			assert.Equal(t, uint64(cycles), c.Cycles())
		})
	}
}

func TestCallAndReturn(t *testing.T) {
	c, b, _ := newTestCPU(0xCD, 0x00, 0x02)
	b.mem[0x0200] = 0xC9
	c.SetSP(0xD000)

	require.NoError(t, c.StepOver())
	assert.Equal(t, uint16(0x0200), c.PC())
	assert.Equal(t, uint16(0xCFFE), c.SP())
	assert.Equal(t, uint8(0x01), b.mem[0xCFFF])
	assert.Equal(t, uint8(0x03), b.mem[0xCFFE])

	require.NoError(t, c.StepOver())
	assert.Equal(t, uint16(0x0103), c.PC())
	assert.Equal(t, uint16(0xD000), c.SP())
}

func TestInterruptPriority(t *testing.T) {
	for pending := uint8(1); pending < 0x20; pending++ {
		c, b, clk := newTestCPU(0x00)
		c.SetSP(0xD000)
		c.SetIME(true)
		ints := c.Interrupts()
		ints.enable = 0x1F
		ints.request = pending

		lowest := addr.Interrupt(pending & -pending)
		cycles, err := stepCycles(c, clk)
		require.NoError(t, err)

		assert.Equal(t, 5, cycles)
		assert.Equal(t, lowest.Vector(), c.PC(), "pending %05b", pending)
		assert.Equal(t, pending&^uint8(lowest), ints.Requested())
		assert.False(t, c.IME())
		assert.Equal(t, uint8(0x01), b.mem[0xCFFF])
		assert.Equal(t, uint8(0x00), b.mem[0xCFFE])
	}
}

func TestInterruptsRequireEnableBits(t *testing.T) {
	c, _, _ := newTestCPU(0x00)
	c.SetIME(true)
	c.Interrupts().Request(addr.TimerInterrupt)
	c.Interrupts().enable = uint8(addr.VBlankInterrupt)

	require.NoError(t, c.StepOver())
	assert.Equal(t, uint16(0x0101), c.PC())
}

func TestEIHasOneInstructionLatency(t *testing.T) {
	c, _, _ := newTestCPU(0xFB, 0x00, 0x00)
	c.Interrupts().enable = 0x01
	c.Interrupts().Request(addr.VBlankInterrupt)

	require.NoError(t, c.StepOver()) // EI
	assert.False(t, c.IME())
	require.NoError(t, c.StepOver()) // NOP runs before the interrupt
	assert.Equal(t, uint16(0x0102), c.PC())
	assert.True(t, c.IME())
	require.NoError(t, c.StepOver())
	assert.Equal(t, uint16(0x0040), c.PC())
}

func TestDICancelsPendingEI(t *testing.T) {
	c, _, _ := newTestCPU(0xFB, 0xF3, 0x00)
	require.NoError(t, c.StepOver())
	require.NoError(t, c.StepOver())
	require.NoError(t, c.StepOver())
	assert.False(t, c.IME())
}

func TestHaltWaitsForInterrupt(t *testing.T) {
	c, _, clk := newTestCPU(0x76, 0x3C)
	c.Interrupts().enable = 0x04
	c.setA(0)

	require.NoError(t, c.StepOver())
	assert.Equal(t, Halted, c.Mode())

	for range 10 {
		cycles, err := stepCycles(c, clk)
		require.NoError(t, err)
		assert.Equal(t, 1, cycles)
	}
	assert.Equal(t, uint16(0x0101), c.PC())

	c.Interrupts().Request(addr.TimerInterrupt)
	require.NoError(t, c.StepOver())
	assert.Equal(t, Running, c.Mode())
	assert.Equal(t, uint8(1), c.A(), "IME off: execution resumes after HALT")
}

func TestHaltBugRepeatsNextByte(t *testing.T) {
	c, _, _ := newTestCPU(0x76, 0x3C, 0x00)
	c.Interrupts().enable = 0x01
	c.Interrupts().Request(addr.VBlankInterrupt)
	c.setA(0)

	require.NoError(t, c.StepOver())
	assert.Equal(t, HaltBug, c.Mode())

	require.NoError(t, c.StepOver())
	assert.Equal(t, uint16(0x0101), c.PC(), "the fetch did not advance PC")
	require.NoError(t, c.StepOver())
	assert.Equal(t, uint16(0x0102), c.PC())
	assert.Equal(t, uint8(2), c.A())
}

func TestEIHaltWithPendingInterrupt(t *testing.T) {
	c, b, _ := newTestCPU(0xFB, 0x76, 0x00)
	copy(b.mem[0x0040:], []uint8{0x3E, 0x42, 0xD9}) // LD A,$42; RETI
	c.SetSP(0xD000)
	c.Interrupts().enable = uint8(addr.VBlankInterrupt)
	c.Interrupts().Request(addr.VBlankInterrupt)

	require.NoError(t, c.StepOver()) // EI
	require.NoError(t, c.StepOver()) // HALT
	assert.True(t, c.IME())

	require.NoError(t, c.StepOver())
	assert.Equal(t, uint16(0x0040), c.PC())
	assert.Equal(t, Running, c.Mode())
	assert.Equal(t, uint8(0x01), b.mem[0xCFFF])
	assert.Equal(t, uint8(0x01), b.mem[0xCFFE], "returns to the HALT")

	require.NoError(t, c.StepOver())
	assert.Equal(t, uint8(0x42), c.A())
	assert.Equal(t, uint16(0x0042), c.PC())

	require.NoError(t, c.StepOver()) // RETI
	assert.Equal(t, uint16(0x0101), c.PC())
}

func TestStopWaitsForJoypad(t *testing.T) {
	c, _, _ := newTestCPU(0x10, 0x00, 0x3C)
	c.setA(0)
	require.NoError(t, c.StepOver())
	assert.Equal(t, Stopped, c.Mode())

	c.Interrupts().Request(addr.TimerInterrupt)
	require.NoError(t, c.StepOver())
	assert.Equal(t, Stopped, c.Mode())

	c.Interrupts().Request(addr.JoypadInterrupt)
	require.NoError(t, c.StepOver())
	assert.Equal(t, Running, c.Mode())
	assert.Equal(t, uint8(1), c.A())
}

func TestUnimplementedOpcodes(t *testing.T) {
	illegal := []uint8{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}
	count := 0
	for op := 0; op < 256; op++ {
		if !Implemented(uint8(op)) {
			count++
		}
	}
	assert.Equal(t, len(illegal), count)

	for _, op := range illegal {
		c, _, _ := newTestCPU(0x00, op)
		require.NoError(t, c.StepOver())

		err := c.StepOver()
		var execErr *ExecutionError
		require.True(t, errors.As(err, &execErr), "opcode %02X", op)
		assert.Equal(t, uint16(op), execErr.Opcode)
		assert.Equal(t, uint16(0x0101), execErr.PC)
		assert.Equal(t, Mnemonic(op), execErr.Mnemonic)
	}
}

func TestBusFaultEndsInstruction(t *testing.T) {
	c, b, _ := newTestCPU(0x00)
	fault := errors.New("bank 9 out of range")
	b.fault = fault

	err := c.StepOver()
	assert.ErrorIs(t, err, fault)
	assert.NoError(t, c.StepOver())
}

func TestMnemonics(t *testing.T) {
	tests := []struct {
		op   uint8
		want string
		len  int
	}{
		{0x00, "NOP", 1},
		{0x01, "LD BC,nn", 3},
		{0x3C, "INC A", 1},
		{0x77, "LD (HL),A", 1},
		{0x76, "HALT", 1},
		{0x86, "ADD A,(HL)", 1},
		{0xFE, "CP n", 2},
		{0x20, "JR NZ,e", 2},
		{0xF1, "POP AF", 1},
		{0xFF, "RST 38H", 1},
		{0xCB, "PREFIX CB", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Mnemonic(tt.op))
		assert.Equal(t, tt.len, Length(tt.op))
	}
	assert.Equal(t, "SWAP A", MnemonicCB(0x37))
	assert.Equal(t, "BIT 7,H", MnemonicCB(0x7C))
	assert.Equal(t, "SET 0,(HL)", MnemonicCB(0xC6))
}

func TestStateRoundTrip(t *testing.T) {
	c, _, _ := newTestCPU(0xFB, 0x3C, 0x04)
	c.Interrupts().enable = 0x15
	c.Interrupts().Request(addr.SerialInterrupt)
	require.NoError(t, c.StepOver())
	require.NoError(t, c.StepOver())
	saved := c.State()

	fresh, _, _ := newTestCPU()
	require.NoError(t, fresh.SetState(saved))
	assert.Equal(t, saved, fresh.State())
}
