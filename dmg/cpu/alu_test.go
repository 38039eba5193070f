package cpu

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister16(t *testing.T) {
	var r Register16
	r.Set(0x1234)
	assert.Equal(t, uint8(0x12), r.Hi())
	assert.Equal(t, uint8(0x34), r.Lo())

	r.SetHi(0xAB)
	assert.Equal(t, uint16(0xAB34), r.Get())
	r.SetLo(0xCD)
	assert.Equal(t, uint16(0xABCD), r.Get())
}

func TestAFLowNibbleIsAlwaysZero(t *testing.T) {
	c, _, _ := newTestCPU()
	c.SetAF(0x12FF)
	assert.Equal(t, uint16(0x12F0), c.AF())

	// POP AF goes through the same path
	c2, b, _ := newTestCPU(0xF1)
	c2.SetSP(0xC000)
	b.mem[0xC000] = 0xFF
	b.mem[0xC001] = 0x34
	require.NoError(t, c2.StepOver())
	assert.Equal(t, uint16(0x34F0), c2.AF())
}

func TestIncAWrapsToZero(t *testing.T) {
	for _, carry := range []bool{false, true} {
		t.Run(fmt.Sprintf("carry=%v", carry), func(t *testing.T) {
			c, _, _ := newTestCPU(0x3C)
			c.setA(0xFF)
			c.setFlags(false, true, false, carry)

			require.NoError(t, c.StepOver())

			assert.Equal(t, uint8(0x00), c.A())
			assert.True(t, c.isSetFlag(zeroFlag))
			assert.True(t, c.isSetFlag(halfCarryFlag))
			assert.False(t, c.isSetFlag(subFlag))
			assert.Equal(t, carry, c.isSetFlag(carryFlag))
		})
	}
}

func TestALUFlags(t *testing.T) {
	tests := []struct {
		desc    string
		op      aluOp
		a, v    uint8
		carryIn bool
		want    uint8
		flags   Flag
	}{
		{"add", aluADD, 0x12, 0x34, false, 0x46, 0},
		{"add half carry", aluADD, 0x0F, 0x01, false, 0x10, halfCarryFlag},
		{"add overflow to zero", aluADD, 0xFF, 0x01, false, 0x00, zeroFlag | halfCarryFlag | carryFlag},
		{"adc uses carry", aluADC, 0x0E, 0x01, true, 0x10, halfCarryFlag},
		{"adc carry to zero", aluADC, 0xFE, 0x01, true, 0x00, zeroFlag | halfCarryFlag | carryFlag},
		{"sub", aluSUB, 0x3E, 0x0E, false, 0x30, subFlag},
		{"sub half borrow", aluSUB, 0x10, 0x01, false, 0x0F, subFlag | halfCarryFlag},
		{"sub borrow", aluSUB, 0x00, 0x01, false, 0xFF, subFlag | halfCarryFlag | carryFlag},
		{"sub to zero", aluSUB, 0x42, 0x42, false, 0x00, zeroFlag | subFlag},
		{"sbc uses carry", aluSBC, 0x10, 0x0F, true, 0x00, zeroFlag | subFlag | halfCarryFlag},
		{"and", aluAND, 0xF0, 0x0F, false, 0x00, zeroFlag | halfCarryFlag},
		{"xor", aluXOR, 0xFF, 0x0F, false, 0xF0, 0},
		{"or", aluOR, 0x00, 0x00, false, 0x00, zeroFlag},
		{"cp equal keeps A", aluCP, 0x42, 0x42, false, 0x42, zeroFlag | subFlag},
		{"cp less", aluCP, 0x10, 0x20, false, 0x10, subFlag | carryFlag},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			c, _, _ := newTestCPU()
			c.setA(tt.a)
			c.setFlags(false, false, false, tt.carryIn)

			c.alu(tt.op, tt.v)

			assert.Equal(t, tt.want, c.A())
			assert.Equal(t, uint8(tt.flags), c.F())
		})
	}
}

func TestZeroFlagMatchesResultForAllOperands(t *testing.T) {
	c, _, _ := newTestCPU()
	for op := aluADD; op <= aluCP; op++ {
		for a := 0; a < 256; a++ {
			for v := 0; v < 256; v++ {
				for _, carry := range []bool{false, true} {
					c.setA(uint8(a))
					c.setFlags(false, false, false, carry)
					c.alu(op, uint8(v))

					result := c.A()
					if op == aluCP {
						result = uint8(a) - uint8(v)
					}
					if c.isSetFlag(zeroFlag) != (result == 0) || c.F()&0x0F != 0 {
						t.Fatalf("%s a=%02X v=%02X carry=%v: result %02X flags %02X", aluNames[op], a, v, carry, result, c.F())
					}
				}
			}
		}
	}
}

func TestIncDecPreserveCarry(t *testing.T) {
	tests := []struct {
		desc  string
		inc   bool
		v     uint8
		want  uint8
		flags Flag
	}{
		{"inc", true, 0x0A, 0x0B, carryFlag},
		{"inc half carry", true, 0x0F, 0x10, halfCarryFlag | carryFlag},
		{"inc wraps", true, 0xFF, 0x00, zeroFlag | halfCarryFlag | carryFlag},
		{"dec", false, 0x0B, 0x0A, subFlag | carryFlag},
		{"dec half borrow", false, 0x10, 0x0F, subFlag | halfCarryFlag | carryFlag},
		{"dec to zero", false, 0x01, 0x00, zeroFlag | subFlag | carryFlag},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			c, _, _ := newTestCPU()
			c.setFlags(false, false, false, true)
			var got uint8
			if tt.inc {
				got = c.inc(tt.v)
			} else {
				got = c.dec(tt.v)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, uint8(tt.flags), c.F())
		})
	}
}

func TestAddToHL(t *testing.T) {
	c, _, _ := newTestCPU()
	c.setFlags(true, true, false, false)
	c.SetHL(0x0FFF)
	c.addToHL(0x0001)
	assert.Equal(t, uint16(0x1000), c.HL())
	assert.Equal(t, uint8(zeroFlag|halfCarryFlag), c.F(), "Z is preserved, N cleared")

	c.SetHL(0xFFFF)
	c.addToHL(0x0001)
	assert.Equal(t, uint16(0x0000), c.HL())
	assert.Equal(t, uint8(zeroFlag|halfCarryFlag|carryFlag), c.F())
}

func TestAddSPSigned(t *testing.T) {
	c, _, _ := newTestCPU()
	c.SetSP(0x00FF)
	assert.Equal(t, uint16(0x0100), c.addSPSigned(0x01))
	assert.Equal(t, uint8(halfCarryFlag|carryFlag), c.F())

	c.SetSP(0x1000)
	assert.Equal(t, uint16(0x0FFE), c.addSPSigned(0xFE))
	assert.Equal(t, uint8(0), c.F())
}

func TestDAA(t *testing.T) {
	tests := []struct {
		desc  string
		a     uint8
		flags Flag
		want  uint8
		out   Flag
	}{
		{"valid bcd", 0x45, 0, 0x45, 0},
		{"low nibble over 9", 0x1A, 0, 0x20, 0},
		{"after 0x99+0x01", 0x9A, 0, 0x00, zeroFlag | carryFlag},
		{"half carry set", 0x12, halfCarryFlag, 0x18, 0},
		{"carry set", 0x12, carryFlag, 0x72, carryFlag},
		{"subtract with half borrow", 0x0F, subFlag | halfCarryFlag, 0x09, subFlag},
		{"subtract with borrow", 0xF0, subFlag | carryFlag, 0x90, subFlag | carryFlag},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			c, _, _ := newTestCPU()
			c.setA(tt.a)
			c.af.SetLo(uint8(tt.flags))
			c.daa()
			assert.Equal(t, tt.want, c.A())
			assert.Equal(t, uint8(tt.out), c.F())
		})
	}
}

func TestDAAAddsDecimal(t *testing.T) {
	c, _, _ := newTestCPU()
	for x := 0; x < 100; x++ {
		for y := 0; y < 100; y++ {
			bx := uint8(x/10<<4 | x%10)
			by := uint8(y/10<<4 | y%10)
			c.setA(bx)
			c.alu(aluADD, by)
			c.daa()

			sum := (x + y) % 100
			want := uint8(sum/10<<4 | sum%10)
			if c.A() != want || c.isSetFlag(carryFlag) != (x+y >= 100) {
				t.Fatalf("%d+%d: got %02X carry=%v, want %02X", x, y, c.A(), c.isSetFlag(carryFlag), want)
			}
		}
	}
}

func TestShifts(t *testing.T) {
	tests := []struct {
		op      shiftOp
		v       uint8
		carryIn bool
		want    uint8
		carry   bool
	}{
		{shiftRLC, 0x85, false, 0x0B, true},
		{shiftRRC, 0x01, false, 0x80, true},
		{shiftRL, 0x80, false, 0x00, true},
		{shiftRL, 0x11, true, 0x23, false},
		{shiftRR, 0x01, true, 0x80, true},
		{shiftSLA, 0xFF, false, 0xFE, true},
		{shiftSRA, 0x8A, false, 0xC5, false},
		{shiftSWAP, 0xF1, true, 0x1F, false},
		{shiftSRL, 0x01, false, 0x00, true},
	}

	for _, tt := range tests {
		t.Run(shiftNames[tt.op], func(t *testing.T) {
			c, _, _ := newTestCPU()
			c.setFlags(false, false, false, tt.carryIn)
			got := c.shift(tt.op, tt.v)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.carry, c.isSetFlag(carryFlag))
			assert.Equal(t, got == 0, c.isSetFlag(zeroFlag))
		})
	}
}

func TestAccumulatorRotateClearsZero(t *testing.T) {
	c, _, _ := newTestCPU(0x17) // RLA
	c.setA(0x80)
	c.setFlags(true, false, false, false)
	require.NoError(t, c.StepOver())
	assert.Equal(t, uint8(0), c.A())
	assert.Equal(t, uint8(carryFlag), c.F())
}

func TestBitResSet(t *testing.T) {
	// BIT 7,H ; RES 0,A ; SET 3,(HL)
	c, b, _ := newTestCPU(0xCB, 0x7C, 0xCB, 0x87, 0xCB, 0xDE)
	c.SetHL(0x7FC0)
	c.setA(0xFF)
	c.setFlags(false, true, false, true)

	require.NoError(t, c.StepOver())
	assert.Equal(t, uint8(zeroFlag|halfCarryFlag|carryFlag), c.F())

	require.NoError(t, c.StepOver())
	assert.Equal(t, uint8(0xFE), c.A())

	require.NoError(t, c.StepOver())
	assert.Equal(t, uint8(0x08), b.mem[0x7FC0])
}
