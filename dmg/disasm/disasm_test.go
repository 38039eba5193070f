package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func reader(at uint16, program ...uint8) Reader {
	return func(address uint16) uint8 {
		if address >= at && int(address-at) < len(program) {
			return program[address-at]
		}
		return 0x00
	}
}

func TestAt(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		want    string
		length  int
	}{
		{"no operand", []uint8{0x00}, "NOP", 1},
		{"register load", []uint8{0x77}, "LD (HL),A", 1},
		{"immediate byte", []uint8{0x3E, 0x42}, "LD A,$42", 2},
		{"immediate word", []uint8{0x01, 0x34, 0x12}, "LD BC,$1234", 3},
		{"absolute store", []uint8{0xEA, 0x00, 0xC0}, "LD ($C000),A", 3},
		{"high page", []uint8{0xE0, 0x40}, "LDH ($40),A", 2},
		{"relative jump backwards", []uint8{0x18, 0xFE}, "JR $0200", 2},
		{"conditional relative jump", []uint8{0x20, 0x05}, "JR NZ,$0207", 2},
		{"signed offset", []uint8{0xF8, 0xFD}, "LD HL,SP-3", 2},
		{"stack adjust", []uint8{0xE8, 0x08}, "ADD SP,+8", 2},
		{"compare immediate", []uint8{0xFE, 0x90}, "CP $90", 2},
		{"restart", []uint8{0xFF}, "RST 38H", 1},
		{"prefixed", []uint8{0xCB, 0x7C}, "BIT 7,H", 2},
		{"unimplemented", []uint8{0xD3}, "DB $D3", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := At(reader(0x0200, tt.program...), 0x0200)
			assert.Equal(t, tt.want, line.Instruction)
			assert.Equal(t, tt.length, line.Length)
			assert.Equal(t, uint16(0x0200), line.Address)
		})
	}
}

func TestRange(t *testing.T) {
	read := reader(0x0100, 0x00, 0xC3, 0x50, 0x01, 0xCB, 0x37, 0x76)
	lines := Range(read, 0x0100, 4)

	want := []string{"0100: NOP", "0101: JP $0150", "0104: SWAP A", "0106: HALT"}
	got := make([]string, len(lines))
	for i, l := range lines {
		got[i] = l.String()
	}
	assert.Equal(t, want, got)
}
