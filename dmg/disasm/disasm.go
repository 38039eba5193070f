package disasm

import (
	"fmt"
	"strings"

	"github.com/valerio/go-dmgcore/dmg/bit"
	"github.com/valerio/go-dmgcore/dmg/cpu"
)

// Line is a single disassembled instruction.
type Line struct {
	Address     uint16
	Instruction string
	Length      int
}

// Reader reads memory without side effects.
type Reader func(address uint16) uint8

// At disassembles the instruction at pc. Operand placeholders in the
// mnemonic are replaced by the bytes that follow the opcode.
func At(read Reader, pc uint16) Line {
	op := read(pc)
	if op == 0xCB {
		return Line{Address: pc, Instruction: cpu.MnemonicCB(read(pc + 1)), Length: 2}
	}

	length := cpu.Length(op)
	mnemonic := cpu.Mnemonic(op)
	if !cpu.Implemented(op) {
		return Line{Address: pc, Instruction: fmt.Sprintf("DB $%02X", op), Length: 1}
	}

	var n uint8
	var nn uint16
	switch length {
	case 2:
		n = read(pc + 1)
	case 3:
		nn = bit.Combine(read(pc+2), read(pc+1))
	}

	// JR shows its target, other signed operands show the offset
	e := fmt.Sprintf("%+d", int8(n))
	if strings.HasPrefix(mnemonic, "JR") {
		e = fmt.Sprintf("$%04X", pc+2+uint16(int16(int8(n))))
	}

	r := strings.NewReplacer(
		"+e", e,
		"nn", fmt.Sprintf("$%04X", nn),
		"n", fmt.Sprintf("$%02X", n),
		"e", e,
	)
	return Line{Address: pc, Instruction: r.Replace(mnemonic), Length: length}
}

// Range disassembles count consecutive instructions starting at pc.
func Range(read Reader, pc uint16, count int) []Line {
	lines := make([]Line, 0, count)
	for range count {
		line := At(read, pc)
		lines = append(lines, line)
		pc += uint16(line.Length)
	}
	return lines
}

// String formats the line as "ADDR: INSTRUCTION".
func (l Line) String() string {
	return fmt.Sprintf("%04X: %s", l.Address, l.Instruction)
}
