package debug

import (
	"github.com/valerio/go-dmgcore/dmg/bit"
	"github.com/valerio/go-dmgcore/dmg/cpu"
)

// access is one memory access an instruction is predicted to make.
type access = Watchpoint

// accesses holds up to two predicted accesses without allocating.
type accesses struct {
	n    int
	list [2]access
}

func (a *accesses) add(address uint16, kind WatchKind) {
	if a.n < len(a.list) {
		a.list[a.n] = access{Address: address, Kind: kind}
		a.n++
	}
}

func (a *accesses) slice() []access { return a.list[:a.n] }

// accessRule predicts the data accesses of the instruction at PC from the
// register file and its operand bytes.
type accessRule func(c *cpu.CPU, out *accesses)

var (
	accessRules   [256]accessRule
	accessRulesCB [256]accessRule
)

func init() {
	hl := func(kinds ...WatchKind) accessRule {
		return func(c *cpu.CPU, out *accesses) {
			for _, k := range kinds {
				out.add(c.HL(), k)
			}
		}
	}

	// LD r,(HL) / LD (HL),r and ALU A,(HL)
	for r := uint8(0); r < 8; r++ {
		if r != 6 {
			accessRules[0x46|r<<3] = hl(Read)
			accessRules[0x70|r] = hl(Write)
		}
		accessRules[0x86|r<<3] = hl(Read)
	}
	accessRules[0x34] = hl(Read, Write)
	accessRules[0x35] = hl(Read, Write)
	accessRules[0x36] = hl(Write)
	accessRules[0x22] = hl(Write)
	accessRules[0x32] = hl(Write)
	accessRules[0x2A] = hl(Read)
	accessRules[0x3A] = hl(Read)

	accessRules[0x02] = func(c *cpu.CPU, out *accesses) { out.add(c.BC(), Write) }
	accessRules[0x0A] = func(c *cpu.CPU, out *accesses) { out.add(c.BC(), Read) }
	accessRules[0x12] = func(c *cpu.CPU, out *accesses) { out.add(c.DE(), Write) }
	accessRules[0x1A] = func(c *cpu.CPU, out *accesses) { out.add(c.DE(), Read) }

	accessRules[0xE0] = func(c *cpu.CPU, out *accesses) { out.add(0xFF00|uint16(operand(c)), Write) }
	accessRules[0xF0] = func(c *cpu.CPU, out *accesses) { out.add(0xFF00|uint16(operand(c)), Read) }
	accessRules[0xE2] = func(c *cpu.CPU, out *accesses) { out.add(0xFF00|c.BC()&0xFF, Write) }
	accessRules[0xF2] = func(c *cpu.CPU, out *accesses) { out.add(0xFF00|c.BC()&0xFF, Read) }
	accessRules[0xEA] = func(c *cpu.CPU, out *accesses) { out.add(operandWord(c), Write) }
	accessRules[0xFA] = func(c *cpu.CPU, out *accesses) { out.add(operandWord(c), Read) }
	accessRules[0x08] = func(c *cpu.CPU, out *accesses) {
		nn := operandWord(c)
		out.add(nn, Write)
		out.add(nn+1, Write)
	}

	// stack
	push := func(c *cpu.CPU, out *accesses) {
		out.add(c.SP()-1, Write)
		out.add(c.SP()-2, Write)
	}
	pop := func(c *cpu.CPU, out *accesses) {
		out.add(c.SP(), Read)
		out.add(c.SP()+1, Read)
	}
	for i := uint8(0); i < 4; i++ {
		accessRules[0xC5|i<<4] = push
		accessRules[0xC1|i<<4] = pop
		cond := i
		accessRules[0xC4|i<<3] = func(c *cpu.CPU, out *accesses) {
			if taken(c, cond) {
				push(c, out)
			}
		}
		accessRules[0xC0|i<<3] = func(c *cpu.CPU, out *accesses) {
			if taken(c, cond) {
				pop(c, out)
			}
		}
	}
	for n := uint8(0); n < 8; n++ {
		accessRules[0xC7|n<<3] = push
	}
	accessRules[0xCD] = push
	accessRules[0xC9] = pop
	accessRules[0xD9] = pop

	// CB prefixed (HL) forms: BIT only reads
	for op := 0; op < 256; op++ {
		if op&0x07 != 6 {
			continue
		}
		if op >= 0x40 && op < 0x80 {
			accessRulesCB[op] = hl(Read)
		} else {
			accessRulesCB[op] = hl(Read, Write)
		}
	}
}

func operand(c *cpu.CPU) uint8 {
	return c.Peek(c.PC() + 1)
}

func operandWord(c *cpu.CPU) uint16 {
	return bit.Combine(c.Peek(c.PC()+2), c.Peek(c.PC()+1))
}

// taken evaluates condition NZ, Z, NC or C against the current flags.
func taken(c *cpu.CPU, cond uint8) bool {
	f := c.F()
	switch cond {
	case 0:
		return !bit.IsSet(7, f)
	case 1:
		return bit.IsSet(7, f)
	case 2:
		return !bit.IsSet(4, f)
	default:
		return bit.IsSet(4, f)
	}
}

// predict returns the accesses the instruction at PC will make. Accesses
// made by interrupt dispatch or OAM-DMA are not predicted.
func predict(c *cpu.CPU, out *accesses) {
	switch c.Mode() {
	case cpu.Halted, cpu.Stopped:
		return
	}
	if c.IME() && c.Interrupts().Pending() != 0 {
		return
	}
	op := c.Peek(c.PC())
	rule := accessRules[op]
	if op == 0xCB {
		rule = accessRulesCB[operand(c)]
	}
	if rule != nil {
		rule(c, out)
	}
}
