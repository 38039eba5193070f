package cpu

import (
	"fmt"

	"github.com/valerio/go-dmgcore/dmg/bit"
)

// instruction is one entry of an opcode table. Mnemonics use n, nn and e as
// placeholders for an immediate byte, word and signed offset. A nil exec
// marks an opcode the hardware does not implement.
type instruction struct {
	mnemonic string
	length   uint8
	exec     func(c *CPU)
}

var (
	instructions   [256]instruction
	instructionsCB [256]instruction
)

func init() {
	buildBase()
	buildCB()
}

func def(op uint8, length uint8, mnemonic string, exec func(c *CPU)) {
	instructions[op] = instruction{mnemonic: mnemonic, length: length, exec: exec}
}

func buildBase() {
	for op := range instructions {
		instructions[op] = instruction{mnemonic: fmt.Sprintf("ILLEGAL_%02X", op), length: 1}
	}

	// 8 bit loads, 0x40-0x7F. 0x76 is HALT where LD (HL),(HL) would be.
	for dst := regB; dst <= regA; dst++ {
		for src := regB; src <= regA; src++ {
			op := 0x40 | uint8(dst)<<3 | uint8(src)
			if op == 0x76 {
				continue
			}
			def(op, 1, fmt.Sprintf("LD %s,%s", r8Names[dst], r8Names[src]), func(c *CPU) {
				c.setR8(dst, c.getR8(src))
			})
		}
	}

	// ALU on A, 0x80-0xBF register forms and 0xC6-0xFE immediate forms.
	for op := aluADD; op <= aluCP; op++ {
		for src := regB; src <= regA; src++ {
			def(0x80|uint8(op)<<3|uint8(src), 1, aluNames[op]+r8Names[src], func(c *CPU) {
				c.alu(op, c.getR8(src))
			})
		}
		def(0xC6|uint8(op)<<3, 2, aluNames[op]+"n", func(c *CPU) {
			c.alu(op, c.readImmediate())
		})
	}

	// per register column: INC r, DEC r, LD r,n
	for r := regB; r <= regA; r++ {
		def(0x04|uint8(r)<<3, 1, "INC "+r8Names[r], func(c *CPU) {
			c.setR8(r, c.inc(c.getR8(r)))
		})
		def(0x05|uint8(r)<<3, 1, "DEC "+r8Names[r], func(c *CPU) {
			c.setR8(r, c.dec(c.getR8(r)))
		})
		def(0x06|uint8(r)<<3, 2, "LD "+r8Names[r]+",n", func(c *CPU) {
			c.setR8(r, c.readImmediate())
		})
	}

	// 16 bit register pairs
	for rr := pairBC; rr <= pairSP; rr++ {
		name := r16Names[rr]
		def(0x01|uint8(rr)<<4, 3, "LD "+name+",nn", func(c *CPU) {
			c.setR16(rr, c.readImmediateWord())
		})
		def(0x03|uint8(rr)<<4, 1, "INC "+name, func(c *CPU) {
			c.idle()
			c.setR16(rr, c.getR16(rr)+1)
		})
		def(0x0B|uint8(rr)<<4, 1, "DEC "+name, func(c *CPU) {
			c.idle()
			c.setR16(rr, c.getR16(rr)-1)
		})
		def(0x09|uint8(rr)<<4, 1, "ADD HL,"+name, func(c *CPU) {
			c.idle()
			c.addToHL(c.getR16(rr))
		})

		stackPair := rr
		if rr == pairSP {
			stackPair = pairAF
		}
		def(0xC1|uint8(rr)<<4, 1, "POP "+r16Names[stackPair], func(c *CPU) {
			c.setR16(stackPair, c.pop())
		})
		def(0xC5|uint8(rr)<<4, 1, "PUSH "+r16Names[stackPair], func(c *CPU) {
			c.push(c.getR16(stackPair))
		})
	}

	// indirect accumulator loads: (BC), (DE), (HL+), (HL-)
	indirect := []struct {
		name string
		addr func(c *CPU) uint16
	}{
		{"(BC)", func(c *CPU) uint16 { return c.bc.Get() }},
		{"(DE)", func(c *CPU) uint16 { return c.de.Get() }},
		{"(HL+)", func(c *CPU) uint16 { hl := c.hl.Get(); c.hl.Set(hl + 1); return hl }},
		{"(HL-)", func(c *CPU) uint16 { hl := c.hl.Get(); c.hl.Set(hl - 1); return hl }},
	}
	for i, ind := range indirect {
		def(0x02|uint8(i)<<4, 1, "LD "+ind.name+",A", func(c *CPU) {
			c.write(ind.addr(c), c.a())
		})
		def(0x0A|uint8(i)<<4, 1, "LD A,"+ind.name, func(c *CPU) {
			c.setA(c.read(ind.addr(c)))
		})
	}

	// control flow
	for cc := condNZ; cc <= condC; cc++ {
		name := conditionNames[cc]
		def(0x20|uint8(cc)<<3, 2, "JR "+name+",e", func(c *CPU) {
			e := c.readImmediate()
			if c.check(cc) {
				c.jumpRelative(e)
			}
		})
		def(0xC2|uint8(cc)<<3, 3, "JP "+name+",nn", func(c *CPU) {
			nn := c.readImmediateWord()
			if c.check(cc) {
				c.idle()
				c.pc = nn
			}
		})
		def(0xC4|uint8(cc)<<3, 3, "CALL "+name+",nn", func(c *CPU) {
			nn := c.readImmediateWord()
			if c.check(cc) {
				c.call(nn)
			}
		})
		def(0xC0|uint8(cc)<<3, 1, "RET "+name, func(c *CPU) {
			c.idle()
			if c.check(cc) {
				c.ret()
			}
		})
	}
	def(0x18, 2, "JR e", func(c *CPU) { c.jumpRelative(c.readImmediate()) })
	def(0xC3, 3, "JP nn", func(c *CPU) {
		nn := c.readImmediateWord()
		c.idle()
		c.pc = nn
	})
	def(0xE9, 1, "JP HL", func(c *CPU) { c.pc = c.hl.Get() })
	def(0xCD, 3, "CALL nn", func(c *CPU) { c.call(c.readImmediateWord()) })
	def(0xC9, 1, "RET", func(c *CPU) { c.ret() })
	def(0xD9, 1, "RETI", func(c *CPU) {
		c.ret()
		c.ime = true
	})
	for n := uint8(0); n < 8; n++ {
		vector := uint16(n) * 8
		def(0xC7|n<<3, 1, fmt.Sprintf("RST %02XH", vector), func(c *CPU) {
			c.push(c.pc)
			c.pc = vector
		})
	}

	// accumulator rotates always clear Z
	for i, op := range []shiftOp{shiftRLC, shiftRRC, shiftRL, shiftRR} {
		def(0x07|uint8(i)<<3, 1, shiftNames[op]+"A", func(c *CPU) {
			c.setA(c.shift(op, c.a()))
			c.setFlagToCondition(zeroFlag, false)
		})
	}

	def(0x00, 1, "NOP", func(*CPU) {})
	def(0x10, 2, "STOP", func(c *CPU) {
		c.pc++
		c.mode = Stopped
	})
	def(0x76, 1, "HALT", func(c *CPU) { c.halt() })
	def(0xF3, 1, "DI", func(c *CPU) {
		c.ime = false
		c.eiPending = false
		c.enableAfter = false
	})
	def(0xFB, 1, "EI", func(c *CPU) { c.eiPending = true })
	def(0x27, 1, "DAA", func(c *CPU) { c.daa() })
	def(0x2F, 1, "CPL", func(c *CPU) {
		c.setA(^c.a())
		c.setFlagToCondition(subFlag, true)
		c.setFlagToCondition(halfCarryFlag, true)
	})
	def(0x37, 1, "SCF", func(c *CPU) {
		c.setFlags(c.isSetFlag(zeroFlag), false, false, true)
	})
	def(0x3F, 1, "CCF", func(c *CPU) {
		c.setFlags(c.isSetFlag(zeroFlag), false, false, !c.isSetFlag(carryFlag))
	})

	// remaining loads
	def(0x08, 3, "LD (nn),SP", func(c *CPU) {
		nn := c.readImmediateWord()
		c.write(nn, bit.Low(c.sp))
		c.write(nn+1, bit.High(c.sp))
	})
	def(0xE0, 2, "LDH (n),A", func(c *CPU) { c.write(0xFF00|uint16(c.readImmediate()), c.a()) })
	def(0xF0, 2, "LDH A,(n)", func(c *CPU) { c.setA(c.read(0xFF00 | uint16(c.readImmediate()))) })
	def(0xE2, 1, "LD (C),A", func(c *CPU) { c.write(0xFF00|uint16(c.bc.Lo()), c.a()) })
	def(0xF2, 1, "LD A,(C)", func(c *CPU) { c.setA(c.read(0xFF00 | uint16(c.bc.Lo()))) })
	def(0xEA, 3, "LD (nn),A", func(c *CPU) { c.write(c.readImmediateWord(), c.a()) })
	def(0xFA, 3, "LD A,(nn)", func(c *CPU) { c.setA(c.read(c.readImmediateWord())) })
	def(0xE8, 2, "ADD SP,e", func(c *CPU) {
		e := c.readImmediate()
		c.sp = c.addSPSigned(e)
		c.idle()
		c.idle()
	})
	def(0xF8, 2, "LD HL,SP+e", func(c *CPU) {
		e := c.readImmediate()
		c.hl.Set(c.addSPSigned(e))
		c.idle()
	})
	def(0xF9, 1, "LD SP,HL", func(c *CPU) {
		c.idle()
		c.sp = c.hl.Get()
	})

	// the prefix byte is consumed by the dispatcher
	instructions[0xCB] = instruction{mnemonic: "PREFIX CB", length: 2, exec: func(*CPU) {}}
}

func buildCB() {
	for r := regB; r <= regA; r++ {
		for op := shiftRLC; op <= shiftSRL; op++ {
			instructionsCB[uint8(op)<<3|uint8(r)] = instruction{
				mnemonic: shiftNames[op] + " " + r8Names[r],
				length:   2,
				exec:     func(c *CPU) { c.setR8(r, c.shift(op, c.getR8(r))) },
			}
		}
		for n := uint8(0); n < 8; n++ {
			instructionsCB[0x40|n<<3|uint8(r)] = instruction{
				mnemonic: fmt.Sprintf("BIT %d,%s", n, r8Names[r]),
				length:   2,
				exec:     func(c *CPU) { c.testBit(n, c.getR8(r)) },
			}
			instructionsCB[0x80|n<<3|uint8(r)] = instruction{
				mnemonic: fmt.Sprintf("RES %d,%s", n, r8Names[r]),
				length:   2,
				exec:     func(c *CPU) { c.setR8(r, bit.Reset(n, c.getR8(r))) },
			}
			instructionsCB[0xC0|n<<3|uint8(r)] = instruction{
				mnemonic: fmt.Sprintf("SET %d,%s", n, r8Names[r]),
				length:   2,
				exec:     func(c *CPU) { c.setR8(r, bit.Set(n, c.getR8(r))) },
			}
		}
	}
}

func (c *CPU) jumpRelative(e uint8) {
	c.idle()
	c.pc += uint16(int16(int8(e)))
}

func (c *CPU) call(target uint16) {
	c.push(c.pc)
	c.pc = target
}

func (c *CPU) ret() {
	pc := c.pop()
	c.idle()
	c.pc = pc
}

// Mnemonic returns the mnemonic of a base opcode.
func Mnemonic(op uint8) string { return instructions[op].mnemonic }

// MnemonicCB returns the mnemonic of a CB prefixed opcode.
func MnemonicCB(op uint8) string { return instructionsCB[op].mnemonic }

// Length returns the encoded length in bytes of a base opcode, prefix included
// for 0xCB.
func Length(op uint8) int { return int(instructions[op].length) }

// Implemented reports whether the base opcode exists on the hardware.
func Implemented(op uint8) bool { return instructions[op].exec != nil }
