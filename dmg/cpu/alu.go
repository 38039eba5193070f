package cpu

// aluOp is one of the eight accumulator operations, in encoding order.
type aluOp uint8

const (
	aluADD aluOp = iota
	aluADC
	aluSUB
	aluSBC
	aluAND
	aluXOR
	aluOR
	aluCP
)

var aluNames = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}

func (c *CPU) alu(op aluOp, value uint8) {
	switch op {
	case aluADD:
		c.add(value, false)
	case aluADC:
		c.add(value, true)
	case aluSUB:
		c.setA(c.sub(value, false))
	case aluSBC:
		c.setA(c.sub(value, true))
	case aluAND:
		r := c.a() & value
		c.setA(r)
		c.setFlags(r == 0, false, true, false)
	case aluXOR:
		r := c.a() ^ value
		c.setA(r)
		c.setFlags(r == 0, false, false, false)
	case aluOR:
		r := c.a() | value
		c.setA(r)
		c.setFlags(r == 0, false, false, false)
	case aluCP:
		c.sub(value, false)
	}
}

func (c *CPU) add(value uint8, withCarry bool) {
	a := c.a()
	var carry uint8
	if withCarry {
		carry = c.flagToBit(carryFlag)
	}
	r := uint16(a) + uint16(value) + uint16(carry)
	c.setFlags(uint8(r) == 0, false, a&0x0F+value&0x0F+carry > 0x0F, r > 0xFF)
	c.setA(uint8(r))
}

// sub computes A - value (- carry) and sets the flags. The caller stores the
// result, CP discards it.
func (c *CPU) sub(value uint8, withCarry bool) uint8 {
	a := c.a()
	var carry int
	if withCarry {
		carry = int(c.flagToBit(carryFlag))
	}
	r := int(a) - int(value) - carry
	c.setFlags(uint8(r) == 0, true, int(a&0x0F)-int(value&0x0F)-carry < 0, r < 0)
	return uint8(r)
}

func (c *CPU) inc(value uint8) uint8 {
	r := value + 1
	c.setFlags(r == 0, false, value&0x0F == 0x0F, c.isSetFlag(carryFlag))
	return r
}

func (c *CPU) dec(value uint8) uint8 {
	r := value - 1
	c.setFlags(r == 0, true, value&0x0F == 0x00, c.isSetFlag(carryFlag))
	return r
}

// addToHL adds to HL, leaving Z alone. H and C come from bits 11 and 15.
func (c *CPU) addToHL(value uint16) {
	hl := c.hl.Get()
	r := uint32(hl) + uint32(value)
	c.setFlags(c.isSetFlag(zeroFlag), false, hl&0x0FFF+value&0x0FFF > 0x0FFF, r > 0xFFFF)
	c.hl.Set(uint16(r))
}

// addSPSigned returns SP + e. H and C come from the unsigned low byte add.
func (c *CPU) addSPSigned(e uint8) uint16 {
	sp := c.sp
	c.setFlags(false, false, sp&0x0F+uint16(e&0x0F) > 0x0F, sp&0xFF+uint16(e) > 0xFF)
	return sp + uint16(int16(int8(e)))
}

// daa adjusts A to packed BCD after an addition or subtraction, using N, H
// and C from that operation.
func (c *CPU) daa() {
	a := c.a()
	carry := c.isSetFlag(carryFlag)
	var adjust uint8

	if !c.isSetFlag(subFlag) {
		if carry || a > 0x99 {
			adjust |= 0x60
			carry = true
		}
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			adjust |= 0x06
		}
		a += adjust
	} else {
		if carry {
			adjust |= 0x60
		}
		if c.isSetFlag(halfCarryFlag) {
			adjust |= 0x06
		}
		a -= adjust
	}

	c.setA(a)
	c.setFlags(a == 0, c.isSetFlag(subFlag), false, carry)
}

// shiftOp is one of the CB prefixed rotate and shift operations.
type shiftOp uint8

const (
	shiftRLC shiftOp = iota
	shiftRRC
	shiftRL
	shiftRR
	shiftSLA
	shiftSRA
	shiftSWAP
	shiftSRL
)

var shiftNames = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}

func (c *CPU) shift(op shiftOp, v uint8) uint8 {
	var r uint8
	var carry bool
	switch op {
	case shiftRLC:
		r, carry = v<<1|v>>7, v&0x80 != 0
	case shiftRRC:
		r, carry = v>>1|v<<7, v&0x01 != 0
	case shiftRL:
		r, carry = v<<1|c.flagToBit(carryFlag), v&0x80 != 0
	case shiftRR:
		r, carry = v>>1|c.flagToBit(carryFlag)<<7, v&0x01 != 0
	case shiftSLA:
		r, carry = v<<1, v&0x80 != 0
	case shiftSRA:
		r, carry = v>>1|v&0x80, v&0x01 != 0
	case shiftSWAP:
		r = v<<4 | v>>4
	case shiftSRL:
		r, carry = v>>1, v&0x01 != 0
	}
	c.setFlags(r == 0, false, false, carry)
	return r
}

// testBit implements BIT n: Z is the complement of the bit, C is kept.
func (c *CPU) testBit(n, value uint8) {
	c.setFlags(value&(1<<n) == 0, false, true, c.isSetFlag(carryFlag))
}
