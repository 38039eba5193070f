package cpu

// Register16 is a register pair stored as one 16 bit value. The high byte is
// the first register of the pair (A of AF, B of BC, ...).
type Register16 uint16

func (r Register16) Get() uint16 { return uint16(r) }
func (r Register16) Hi() uint8   { return uint8(r >> 8) }
func (r Register16) Lo() uint8   { return uint8(r) }

func (r *Register16) Set(value uint16) { *r = Register16(value) }
func (r *Register16) SetHi(value uint8) { *r = Register16(uint16(value)<<8 | uint16(*r)&0x00FF) }
func (r *Register16) SetLo(value uint8) { *r = Register16(uint16(*r)&0xFF00 | uint16(value)) }

// Flag is one of the four bits in the high nibble of F.
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// r8 names an 8 bit operand in the order the opcode encoding uses.
type r8 uint8

const (
	regB r8 = iota
	regC
	regD
	regE
	regH
	regL
	regHLInd // (HL)
	regA
)

var r8Names = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}

// r16 names a register pair. Push and pop use AF where the others use SP.
type r16 uint8

const (
	pairBC r16 = iota
	pairDE
	pairHL
	pairSP
	pairAF
)

var r16Names = [5]string{"BC", "DE", "HL", "SP", "AF"}

// condition is a branch condition in the order the opcode encoding uses.
type condition uint8

const (
	condNZ condition = iota
	condZ
	condNC
	condC
)

var conditionNames = [4]string{"NZ", "Z", "NC", "C"}

func (c *CPU) getR8(r r8) uint8 {
	switch r {
	case regB:
		return c.bc.Hi()
	case regC:
		return c.bc.Lo()
	case regD:
		return c.de.Hi()
	case regE:
		return c.de.Lo()
	case regH:
		return c.hl.Hi()
	case regL:
		return c.hl.Lo()
	case regHLInd:
		return c.read(c.hl.Get())
	default:
		return c.af.Hi()
	}
}

func (c *CPU) setR8(r r8, value uint8) {
	switch r {
	case regB:
		c.bc.SetHi(value)
	case regC:
		c.bc.SetLo(value)
	case regD:
		c.de.SetHi(value)
	case regE:
		c.de.SetLo(value)
	case regH:
		c.hl.SetHi(value)
	case regL:
		c.hl.SetLo(value)
	case regHLInd:
		c.write(c.hl.Get(), value)
	default:
		c.af.SetHi(value)
	}
}

func (c *CPU) getR16(r r16) uint16 {
	switch r {
	case pairBC:
		return c.bc.Get()
	case pairDE:
		return c.de.Get()
	case pairHL:
		return c.hl.Get()
	case pairSP:
		return c.sp
	default:
		return c.af.Get()
	}
}

func (c *CPU) setR16(r r16, value uint16) {
	switch r {
	case pairBC:
		c.bc.Set(value)
	case pairDE:
		c.de.Set(value)
	case pairHL:
		c.hl.Set(value)
	case pairSP:
		c.sp = value
	default:
		c.setAF(value)
	}
}

func (c *CPU) a() uint8         { return c.af.Hi() }
func (c *CPU) setA(value uint8) { c.af.SetHi(value) }

// setAF keeps the low nibble of F at zero.
func (c *CPU) setAF(value uint16) { c.af.Set(value & 0xFFF0) }

func (c *CPU) isSetFlag(flag Flag) bool {
	return c.af.Lo()&uint8(flag) != 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	f := c.af.Lo()
	if condition {
		f |= uint8(flag)
	} else {
		f &^= uint8(flag)
	}
	c.af.SetLo(f)
}

// setFlags replaces the whole flag byte.
func (c *CPU) setFlags(zero, sub, halfCarry, carry bool) {
	var f uint8
	if zero {
		f |= uint8(zeroFlag)
	}
	if sub {
		f |= uint8(subFlag)
	}
	if halfCarry {
		f |= uint8(halfCarryFlag)
	}
	if carry {
		f |= uint8(carryFlag)
	}
	c.af.SetLo(f)
}

// flagToBit returns 1 if the flag is set, 0 otherwise.
func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) check(cond condition) bool {
	switch cond {
	case condNZ:
		return !c.isSetFlag(zeroFlag)
	case condZ:
		return c.isSetFlag(zeroFlag)
	case condNC:
		return !c.isSetFlag(carryFlag)
	default:
		return c.isSetFlag(carryFlag)
	}
}
