package cpu

// State is the full register file and interrupt state of the CPU.
type State struct {
	AF, BC, DE, HL uint16
	SP, PC         uint16

	IME         bool
	EIPending   bool
	EnableAfter bool
	Mode        Mode
	Opcode      uint16
	OpcodePC    uint16
	Cycles      uint64

	IE, IF uint8
}

// State returns a copy of the CPU registers.
func (c *CPU) State() State {
	return State{
		AF: c.af.Get(), BC: c.bc.Get(), DE: c.de.Get(), HL: c.hl.Get(),
		SP: c.sp, PC: c.pc,
		IME:         c.ime,
		EIPending:   c.eiPending,
		EnableAfter: c.enableAfter,
		Mode:        c.mode,
		Opcode:      c.opcode,
		OpcodePC:    c.opcodePC,
		Cycles:      c.cycles,
		IE:          c.ints.enable,
		IF:          c.ints.request,
	}
}

// SetState loads registers from s. The loop must not be running.
func (c *CPU) SetState(s State) error {
	if c.running.Load() {
		return &LogicError{Op: "SetState", Reason: "execution loop is running"}
	}
	c.setAF(s.AF)
	c.bc.Set(s.BC)
	c.de.Set(s.DE)
	c.hl.Set(s.HL)
	c.sp, c.pc = s.SP, s.PC
	c.ime, c.eiPending, c.enableAfter = s.IME, s.EIPending, s.EnableAfter
	c.mode = s.Mode
	c.opcode, c.opcodePC = s.Opcode, s.OpcodePC
	c.cycles = s.Cycles
	c.ints.enable = s.IE
	c.ints.request = s.IF & 0x1F
	return nil
}
