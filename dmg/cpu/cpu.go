package cpu

import (
	"fmt"
	"sync/atomic"

	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/bit"
)

// Bus is the memory the CPU executes against. Reads and writes must not
// advance time; the CPU reports every machine cycle to its Clock itself.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	// TakeFault returns and clears a fatal error latched by a device.
	TakeFault() error
}

// Clock receives one Tick per elapsed machine cycle, in order.
type Clock interface {
	Tick()
}

// Mode is the execution state of the CPU.
type Mode uint8

const (
	Running Mode = iota
	Halted
	// HaltBug executes the next opcode without incrementing PC for its fetch.
	HaltBug
	// Stopped idles until a joypad interrupt is requested.
	Stopped
)

func (m Mode) String() string {
	switch m {
	case Running:
		return "running"
	case Halted:
		return "halted"
	case HaltBug:
		return "halt-bug"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// CPU is the SM83 core.
type CPU struct {
	af, bc, de, hl Register16
	sp, pc         uint16

	ime         bool
	eiPending   bool // EI executed, IME turns on after the next instruction
	enableAfter bool // IME turns on when the current instruction completes
	mode        Mode

	opcode   uint16 // last fetched opcode, 0xCBxx when prefixed
	opcodePC uint16
	cycles   uint64
	executed uint64

	bus   Bus
	clock Clock
	ints  *Interrupts

	running atomic.Bool
	stop    atomic.Bool
	done    chan error
}

// New returns a CPU in the state the boot ROM leaves it.
func New(bus Bus, clock Clock, ints *Interrupts) *CPU {
	c := &CPU{bus: bus, clock: clock, ints: ints}
	c.Reset()
	return c
}

// Reset loads the post boot ROM register values.
func (c *CPU) Reset() {
	c.setAF(0x01B0)
	c.bc.Set(0x0013)
	c.de.Set(0x00D8)
	c.hl.Set(0x014D)
	c.sp = 0xFFFE
	c.pc = 0x0100
	c.ime, c.eiPending, c.enableAfter = false, false, false
	c.mode = Running
	c.cycles = 0
}

// tick reports one machine cycle to the rest of the system.
func (c *CPU) tick() {
	c.cycles++
	c.clock.Tick()
}

// read is a one cycle memory read.
func (c *CPU) read(address uint16) uint8 {
	c.tick()
	return c.bus.Read(address)
}

// write is a one cycle memory write.
func (c *CPU) write(address uint16, value uint8) {
	c.tick()
	c.bus.Write(address, value)
}

// idle is an internal cycle with no bus access.
func (c *CPU) idle() {
	c.tick()
}

func (c *CPU) readImmediate() uint8 {
	n := c.read(c.pc)
	c.pc++
	return n
}

func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

func (c *CPU) push(value uint16) {
	c.idle()
	c.sp--
	c.write(c.sp, bit.High(value))
	c.sp--
	c.write(c.sp, bit.Low(value))
}

func (c *CPU) pop() uint16 {
	low := c.read(c.sp)
	c.sp++
	high := c.read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}

// Peek reads memory without consuming a cycle.
func (c *CPU) Peek(address uint16) uint8 {
	return c.bus.Read(address)
}

// Debug getters.
func (c *CPU) A() uint8           { return c.af.Hi() }
func (c *CPU) F() uint8           { return c.af.Lo() }
func (c *CPU) AF() uint16         { return c.af.Get() }
func (c *CPU) BC() uint16         { return c.bc.Get() }
func (c *CPU) DE() uint16         { return c.de.Get() }
func (c *CPU) HL() uint16         { return c.hl.Get() }
func (c *CPU) SP() uint16         { return c.sp }
func (c *CPU) PC() uint16         { return c.pc }
func (c *CPU) Cycles() uint64     { return c.cycles }
func (c *CPU) IME() bool          { return c.ime }
func (c *CPU) Mode() Mode         { return c.mode }
func (c *CPU) LastOpcode() uint16 { return c.opcode }

// Executed counts the instructions run, interrupt dispatch and idle cycles
// excluded.
func (c *CPU) Executed() uint64 { return c.executed }

// Setters used by debuggers and tests.
func (c *CPU) SetAF(v uint16) { c.setAF(v) }
func (c *CPU) SetBC(v uint16) { c.bc.Set(v) }
func (c *CPU) SetDE(v uint16) { c.de.Set(v) }
func (c *CPU) SetHL(v uint16) { c.hl.Set(v) }
func (c *CPU) SetSP(v uint16) { c.sp = v }
func (c *CPU) SetPC(v uint16) { c.pc = v }
func (c *CPU) SetIME(v bool)  { c.ime = v }

// Interrupts returns the interrupt registers the CPU services.
func (c *CPU) Interrupts() *Interrupts { return c.ints }

// FlagString returns the flags as "ZNHC" with '-' for clear bits.
func (c *CPU) FlagString() string {
	flags := []byte("----")
	for i, f := range []Flag{zeroFlag, subFlag, halfCarryFlag, carryFlag} {
		if c.isSetFlag(f) {
			flags[i] = "ZNHC"[i]
		}
	}
	return string(flags)
}

// step executes one instruction, or services one interrupt, or idles one
// cycle while halted or stopped.
func (c *CPU) step() error {
	switch c.mode {
	case Halted:
		if c.ints.Pending() == 0 {
			c.idle()
			return nil
		}
		c.mode = Running
	case Stopped:
		if c.ints.Requested()&uint8(addr.JoypadInterrupt) == 0 {
			c.idle()
			return nil
		}
		c.mode = Running
	}

	if c.ime && c.ints.Pending() != 0 {
		c.serviceInterrupt()
		return nil
	}

	if c.eiPending {
		c.eiPending = false
		c.enableAfter = true
	}

	err := c.execute()

	if c.enableAfter {
		c.enableAfter = false
		c.ime = true
	}
	if err != nil {
		return err
	}
	if fault := c.bus.TakeFault(); fault != nil {
		return fmt.Errorf("instruction at %04X: %w", c.opcodePC, fault)
	}
	return nil
}

func (c *CPU) execute() error {
	c.opcodePC = c.pc
	op := c.fetch()
	c.opcode = uint16(op)

	inst := &instructions[op]
	if op == 0xCB {
		cb := c.readImmediate()
		c.opcode = 0xCB00 | uint16(cb)
		inst = &instructionsCB[cb]
	}

	if inst.exec == nil {
		return &ExecutionError{Opcode: c.opcode, Mnemonic: inst.mnemonic, PC: c.opcodePC}
	}
	inst.exec(c)
	c.executed++
	return nil
}

// fetch reads the opcode at PC. Under the halt bug PC is not incremented,
// so the byte is read again as the next opcode or operand.
func (c *CPU) fetch() uint8 {
	op := c.read(c.pc)
	if c.mode == HaltBug {
		c.mode = Running
	} else {
		c.pc++
	}
	return op
}

// serviceInterrupt takes 5 machine cycles: two internal, two stack writes
// and the jump.
func (c *CPU) serviceInterrupt() {
	i := c.ints.highest()
	c.ime = false
	c.eiPending = false
	c.ints.acknowledge(i)

	// after EI; HALT the halt bug returns to the HALT itself
	ret := c.pc
	if c.mode == HaltBug {
		ret--
		c.mode = Running
	}

	c.idle()
	c.push(ret)
	c.pc = i.Vector()
	c.idle()
}

// halt enters the halted state, or triggers the halt bug when interrupts are
// disabled and one is already pending.
func (c *CPU) halt() {
	if !c.ime && c.ints.Pending() != 0 {
		c.mode = HaltBug
		return
	}
	c.mode = Halted
}
