package debug

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/valerio/go-dmgcore/dmg/cpu"
	"github.com/valerio/go-dmgcore/dmg/disasm"
)

// WatchKind selects which accesses a watchpoint reacts to.
type WatchKind uint8

const (
	Read WatchKind = iota
	Write
)

func (k WatchKind) String() string {
	if k == Write {
		return "write"
	}
	return "read"
}

// Watchpoint stops execution before an instruction that accesses Address.
type Watchpoint struct {
	Address uint16
	Kind    WatchKind
}

// Listener is notified from the execution goroutine when a debug run stops
// on a hit, and from the caller's goroutine when the sets change.
type Listener interface {
	BreakpointHit(pc uint16)
	InstructionBreakpointHit(pc uint16, opcode uint16)
	WatchpointHit(pc uint16, w Watchpoint)
	BreakpointsChanged()
}

// HitKind identifies what stopped a debug run.
type HitKind uint8

const (
	HitNone HitKind = iota
	HitBreakpoint
	HitInstruction
	HitWatchpoint
)

func (k HitKind) String() string {
	switch k {
	case HitBreakpoint:
		return "breakpoint"
	case HitInstruction:
		return "instruction"
	case HitWatchpoint:
		return "watchpoint"
	}
	return "none"
}

// Hit describes the check that stopped the last debug run.
type Hit struct {
	Kind       HitKind
	PC         uint16
	Opcode     uint16
	Watchpoint Watchpoint
}

// Debugger wraps a CPU's execution loop with breakpoint, instruction
// breakpoint and watchpoint checks. The sets may only change while the
// loop is not running.
type Debugger struct {
	cpu *cpu.CPU

	breakpoints map[uint16]struct{}
	opcodes     map[uint16]struct{}
	watchpoints map[Watchpoint]struct{}
	listeners   []Listener
	logger      *slog.Logger

	// per run state, owned by the loop goroutine while it runs
	executed uint64
	// the instruction at checkedPC was already checked and is skipped until
	// PC moves or another instruction executes; idle cycles while halted
	// keep both unchanged
	checked     bool
	checkedPC   uint16
	checkedExec uint64
	last        Hit
}

// New returns a debugger for c with empty sets.
func New(c *cpu.CPU) *Debugger {
	return &Debugger{
		cpu:         c,
		breakpoints: make(map[uint16]struct{}),
		opcodes:     make(map[uint16]struct{}),
		watchpoints: make(map[Watchpoint]struct{}),
		logger:      slog.Default().With("component", "debug"),
	}
}

// AddListener registers l. Listeners cannot be removed.
func (d *Debugger) AddListener(l Listener) {
	d.listeners = append(d.listeners, l)
}

func (d *Debugger) mutable(op string) error {
	if d.cpu.Running() {
		return &cpu.LogicError{Op: op, Reason: "debug run is active"}
	}
	return nil
}

func (d *Debugger) changed() {
	for _, l := range d.listeners {
		l.BreakpointsChanged()
	}
}

// AddBreakpoint stops execution before the instruction at pc.
func (d *Debugger) AddBreakpoint(pc uint16) error {
	if err := d.mutable("AddBreakpoint"); err != nil {
		return err
	}
	d.breakpoints[pc] = struct{}{}
	d.changed()
	return nil
}

func (d *Debugger) RemoveBreakpoint(pc uint16) error {
	if err := d.mutable("RemoveBreakpoint"); err != nil {
		return err
	}
	delete(d.breakpoints, pc)
	d.changed()
	return nil
}

// Breakpoints returns the breakpoint addresses in ascending order.
func (d *Debugger) Breakpoints() []uint16 {
	return slices.Sorted(maps.Keys(d.breakpoints))
}

// AddInstructionBreakpoint stops execution after any instruction with the
// given opcode runs. Prefixed opcodes are written 0xCBxx.
func (d *Debugger) AddInstructionBreakpoint(opcode uint16) error {
	if err := d.mutable("AddInstructionBreakpoint"); err != nil {
		return err
	}
	d.opcodes[opcode] = struct{}{}
	d.changed()
	return nil
}

func (d *Debugger) RemoveInstructionBreakpoint(opcode uint16) error {
	if err := d.mutable("RemoveInstructionBreakpoint"); err != nil {
		return err
	}
	delete(d.opcodes, opcode)
	d.changed()
	return nil
}

func (d *Debugger) InstructionBreakpoints() []uint16 {
	return slices.Sorted(maps.Keys(d.opcodes))
}

// AddWatchpoint stops execution before an instruction predicted to access
// w.Address in the way w.Kind selects.
func (d *Debugger) AddWatchpoint(w Watchpoint) error {
	if err := d.mutable("AddWatchpoint"); err != nil {
		return err
	}
	d.watchpoints[w] = struct{}{}
	d.changed()
	return nil
}

func (d *Debugger) RemoveWatchpoint(w Watchpoint) error {
	if err := d.mutable("RemoveWatchpoint"); err != nil {
		return err
	}
	delete(d.watchpoints, w)
	d.changed()
	return nil
}

// Watchpoints returns the watchpoints ordered by address, reads first.
func (d *Debugger) Watchpoints() []Watchpoint {
	return slices.SortedFunc(maps.Keys(d.watchpoints), func(a, b Watchpoint) int {
		if c := cmp.Compare(a.Address, b.Address); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
}

// Run starts a debug run on the CPU's execution goroutine. If the previous
// run stopped at the current PC, the checks for that instruction are skipped
// so execution can move past it.
func (d *Debugger) Run() error {
	if err := d.mutable("Run"); err != nil {
		return err
	}
	d.executed = d.cpu.Executed()
	d.checked = (d.last.Kind == HitBreakpoint || d.last.Kind == HitWatchpoint) && d.last.PC == d.cpu.PC()
	d.checkedPC = d.cpu.PC()
	d.checkedExec = d.executed
	d.last = Hit{}
	return d.cpu.RunWith(d.check)
}

// Stop ends the run and returns the error that ended it, if any.
func (d *Debugger) Stop() error { return d.cpu.Stop() }

// Wait blocks until the run stops on its own, on a hit or an error.
func (d *Debugger) Wait() error { return d.cpu.Wait() }

// Running reports whether a run is active.
func (d *Debugger) Running() bool { return d.cpu.Running() }

// LastHit returns what stopped the last run. Only valid once the run ended.
func (d *Debugger) LastHit() Hit { return d.last }

// check runs before every CPU step and returns false to stop the loop.
// Breakpoints and watchpoints are evaluated once per instruction.
func (d *Debugger) check() bool {
	c := d.cpu

	if n := c.Executed(); n != d.executed {
		d.executed = n
		if _, ok := d.opcodes[c.LastOpcode()]; ok {
			d.stop(Hit{Kind: HitInstruction, PC: c.PC(), Opcode: c.LastOpcode()})
			return false
		}
	}

	pc := c.PC()
	if d.checked && pc == d.checkedPC && d.executed == d.checkedExec {
		return true
	}
	d.checked, d.checkedPC, d.checkedExec = true, pc, d.executed

	if _, ok := d.breakpoints[pc]; ok {
		d.stop(Hit{Kind: HitBreakpoint, PC: pc})
		return false
	}

	if len(d.watchpoints) == 0 {
		return true
	}
	var acc accesses
	predict(c, &acc)
	for _, a := range acc.slice() {
		if _, ok := d.watchpoints[a]; ok {
			d.stop(Hit{Kind: HitWatchpoint, PC: pc, Watchpoint: a})
			return false
		}
	}
	return true
}

func (d *Debugger) stop(h Hit) {
	d.last = h
	d.logger.Debug("debug run stopped", "kind", h.Kind, "pc", fmt.Sprintf("%04X", h.PC))
	for _, l := range d.listeners {
		switch h.Kind {
		case HitBreakpoint:
			l.BreakpointHit(h.PC)
		case HitInstruction:
			l.InstructionBreakpointHit(h.PC, h.Opcode)
		case HitWatchpoint:
			l.WatchpointHit(h.PC, h.Watchpoint)
		}
	}
}

// Snapshot is a register dump with the instruction about to run.
type Snapshot struct {
	AF, BC, DE, HL, SP, PC uint16
	Flags                  string
	IME                    bool
	Mode                   cpu.Mode
	Cycles                 uint64
	Instruction            disasm.Line
}

// Snapshot captures the registers. Call it only while the loop is stopped.
func (d *Debugger) Snapshot() Snapshot {
	c := d.cpu
	return Snapshot{
		AF: c.AF(), BC: c.BC(), DE: c.DE(), HL: c.HL(), SP: c.SP(), PC: c.PC(),
		Flags:       c.FlagString(),
		IME:         c.IME(),
		Mode:        c.Mode(),
		Cycles:      c.Cycles(),
		Instruction: disasm.At(c.Peek, c.PC()),
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf("AF=%04X BC=%04X DE=%04X HL=%04X SP=%04X PC=%04X %s IME=%t %s | %s",
		s.AF, s.BC, s.DE, s.HL, s.SP, s.PC, s.Flags, s.IME, s.Mode, s.Instruction.Instruction)
}
