package debug

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-dmgcore/dmg/cpu"
)

type flatBus struct {
	mem [0x10000]uint8
}

func (b *flatBus) Read(address uint16) uint8         { return b.mem[address] }
func (b *flatBus) Write(address uint16, value uint8) { b.mem[address] = value }
func (b *flatBus) TakeFault() error                  { return nil }

type nopClock struct{}

func (nopClock) Tick() {}

type recorder struct {
	breakpoints  []uint16
	instructions [][2]uint16
	watchpoints  []Watchpoint
	watchPCs     []uint16
	changes      int
}

func (r *recorder) BreakpointHit(pc uint16) { r.breakpoints = append(r.breakpoints, pc) }
func (r *recorder) InstructionBreakpointHit(pc uint16, opcode uint16) {
	r.instructions = append(r.instructions, [2]uint16{pc, opcode})
}
func (r *recorder) WatchpointHit(pc uint16, w Watchpoint) {
	r.watchPCs = append(r.watchPCs, pc)
	r.watchpoints = append(r.watchpoints, w)
}
func (r *recorder) BreakpointsChanged() { r.changes++ }

func newTestDebugger(program ...uint8) (*Debugger, *flatBus, *recorder) {
	b := &flatBus{}
	copy(b.mem[0x0100:], program)
	d := New(cpu.New(b, nopClock{}, &cpu.Interrupts{}))
	r := &recorder{}
	d.AddListener(r)
	return d, b, r
}

func TestWriteWatchpointStopsBeforeStore(t *testing.T) {
	d, b, r := newTestDebugger(
		0x21, 0x00, 0xC0, // LD HL,$C000
		0x3E, 0x42, // LD A,$42
		0x77,       // LD (HL),A
		0x18, 0xFE, // JR -2
	)
	w := Watchpoint{Address: 0xC000, Kind: Write}
	require.NoError(t, d.AddWatchpoint(w))

	require.NoError(t, d.Run())
	require.NoError(t, d.Wait())

	assert.Equal(t, Hit{Kind: HitWatchpoint, PC: 0x0105, Watchpoint: w}, d.LastHit())
	assert.Equal(t, []uint16{0x0105}, r.watchPCs)
	assert.Equal(t, []Watchpoint{w}, r.watchpoints)
	assert.Zero(t, b.mem[0xC000], "the store has not run yet")

	snap := d.Snapshot()
	assert.Equal(t, "LD (HL),A", snap.Instruction.Instruction)
	assert.Contains(t, snap.String(), "PC=0105")

	// resuming steps past the hit
	require.NoError(t, d.AddBreakpoint(0x0106))
	require.NoError(t, d.Run())
	require.NoError(t, d.Wait())
	assert.Equal(t, uint8(0x42), b.mem[0xC000])
	assert.Equal(t, HitBreakpoint, d.LastHit().Kind)
	assert.Equal(t, []uint16{0x0106}, r.breakpoints)
}

func TestReadWatchpointIgnoresWrites(t *testing.T) {
	d, _, r := newTestDebugger(
		0x21, 0x00, 0xC0, // LD HL,$C000
		0x77,       // LD (HL),A
		0x7E,       // LD A,(HL)
		0x18, 0xFE, // JR -2
	)
	require.NoError(t, d.AddWatchpoint(Watchpoint{Address: 0xC000, Kind: Read}))
	require.NoError(t, d.Run())
	require.NoError(t, d.Wait())
	assert.Equal(t, []uint16{0x0104}, r.watchPCs)
}

func TestBreakpoints(t *testing.T) {
	d, _, r := newTestDebugger(0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x18, 0xFE)
	require.NoError(t, d.AddBreakpoint(0x0105))
	require.NoError(t, d.AddBreakpoint(0x0103))
	assert.Equal(t, []uint16{0x0103, 0x0105}, d.Breakpoints())
	assert.Equal(t, 2, r.changes)

	require.NoError(t, d.Run())
	require.NoError(t, d.Wait())
	assert.Equal(t, uint16(0x0103), d.Snapshot().PC)

	require.NoError(t, d.Run())
	require.NoError(t, d.Wait())
	assert.Equal(t, []uint16{0x0103, 0x0105}, r.breakpoints)

	require.NoError(t, d.RemoveBreakpoint(0x0103))
	assert.Equal(t, []uint16{0x0105}, d.Breakpoints())
}

func TestBreakpointAfterHaltFiresOnce(t *testing.T) {
	t.Run("idle cycles do not hit again", func(t *testing.T) {
		d, _, r := newTestDebugger(0x76, 0x00) // HALT; NOP
		require.NoError(t, d.AddBreakpoint(0x0101))

		require.NoError(t, d.Run())
		require.NoError(t, d.Wait())
		assert.Equal(t, Hit{Kind: HitBreakpoint, PC: 0x0101}, d.LastHit())
		assert.Equal(t, cpu.Halted, d.cpu.Mode())

		require.NoError(t, d.Run())
		time.Sleep(20 * time.Millisecond)
		assert.True(t, d.Running(), "still idling in HALT")
		require.NoError(t, d.Stop())
		assert.Equal(t, []uint16{0x0101}, r.breakpoints)
	})

	t.Run("wake up moves past the hit", func(t *testing.T) {
		d, _, r := newTestDebugger(0x76, 0x00, 0x18, 0xFE) // HALT; NOP; JR -2
		require.NoError(t, d.AddBreakpoint(0x0101))
		require.NoError(t, d.Run())
		require.NoError(t, d.Wait())

		st := d.cpu.State()
		st.IE, st.IF = 0x01, 0x01
		require.NoError(t, d.cpu.SetState(st))
		require.NoError(t, d.AddBreakpoint(0x0102))

		require.NoError(t, d.Run())
		require.NoError(t, d.Wait())
		assert.Equal(t, Hit{Kind: HitBreakpoint, PC: 0x0102}, d.LastHit())
		assert.Equal(t, []uint16{0x0101, 0x0102}, r.breakpoints)
	})
}

func TestInstructionBreakpoints(t *testing.T) {
	d, _, r := newTestDebugger(
		0x00,       // NOP
		0xAF,       // XOR A
		0xCB, 0x37, // SWAP A
		0x18, 0xFE, // JR -2
	)
	require.NoError(t, d.AddInstructionBreakpoint(0xAF))
	require.NoError(t, d.AddInstructionBreakpoint(0xCB37))
	assert.Equal(t, []uint16{0x00AF, 0xCB37}, d.InstructionBreakpoints())

	require.NoError(t, d.Run())
	require.NoError(t, d.Wait())
	assert.Equal(t, Hit{Kind: HitInstruction, PC: 0x0102, Opcode: 0xAF}, d.LastHit())

	require.NoError(t, d.Run())
	require.NoError(t, d.Wait())
	assert.Equal(t, [][2]uint16{{0x0102, 0x00AF}, {0x0104, 0xCB37}}, r.instructions)
}

func TestMutationWhileRunning(t *testing.T) {
	d, _, r := newTestDebugger(0x18, 0xFE)
	require.NoError(t, d.Run())

	var logicErr *cpu.LogicError
	err := d.AddBreakpoint(0x0100)
	assert.ErrorIs(t, err, cpu.ErrLogic)
	assert.ErrorAs(t, err, &logicErr)
	assert.ErrorIs(t, d.RemoveWatchpoint(Watchpoint{}), cpu.ErrLogic)
	assert.ErrorIs(t, d.AddInstructionBreakpoint(0x00), cpu.ErrLogic)
	assert.ErrorIs(t, d.Run(), cpu.ErrLogic)

	require.NoError(t, d.Stop())
	assert.Zero(t, r.changes)
	assert.Empty(t, d.Breakpoints())
	assert.NoError(t, d.AddBreakpoint(0x0100))
}

func TestWatchpointsAreASet(t *testing.T) {
	d, _, r := newTestDebugger()
	for _, w := range []Watchpoint{
		{Address: 0xFF40, Kind: Write},
		{Address: 0xC000, Kind: Write},
		{Address: 0xC000, Kind: Read},
		{Address: 0xC000, Kind: Write},
	} {
		require.NoError(t, d.AddWatchpoint(w))
	}
	assert.Equal(t, []Watchpoint{
		{Address: 0xC000, Kind: Read},
		{Address: 0xC000, Kind: Write},
		{Address: 0xFF40, Kind: Write},
	}, d.Watchpoints())
	assert.Equal(t, 4, r.changes)
}

func TestPrediction(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		setup   func(c *cpu.CPU)
		want    []access
	}{
		{"no memory operand", []uint8{0x00}, nil, []access{}},
		{"store through HL", []uint8{0x77}, func(c *cpu.CPU) { c.SetHL(0xC000) },
			[]access{{0xC000, Write}}},
		{"load through DE", []uint8{0x1A}, func(c *cpu.CPU) { c.SetDE(0xD000) },
			[]access{{0xD000, Read}}},
		{"read modify write", []uint8{0x34}, func(c *cpu.CPU) { c.SetHL(0xC010) },
			[]access{{0xC010, Read}, {0xC010, Write}}},
		{"ALU operand", []uint8{0xBE}, func(c *cpu.CPU) { c.SetHL(0xC020) },
			[]access{{0xC020, Read}}},
		{"high page store", []uint8{0xE0, 0x44}, nil, []access{{0xFF44, Write}}},
		{"high page via C", []uint8{0xF2}, func(c *cpu.CPU) { c.SetBC(0x1280) },
			[]access{{0xFF80, Read}}},
		{"absolute load", []uint8{0xFA, 0x34, 0xC2}, nil, []access{{0xC234, Read}}},
		{"store SP", []uint8{0x08, 0x00, 0xC1}, nil,
			[]access{{0xC100, Write}, {0xC101, Write}}},
		{"push", []uint8{0xC5}, nil, []access{{0xFFFD, Write}, {0xFFFC, Write}}},
		{"call taken", []uint8{0xC4, 0x00, 0x20}, func(c *cpu.CPU) { c.SetAF(0x0000) },
			[]access{{0xFFFD, Write}, {0xFFFC, Write}}},
		{"call not taken", []uint8{0xC4, 0x00, 0x20}, func(c *cpu.CPU) { c.SetAF(0x0080) },
			[]access{}},
		{"return", []uint8{0xC9}, func(c *cpu.CPU) { c.SetSP(0xDFF0) },
			[]access{{0xDFF0, Read}, {0xDFF1, Read}}},
		{"restart", []uint8{0xEF}, nil, []access{{0xFFFD, Write}, {0xFFFC, Write}}},
		{"bit test", []uint8{0xCB, 0x46}, func(c *cpu.CPU) { c.SetHL(0xC030) },
			[]access{{0xC030, Read}}},
		{"bit set", []uint8{0xCB, 0xC6}, func(c *cpu.CPU) { c.SetHL(0xC030) },
			[]access{{0xC030, Read}, {0xC030, Write}}},
		{"register CB op", []uint8{0xCB, 0x37}, nil, []access{}},
		{"halted", []uint8{0x77}, func(c *cpu.CPU) {
			s := c.State()
			s.Mode = cpu.Halted
			require.NoError(t, c.SetState(s))
		}, []access{}},
		{"interrupt pending", []uint8{0x77}, func(c *cpu.CPU) {
			s := c.State()
			s.IME, s.IE, s.IF = true, 0x01, 0x01
			require.NoError(t, c.SetState(s))
		}, []access{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, _ := newTestDebugger(tt.program...)
			if tt.setup != nil {
				tt.setup(d.cpu)
			}
			var acc accesses
			predict(d.cpu, &acc)
			assert.Equal(t, tt.want, acc.slice())
		})
	}
}
