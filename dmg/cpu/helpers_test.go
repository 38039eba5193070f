package cpu

// flatBus is 64 KiB of plain memory.
type flatBus struct {
	mem   [0x10000]uint8
	fault error
}

func (b *flatBus) Read(address uint16) uint8         { return b.mem[address] }
func (b *flatBus) Write(address uint16, value uint8) { b.mem[address] = value }

func (b *flatBus) TakeFault() error {
	err := b.fault
	b.fault = nil
	return err
}

type countingClock struct{ ticks int }

func (c *countingClock) Tick() { c.ticks++ }

// newTestCPU returns a CPU with program loaded at 0x0100 and the stack at 0xFFFE.
func newTestCPU(program ...uint8) (*CPU, *flatBus, *countingClock) {
	b := &flatBus{}
	copy(b.mem[0x0100:], program)
	clk := &countingClock{}
	return New(b, clk, &Interrupts{}), b, clk
}

// stepCycles executes one step and returns the machine cycles it consumed.
func stepCycles(c *CPU, clk *countingClock) (int, error) {
	before := clk.ticks
	err := c.StepOver()
	return clk.ticks - before, err
}
