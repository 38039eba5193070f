package cpu

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStop(t *testing.T) {
	c, _, _ := newTestCPU(0x18, 0xFE) // JR -2

	require.NoError(t, c.Run())
	assert.True(t, c.Running())

	err := c.StepOver()
	assert.ErrorIs(t, err, ErrLogic)
	var logicErr *LogicError
	assert.True(t, errors.As(err, &logicErr))

	assert.ErrorIs(t, c.Run(), ErrLogic)

	require.NoError(t, c.Stop())
	assert.False(t, c.Running())
	assert.Equal(t, uint16(0x0100), c.PC())

	require.NoError(t, c.StepOver(), "stepping is allowed once stopped")
	assert.NoError(t, c.Stop(), "stopping a stopped loop is a no-op")
}

func TestRunReraisesLoopErrorOnce(t *testing.T) {
	c, _, _ := newTestCPU(0x00, 0x00, 0xDD)

	require.NoError(t, c.Run())
	err := c.Wait()

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, uint16(0xDD), execErr.Opcode)
	assert.Equal(t, uint16(0x0102), execErr.PC)

	assert.NoError(t, c.Stop())
}

func TestStopReturnsLoopError(t *testing.T) {
	c, _, _ := newTestCPU(0x00, 0xED)
	require.NoError(t, c.Run())
	require.Eventually(t, func() bool { return !c.Running() }, time.Second, time.Millisecond)

	err := c.Stop()
	var execErr *ExecutionError
	assert.True(t, errors.As(err, &execErr))
}

func TestRunWithHook(t *testing.T) {
	c, _, _ := newTestCPU(0x3C, 0x3C, 0x3C, 0x3C, 0x3C)
	c.setA(0)

	steps := 0
	require.NoError(t, c.RunWith(func() bool {
		steps++
		return steps <= 3
	}))
	require.NoError(t, c.Wait())

	assert.Equal(t, uint8(3), c.A())
	assert.Equal(t, uint16(0x0103), c.PC())
}
