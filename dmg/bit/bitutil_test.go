package bit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineSplit(t *testing.T) {
	tests := []struct {
		high, low uint8
		expected  uint16
	}{
		{0xAB, 0xCD, 0xABCD},
		{0x00, 0x00, 0x0000},
		{0xFF, 0xFF, 0xFFFF},
		{0x12, 0x34, 0x1234},
	}

	for _, tt := range tests {
		v := Combine(tt.high, tt.low)
		assert.Equal(t, tt.expected, v)
		assert.Equal(t, tt.high, High(v))
		assert.Equal(t, tt.low, Low(v))
	}
}

func TestSingleBitHelpers(t *testing.T) {
	assert.True(t, IsSet(7, 0x80))
	assert.False(t, IsSet(0, 0x80))
	assert.Equal(t, uint8(0x81), Set(0, 0x80))
	assert.Equal(t, uint8(0x00), Reset(7, 0x80))
	assert.Equal(t, uint8(0x04), SetTo(2, 0x00, true))
	assert.Equal(t, uint8(0x00), SetTo(2, 0x04, false))
	assert.Equal(t, uint8(1), Value(3, 0x08))
	assert.Equal(t, uint8(0), Value(2, 0x08))
}

func TestExtract(t *testing.T) {
	tests := []struct {
		value     uint8
		high, low uint8
		expected  uint8
	}{
		{0b11010110, 6, 4, 0b101},
		{0b11010110, 7, 0, 0b11010110},
		{0b11010110, 1, 1, 1},
		{0b11000000, 7, 6, 0b11},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Extract(tt.value, tt.high, tt.low))
	}
}
