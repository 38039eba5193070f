package bit

// Combine joins two bytes into a 16 bit value, high byte first.
func Combine(high, low uint8) uint16 {
	return uint16(high)<<8 | uint16(low)
}

// Low returns the least significant byte of value.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the most significant byte of value.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// IsSet reports whether the bit at index is 1.
func IsSet(index, value uint8) bool {
	return (value>>index)&1 == 1
}

// Set returns value with the bit at index set to 1.
func Set(index, value uint8) uint8 {
	return value | 1<<index
}

// Reset returns value with the bit at index set to 0.
func Reset(index, value uint8) uint8 {
	return value &^ (1 << index)
}

// SetTo sets or resets the bit at index depending on on.
func SetTo(index, value uint8, on bool) uint8 {
	if on {
		return Set(index, value)
	}
	return Reset(index, value)
}

// Value returns the bit at index as 0 or 1.
func Value(index, value uint8) uint8 {
	return (value >> index) & 1
}

// Extract returns bits high..low (inclusive) of value, shifted down.
//
//	Extract(0b11010110, 6, 4) == 0b101
func Extract(value uint8, high, low uint8) uint8 {
	width := high - low + 1
	return (value >> low) & uint8(1<<width-1)
}
