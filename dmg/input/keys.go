package input

import "strings"

// Key is one of the eight console buttons. The values match the bit layout
// of the joypad register: directions in the low nibble, buttons in the high one.
type Key uint8

const (
	Right Key = iota
	Left
	Up
	Down
	A
	B
	Select
	Start
)

var keyNames = [...]string{"right", "left", "up", "down", "a", "b", "select", "start"}

func (k Key) String() string {
	if int(k) < len(keyNames) {
		return keyNames[k]
	}
	return "unknown"
}

// KeySet is a bitmask of pressed keys, bit n set meaning Key(n) is held.
type KeySet uint8

// With returns the set with k added.
func (s KeySet) With(k Key) KeySet { return s | 1<<k }

// Without returns the set with k removed.
func (s KeySet) Without(k Key) KeySet { return s &^ (1 << k) }

// Has reports whether k is in the set.
func (s KeySet) Has(k Key) bool { return s&(1<<k) != 0 }

// Directions returns the d-pad keys in the low nibble.
func (s KeySet) Directions() uint8 { return uint8(s) & 0x0F }

// Buttons returns A, B, Select and Start in the low nibble.
func (s KeySet) Buttons() uint8 { return uint8(s) >> 4 }

func (s KeySet) String() string {
	var held []string
	for k := Right; k <= Start; k++ {
		if s.Has(k) {
			held = append(held, k.String())
		}
	}
	return "[" + strings.Join(held, " ") + "]"
}

// Source supplies the keys currently held, polled once per host input tick.
type Source interface {
	Pressed() KeySet
}
