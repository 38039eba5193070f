package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeySetNibbles(t *testing.T) {
	s := KeySet(0).With(Right).With(Down).With(A).With(Start)

	assert.True(t, s.Has(Right))
	assert.False(t, s.Has(Left))
	assert.Equal(t, uint8(0b1001), s.Directions())
	assert.Equal(t, uint8(0b1001), s.Buttons())
	assert.Equal(t, "[right down a start]", s.String())
	assert.False(t, s.Without(A).Has(A))
}

func TestManagerButtons(t *testing.T) {
	m := NewManager()
	m.Press(ActionA)
	m.Press(ActionLeft)
	assert.Equal(t, KeySet(0).With(A).With(Left), m.Pressed())

	m.Release(ActionA)
	assert.Equal(t, KeySet(0).With(Left), m.Pressed())
}

func TestManagerActionsAreDebounced(t *testing.T) {
	m := NewManager()
	clock := time.Unix(1000, 0)
	m.now = func() time.Time { return clock }

	calls := 0
	m.On(ActionPauseToggle, func() { calls++ })

	m.Press(ActionPauseToggle)
	m.Press(ActionPauseToggle)
	assert.Equal(t, 1, calls)

	clock = clock.Add(debounceDuration)
	m.Press(ActionPauseToggle)
	assert.Equal(t, 2, calls)
	assert.Equal(t, KeySet(0), m.Pressed())
}

func TestDefaultKeyMapButtons(t *testing.T) {
	tests := map[string]Key{"z": A, "x": B, "Enter": Start, "Up": Up, "a": Left}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			k, ok := DefaultKeyMap[name].Key()
			assert.True(t, ok)
			assert.Equal(t, want, k)
		})
	}
}
