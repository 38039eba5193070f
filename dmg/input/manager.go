package input

import (
	"sync"
	"sync/atomic"
	"time"
)

// Action is anything a host key can be bound to.
type Action int

const (
	ActionNone Action = iota

	// console buttons
	ActionRight
	ActionLeft
	ActionUp
	ActionDown
	ActionA
	ActionB
	ActionSelect
	ActionStart

	// emulator controls
	ActionPauseToggle
	ActionStepInstruction
	ActionSaveState
	ActionSnapshot
	ActionQuit
)

// Key returns the console button bound to a, if any.
func (a Action) Key() (Key, bool) {
	if a >= ActionRight && a <= ActionStart {
		return Key(a - ActionRight), true
	}
	return 0, false
}

// DefaultKeyMap binds host key names to actions. Backends translate their own
// key events to these names.
var DefaultKeyMap = map[string]Action{
	"z":      ActionA,
	"x":      ActionB,
	"Enter":  ActionStart,
	"Shift":  ActionSelect,
	"Select": ActionSelect,
	"Up":     ActionUp,
	"Down":   ActionDown,
	"Left":   ActionLeft,
	"Right":  ActionRight,
	"w":      ActionUp,
	"s":      ActionDown,
	"a":      ActionLeft,
	"d":      ActionRight,

	"Space":  ActionPauseToggle,
	"p":      ActionPauseToggle,
	"n":      ActionStepInstruction,
	"F5":     ActionSaveState,
	"F9":     ActionSnapshot,
	"Escape": ActionQuit,
	"q":      ActionQuit,
}

const debounceDuration = 300 * time.Millisecond

// Manager tracks held console buttons and dispatches emulator actions.
// It is written by the host input goroutine and read by the emulation loop
// through Pressed, which only needs eventual visibility.
type Manager struct {
	held atomic.Uint32

	mu       sync.Mutex
	handlers map[Action][]func()
	last     map[Action]time.Time
	now      func() time.Time
}

// NewManager returns a manager with no keys held.
func NewManager() *Manager {
	return &Manager{
		handlers: make(map[Action][]func()),
		last:     make(map[Action]time.Time),
		now:      time.Now,
	}
}

// On registers fn for an emulator action.
func (m *Manager) On(a Action, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[a] = append(m.handlers[a], fn)
}

// Press marks a button as held, or fires the handlers of an emulator action.
// Emulator actions are debounced since terminals repeat keys while held.
func (m *Manager) Press(a Action) {
	if k, ok := a.Key(); ok {
		m.update(func(s KeySet) KeySet { return s.With(k) })
		return
	}

	m.mu.Lock()
	now := m.now()
	if now.Sub(m.last[a]) < debounceDuration {
		m.mu.Unlock()
		return
	}
	m.last[a] = now
	fns := append([]func(){}, m.handlers[a]...)
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Release marks a button as no longer held. Emulator actions ignore it.
func (m *Manager) Release(a Action) {
	if k, ok := a.Key(); ok {
		m.update(func(s KeySet) KeySet { return s.Without(k) })
	}
}

// Pressed implements Source.
func (m *Manager) Pressed() KeySet {
	return KeySet(m.held.Load())
}

func (m *Manager) update(fn func(KeySet) KeySet) {
	for {
		old := m.held.Load()
		if m.held.CompareAndSwap(old, uint32(fn(KeySet(old)))) {
			return
		}
	}
}
