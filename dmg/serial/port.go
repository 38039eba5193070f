package serial

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/bit"
	"github.com/valerio/go-dmgcore/dmg/bus"
)

// byteCycles is the duration of one transfer on the internal 8192 Hz clock,
// in machine cycles.
const byteCycles = 1024

// Port is a link port with nothing plugged in. Bytes shifted out are
// collected into lines and logged, which is how test ROMs report results.
// Incoming bits read as 1.
type Port struct {
	sb, sc    uint8
	active    bool
	remaining int

	irq    func(addr.Interrupt)
	logger *slog.Logger

	// settings
	immediate bool

	line []byte

	mu  sync.Mutex
	out strings.Builder
}

type Option func(*Port)

// WithTransferTiming completes transfers after the time the hardware takes
// to shift a byte out, instead of immediately.
func WithTransferTiming() Option { return func(p *Port) { p.immediate = false } }

// WithLogger sets the logger outgoing lines are written to.
func WithLogger(l *slog.Logger) Option { return func(p *Port) { p.logger = l } }

// New returns a port that requests the serial interrupt through irq when a
// transfer completes.
func New(irq func(addr.Interrupt), opts ...Option) *Port {
	p := &Port{
		irq:       irq,
		immediate: true,
		logger:    slog.Default().With("component", "serial"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Reset()
	return p
}

func (p *Port) Reset() {
	p.sb, p.sc = 0, 0
	p.active = false
	p.remaining = 0
	p.line = p.line[:0]
}

func (p *Port) Read(address uint16) uint8 {
	if address == addr.SB {
		return p.sb
	}
	// bits 1-6 are unused
	return p.sc | 0x7E
}

func (p *Port) Write(address uint16, value uint8) {
	switch address {
	case addr.SB:
		p.sb = value
	case addr.SC:
		p.sc = value & 0x81
		p.start()
	}
}

// Tick advances a timed transfer by one machine cycle.
func (p *Port) Tick() {
	if !p.active {
		return
	}
	p.remaining--
	if p.remaining <= 0 {
		p.complete()
	}
}

// start begins a transfer when SC requests one on the internal clock. With
// the external clock selected nothing ever drives the transfer.
func (p *Port) start() {
	if p.active || !bit.IsSet(7, p.sc) || !bit.IsSet(0, p.sc) {
		return
	}
	p.emit(p.sb)

	if p.immediate {
		p.complete()
		return
	}
	p.active = true
	p.remaining = byteCycles
}

func (p *Port) emit(b uint8) {
	p.mu.Lock()
	p.out.WriteByte(b)
	p.mu.Unlock()

	if b == 0 || b == '\n' || b == '\r' {
		if len(p.line) > 0 {
			p.logger.Info("serial", "line", string(p.line))
			p.line = p.line[:0]
		}
		return
	}
	p.line = append(p.line, b)
}

func (p *Port) complete() {
	p.sb = 0xFF
	p.sc = bit.Reset(7, p.sc)
	p.active = false
	if p.irq != nil {
		p.irq(addr.SerialInterrupt)
	}
}

// Output returns every byte sent so far. Safe to call from any goroutine.
func (p *Port) Output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.String()
}

// Attach maps SB and SC.
func (p *Port) Attach(b *bus.Bus) {
	b.Map(addr.IO, bus.Range(addr.SB, addr.SC, p.Read, p.Write))
}

// State is the register and transfer state. Collected output is not included.
type State struct {
	SB, SC    uint8
	Active    bool
	Remaining int
}

func (p *Port) State() State {
	return State{SB: p.sb, SC: p.sc, Active: p.active, Remaining: p.remaining}
}

func (p *Port) SetState(s State) {
	p.sb, p.sc = s.SB, s.SC
	p.active, p.remaining = s.Active, s.Remaining
}
