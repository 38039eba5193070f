package timing

import (
	"log/slog"
	"time"
)

const (
	// CyclesPerFrame is the number of machine cycles in one 154 line frame.
	CyclesPerFrame = 17556
	// CyclesPerSecond is the machine cycle rate, a quarter of the 4 MiHz clock.
	CyclesPerSecond = 1 << 20
)

// FrameRate returns the native frame rate, about 59.73 Hz.
func FrameRate() float64 {
	return float64(CyclesPerSecond) / float64(CyclesPerFrame)
}

// FrameDuration returns the length of one native frame.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / FrameRate())
}

// Pacer holds a frame sink back to the native frame rate.
type Pacer interface {
	// Wait blocks until the next frame is due. It returns immediately when
	// the caller is behind.
	Wait()
	// Reset restarts the schedule from now, after a pause.
	Reset()
}

// Unlimited returns a pacer that never waits, for headless runs.
func Unlimited() Pacer { return unlimited{} }

type unlimited struct{}

func (unlimited) Wait()  {}
func (unlimited) Reset() {}

// maxLag is how far behind schedule a caller may fall before the schedule is
// restarted instead of caught up.
const maxLag = 5 * time.Millisecond

// SleepPacer sleeps until each frame deadline. Deadlines advance by a fixed
// period so rounding in individual sleeps does not accumulate.
type SleepPacer struct {
	period time.Duration
	next   time.Time
	frames int64
	resets int64

	now    func() time.Time
	sleep  func(time.Duration)
	logger *slog.Logger
}

func NewSleepPacer() *SleepPacer {
	return newSleepPacer(FrameDuration(), time.Now, time.Sleep)
}

func newSleepPacer(period time.Duration, now func() time.Time, sleep func(time.Duration)) *SleepPacer {
	return &SleepPacer{
		period: period,
		next:   now().Add(period),
		now:    now,
		sleep:  sleep,
		logger: slog.Default().With("component", "timing"),
	}
}

func (p *SleepPacer) Wait() {
	now := p.now()
	switch d := p.next.Sub(now); {
	case d > 0:
		p.sleep(d)
	case d < -maxLag:
		p.resets++
		p.logger.Debug("frame pacing fell behind", "lag_ms", (-d).Milliseconds(), "frames", p.frames)
		p.next = now
	}
	p.next = p.next.Add(p.period)
	p.frames++
}

func (p *SleepPacer) Reset() {
	p.next = p.now().Add(p.period)
	p.frames = 0
}

// Resets returns how many times the schedule was restarted because the
// caller fell behind.
func (p *SleepPacer) Resets() int64 { return p.resets }
