package audio

// Length is a channel length counter. When enabled it counts down at 256 Hz
// and turns the channel off on reaching zero.
type Length struct {
	Value   int
	Enabled bool
	Max     int
}

func (l *Length) load(v int) {
	l.Value = l.Max - v
}

// clock returns false when the counter expired on this step.
func (l *Length) clock() bool {
	if !l.Enabled || l.Value == 0 {
		return true
	}
	l.Value--
	return l.Value != 0
}

func (l *Length) trigger() {
	if l.Value == 0 {
		l.Value = l.Max
	}
}

// Envelope is the NRx2 volume envelope, clocked at 64 Hz.
type Envelope struct {
	Initial  uint8
	Increase bool
	Period   uint8
	Timer    uint8
	Volume   uint8
}

func (e *Envelope) write(v uint8) {
	e.Initial = v >> 4
	e.Increase = v&0x08 != 0
	e.Period = v & 0x07
}

func (e *Envelope) read() uint8 {
	v := e.Initial<<4 | e.Period
	if e.Increase {
		v |= 0x08
	}
	return v
}

// dac reports whether the NRx2 value leaves the channel DAC powered.
func (e *Envelope) dac() bool {
	return e.Initial != 0 || e.Increase
}

func (e *Envelope) trigger() {
	e.Volume = e.Initial
	e.Timer = e.Period
}

func (e *Envelope) clock() {
	if e.Period == 0 {
		return
	}
	if e.Timer > 0 {
		e.Timer--
	}
	if e.Timer > 0 {
		return
	}
	e.Timer = e.Period
	switch {
	case e.Increase && e.Volume < 15:
		e.Volume++
	case !e.Increase && e.Volume > 0:
		e.Volume--
	}
}

// dacOutput converts a 4-bit digital level to the signed DAC range -15..15.
func dacOutput(level uint8) int {
	return int(level)*2 - 15
}
