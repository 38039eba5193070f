package audio

// dutyPatterns are the 8-step waveforms selected by NRx1 bits 6-7.
var dutyPatterns = [4]uint8{
	0b00000001, // 12.5%
	0b10000001, // 25%
	0b10000111, // 50%
	0b01111110, // 75%
}

// Sweep is the channel 1 frequency sweep unit, clocked at 128 Hz.
type Sweep struct {
	Period  uint8
	Negate  bool
	Shift   uint8
	Timer   uint8
	Enabled bool
	Shadow  uint16
}

func (s *Sweep) reload() {
	s.Timer = s.Period
	if s.Timer == 0 {
		s.Timer = 8
	}
}

func (s *Sweep) next() uint16 {
	delta := s.Shadow >> s.Shift
	if s.Negate {
		return s.Shadow - delta
	}
	return s.Shadow + delta
}

// Square is a pulse channel. Channel 1 additionally owns a Sweep.
type Square struct {
	Enabled  bool
	DAC      bool
	Duty     uint8
	DutyStep uint8
	Freq     uint16
	Timer    int
	Length   Length
	Envelope Envelope

	HasSweep bool
	Sweep    Sweep
}

func newSquare(sweep bool) Square {
	return Square{HasSweep: sweep, Length: Length{Max: 64}}
}

func (c *Square) period() int {
	return int(2048-c.Freq) * 4
}

func (c *Square) tick(cycles int) {
	c.Timer -= cycles
	for c.Timer <= 0 {
		c.Timer += c.period()
		c.DutyStep = (c.DutyStep + 1) & 0x07
	}
}

// Sample returns the DAC output, 0 when the channel is off.
func (c *Square) Sample() int {
	if !c.Enabled || !c.DAC {
		return 0
	}
	level := uint8(0)
	if dutyPatterns[c.Duty]>>(7-c.DutyStep)&1 == 1 {
		level = c.Envelope.Volume
	}
	return dacOutput(level)
}

// Trigger restarts the channel, as a write of NRx4 bit 7 does.
func (c *Square) Trigger() {
	c.Length.trigger()
	c.Envelope.trigger()
	c.Timer = c.period()
	c.Enabled = c.DAC

	if c.HasSweep {
		s := &c.Sweep
		s.Shadow = c.Freq
		s.reload()
		s.Enabled = s.Period != 0 || s.Shift != 0
		if s.Shift != 0 && s.next() > 2047 {
			c.Enabled = false
		}
	}
}

func (c *Square) clockLength() {
	if !c.Length.clock() {
		c.Enabled = false
	}
}

func (c *Square) clockSweep() {
	s := &c.Sweep
	if !c.HasSweep {
		return
	}
	if s.Timer > 0 {
		s.Timer--
	}
	if s.Timer > 0 {
		return
	}
	s.reload()
	if !s.Enabled || s.Period == 0 {
		return
	}

	freq := s.next()
	if freq > 2047 {
		c.Enabled = false
		return
	}
	if s.Shift != 0 {
		s.Shadow = freq
		c.Freq = freq
		if s.next() > 2047 {
			c.Enabled = false
		}
	}
}

// Read returns register NRx0..NRx4 without the read mask applied.
func (c *Square) Read(reg int) uint8 {
	switch reg {
	case 0:
		s := c.Sweep
		v := s.Period<<4 | s.Shift
		if s.Negate {
			v |= 0x08
		}
		return v
	case 1:
		return c.Duty << 6
	case 2:
		return c.Envelope.read()
	case 4:
		if c.Length.Enabled {
			return 0x40
		}
	}
	return 0
}

// Write handles register NRx0..NRx4.
func (c *Square) Write(reg int, v uint8) {
	switch reg {
	case 0:
		if c.HasSweep {
			c.Sweep.Period = v >> 4 & 0x07
			c.Sweep.Negate = v&0x08 != 0
			c.Sweep.Shift = v & 0x07
		}
	case 1:
		c.Duty = v >> 6
		c.Length.load(int(v & 0x3F))
	case 2:
		c.Envelope.write(v)
		c.DAC = c.Envelope.dac()
		if !c.DAC {
			c.Enabled = false
		}
	case 3:
		c.Freq = c.Freq&0x700 | uint16(v)
	case 4:
		c.Freq = c.Freq&0xFF | uint16(v&0x07)<<8
		c.Length.Enabled = v&0x40 != 0
		if v&0x80 != 0 {
			c.Trigger()
		}
	}
}
