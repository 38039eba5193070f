package audio

// noiseDivisors maps NR43 bits 0-2 to the base period in clock ticks.
var noiseDivisors = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

// Noise is channel 4, a linear feedback shift register clocked at a
// programmable rate.
type Noise struct {
	Enabled  bool
	DAC      bool
	Shift    uint8
	Width7   bool
	Divisor  uint8
	Timer    int
	LFSR     uint16
	Length   Length
	Envelope Envelope
}

func newNoise() Noise {
	return Noise{Length: Length{Max: 64}, LFSR: 0x7FFF}
}

func (c *Noise) period() int {
	return noiseDivisors[c.Divisor] << c.Shift
}

func (c *Noise) tick(cycles int) {
	// shifts 14 and 15 leave the LFSR unclocked
	if c.Shift >= 14 {
		return
	}
	c.Timer -= cycles
	for c.Timer <= 0 {
		c.Timer += c.period()
		c.step()
	}
}

// step shifts the LFSR once, feeding bit0 XOR bit1 into bit 14, and into
// bit 6 too in 7-bit mode.
func (c *Noise) step() {
	feedback := (c.LFSR ^ c.LFSR>>1) & 1
	c.LFSR = c.LFSR>>1 | feedback<<14
	if c.Width7 {
		c.LFSR = c.LFSR&^(1<<6) | feedback<<6
	}
}

// Sample returns the DAC output, 0 when the channel is off.
func (c *Noise) Sample() int {
	if !c.Enabled || !c.DAC {
		return 0
	}
	level := uint8(0)
	if c.LFSR&1 == 0 {
		level = c.Envelope.Volume
	}
	return dacOutput(level)
}

// Trigger restarts the channel with a full LFSR.
func (c *Noise) Trigger() {
	c.Length.trigger()
	c.Envelope.trigger()
	c.Timer = c.period()
	c.LFSR = 0x7FFF
	c.Enabled = c.DAC
}

func (c *Noise) clockLength() {
	if !c.Length.clock() {
		c.Enabled = false
	}
}

func (c *Noise) Read(reg int) uint8 {
	switch reg {
	case 2:
		return c.Envelope.read()
	case 3:
		v := c.Shift<<4 | c.Divisor
		if c.Width7 {
			v |= 0x08
		}
		return v
	case 4:
		if c.Length.Enabled {
			return 0x40
		}
	}
	return 0
}

func (c *Noise) Write(reg int, v uint8) {
	switch reg {
	case 1:
		c.Length.load(int(v & 0x3F))
	case 2:
		c.Envelope.write(v)
		c.DAC = c.Envelope.dac()
		if !c.DAC {
			c.Enabled = false
		}
	case 3:
		c.Shift = v >> 4
		c.Width7 = v&0x08 != 0
		c.Divisor = v & 0x07
	case 4:
		c.Length.Enabled = v&0x40 != 0
		if v&0x80 != 0 {
			c.Trigger()
		}
	}
}
