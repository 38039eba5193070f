package audio

// waveShifts maps the NR32 output level code to the right shift applied to
// each 4-bit sample: mute, 100%, 50%, 25%.
var waveShifts = [4]uint8{4, 0, 1, 2}

// Wave is channel 3. It plays the 32 4-bit samples stored in wave RAM,
// high nibble first.
type Wave struct {
	Enabled  bool
	DAC      bool
	Level    uint8
	Freq     uint16
	Timer    int
	Position uint8
	Length   Length
	Table    [16]uint8
}

func newWave() Wave {
	return Wave{Length: Length{Max: 256}}
}

func (c *Wave) period() int {
	return int(2048-c.Freq) * 2
}

func (c *Wave) tick(cycles int) {
	c.Timer -= cycles
	for c.Timer <= 0 {
		c.Timer += c.period()
		c.Position = (c.Position + 1) & 0x1F
	}
}

func (c *Wave) sampleAt(i uint8) uint8 {
	b := c.Table[i/2]
	if i&1 == 0 {
		return b >> 4
	}
	return b & 0x0F
}

// Sample returns the DAC output, 0 when the channel is off.
func (c *Wave) Sample() int {
	if !c.Enabled || !c.DAC {
		return 0
	}
	return dacOutput(c.sampleAt(c.Position) >> waveShifts[c.Level])
}

// Trigger restarts playback from the first sample.
func (c *Wave) Trigger() {
	c.Length.trigger()
	c.Timer = c.period()
	c.Position = 0
	c.Enabled = c.DAC
}

func (c *Wave) clockLength() {
	if !c.Length.clock() {
		c.Enabled = false
	}
}

func (c *Wave) Read(reg int) uint8 {
	switch reg {
	case 0:
		if c.DAC {
			return 0x80
		}
	case 2:
		return c.Level << 5
	case 4:
		if c.Length.Enabled {
			return 0x40
		}
	}
	return 0
}

func (c *Wave) Write(reg int, v uint8) {
	switch reg {
	case 0:
		c.DAC = v&0x80 != 0
		if !c.DAC {
			c.Enabled = false
		}
	case 1:
		c.Length.load(int(v))
	case 2:
		c.Level = v >> 5 & 0x03
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
