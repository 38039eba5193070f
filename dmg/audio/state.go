package audio

// State is the full APU state. Channel mute flags are host settings and
// are not included.
type State struct {
	Enabled      bool
	NR50, NR51   uint8
	Ch1, Ch2     Square
	Ch3          Wave
	Ch4          Noise
	Step         int
	StepCycles   int
	SampleCycles int
}

func (a *APU) State() State {
	return State{
		Enabled:      a.enabled,
		NR50:         a.nr50,
		NR51:         a.nr51,
		Ch1:          a.ch1,
		Ch2:          a.ch2,
		Ch3:          a.ch3,
		Ch4:          a.ch4,
		Step:         a.step,
		StepCycles:   a.stepCycles,
		SampleCycles: a.sampleCycles,
	}
}

func (a *APU) SetState(s State) {
	a.enabled = s.Enabled
	a.nr50, a.nr51 = s.NR50, s.NR51
	a.ch1, a.ch2, a.ch3, a.ch4 = s.Ch1, s.Ch2, s.Ch3, s.Ch4
	a.step = s.Step
	a.stepCycles = s.StepCycles
	a.sampleCycles = s.SampleCycles
}
