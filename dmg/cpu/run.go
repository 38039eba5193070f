package cpu

// Run starts the execution loop on its own goroutine. The loop checks the stop
// flag once per instruction and exits on the first error.
func (c *CPU) Run() error {
	return c.RunWith(nil)
}

// RunWith is Run with a hook called before every instruction. The loop exits
// without error when the hook returns false.
func (c *CPU) RunWith(before func() bool) error {
	if !c.running.CompareAndSwap(false, true) {
		return &LogicError{Op: "Run", Reason: "execution loop already running"}
	}
	c.stop.Store(false)
	done := make(chan error, 1)
	c.done = done

	go func() {
		var err error
		for !c.stop.Load() {
			if before != nil && !before() {
				break
			}
			if err = c.step(); err != nil {
				break
			}
		}
		c.running.Store(false)
		done <- err
	}()
	return nil
}

// Running reports whether the execution loop is active.
func (c *CPU) Running() bool {
	return c.running.Load()
}

// Stop asks the loop to exit, waits for it, and returns the error that ended
// it, if any. The error is returned only once.
func (c *CPU) Stop() error {
	if c.done == nil {
		return nil
	}
	c.stop.Store(true)
	return c.Wait()
}

// Wait blocks until the loop exits on its own, through an error or the hook
// passed to RunWith, and returns that error.
func (c *CPU) Wait() error {
	if c.done == nil {
		return nil
	}
	err := <-c.done
	c.done = nil
	return err
}

// StepOver executes one instruction on the calling goroutine. It fails with a
// LogicError if the loop is running.
func (c *CPU) StepOver() error {
	if c.running.Load() {
		return &LogicError{Op: "StepOver", Reason: "execution loop is running"}
	}
	return c.step()
}
