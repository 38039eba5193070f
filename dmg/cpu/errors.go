package cpu

import (
	"errors"
	"fmt"
)

// ErrLogic is wrapped by every LogicError, for errors.Is checks.
var ErrLogic = errors.New("logic error")

// ExecutionError is returned when the CPU fetches an opcode it cannot execute.
// It stops the run loop.
type ExecutionError struct {
	Opcode   uint16 // 0xCBxx for prefixed opcodes
	Mnemonic string
	PC       uint16 // address the opcode was fetched from
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("unimplemented opcode 0x%02X (%s) at %04X", e.Opcode, e.Mnemonic, e.PC)
}

// LogicError reports a call made in a state where it is not allowed, such as
// stepping while the run loop is active. It signals a bug in the caller.
type LogicError struct {
	Op     string
	Reason string
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *LogicError) Unwrap() error { return ErrLogic }
