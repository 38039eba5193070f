package memory

import (
	"errors"
	"fmt"
)

var (
	ErrHeaderTooShort     = errors.New("file shorter than the cartridge header")
	ErrROMSizeMismatch    = errors.New("file size does not match header rom size")
	ErrUnsupportedROMSize = errors.New("unsupported rom size code")
	ErrUnsupportedMBC     = errors.New("unsupported cartridge type")
	ErrUnsupportedRAMSize = errors.New("unsupported ram size code")

	// ErrBankOutOfRange is returned when a bank select write names a bank the
	// cartridge does not have after masking.
	ErrBankOutOfRange = errors.New("bank out of range")
)

// ConfigurationError reports a ROM image that cannot be loaded.
type ConfigurationError struct {
	Field string // header field that failed validation
	Value int
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("cartridge %s (0x%02X): %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
