package types

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField        = errors.New("required field missing")
	ErrUnknownSide         = errors.New("side must be BUY or SELL")
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	ErrNonPositivePrice    = errors.New("price must be positive")
	ErrNegativeCharges     = errors.New("charges must not be negative")
	ErrOutOfOrder          = errors.New("execution timestamp earlier than a previous execution of the same symbol")

	ErrTrendUnavailable     = errors.New("trend score unavailable")
	ErrNarrativeUnavailable = errors.New("narrative unavailable")
)

// ValidationError ties a broken input invariant to the record that broke it.
// Row is 1-based over the data rows of the source, 0 when unknown.
type ValidationError struct {
	Row    int
	Symbol string
	Field  string
	Err    error
}

func (e *ValidationError) Error() string {
	loc := ""
	if e.Row > 0 {
		loc = fmt.Sprintf("row %d: ", e.Row)
	}
	if e.Symbol != "" {
		return fmt.Sprintf("%ssymbol %s: %s: %v", loc, e.Symbol, e.Field, e.Err)
	}
	return fmt.Sprintf("%s%s: %v", loc, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ConfigError names the dotted option path that failed validation.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config option %s: %s", e.Option, e.Reason)
}
