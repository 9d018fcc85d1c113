package strategy

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid ladder configuration")
	ErrZeroLot              = errors.New("buy amount below one lot")
)

// InvalidConfigurationError names the offending parameter.
type InvalidConfigurationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid ladder configuration: %s=%v %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// ZeroLotError is returned when the requested buy amount cannot buy a single
// unit at the level's buy price, which leaves the return rate undefined.
type ZeroLotError struct {
	Class           SpacingClass
	Tier            float64
	BuyPrice        float64
	RequestedAmount float64
}

func (e *ZeroLotError) Error() string {
	return fmt.Sprintf("%s level at tier %.3f: amount %.2f buys zero units at %.4f",
		e.Class, e.Tier, e.RequestedAmount, e.BuyPrice)
}

func (e *ZeroLotError) Unwrap() error { return ErrZeroLot }
