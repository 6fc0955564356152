package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrIllegalAction is returned for actions in the wrong phase or on an
	// ineligible hand. State is never modified.
	ErrIllegalAction = errors.New("illegal action")

	// ErrInsufficientFunds is returned when a paid double or split costs more
	// than the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSplitInProgress is returned when a split is attempted while another
	// split is still being applied.
	ErrSplitInProgress = errors.New("split already in progress")
)

// ValidationError describes a rejected input value
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func illegal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalAction, fmt.Sprintf(format, args...))
}

// ParseBet parses a bet amount typed by a user
func ParseBet(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "bet", Reason: "amount is required"}
	}
	bet, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "bet", Value: s, Reason: "not a number"}
	}
	if !bet.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "bet", Value: s, Reason: "must be positive"}
	}
	return bet, nil
}
