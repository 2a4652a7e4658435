package tradecore

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskr/tradecore/date"
	"github.com/shopspring/decimal"
)

// Side is the direction of a single execution.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// ParseSide parses a string into a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(s) {
	case "buy", "b":
		return Buy, nil
	case "sell", "s":
		return Sell, nil
	default:
		return Buy, fmt.Errorf("unknown side: %q", s)
	}
}

func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

func (s *Side) UnmarshalJSON(b []byte) error {
	v, err := ParseSide(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Execution is a single broker fill: one side, one quantity, one price, one
// timestamp. Executions are the immutable input of a replay; the engine never
// mutates them.
type Execution struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Underlying string          `json:"underlying,omitempty"`
	Asset      AssetType       `json:"asset"`
	Side       Side            `json:"side"`
	Quantity   Quantity        `json:"quantity"`
	Price      Money           `json:"price"`
	Fees       Money           `json:"fees"`
	Time       time.Time       `json:"time"`
	OptionType OptionType      `json:"optionType,omitempty"`
	Strike     decimal.Decimal `json:"strike,omitempty"`
	Expiry     date.Date       `json:"expiry,omitempty"`
	// Multiplier overrides the option contract multiplier (default 100).
	Multiplier Quantity `json:"multiplier,omitempty"`
	// PointValue overrides the futures point value table.
	PointValue Quantity `json:"pointValue,omitempty"`
}

// Day returns the calendar day of the execution in UTC.
func (e Execution) Day() date.Date { return date.FromTime(e.Time) }

// ValidationError reports a malformed execution. It carries the offending
// execution's id so batch callers can report it back without aborting the
// whole run.
type ValidationError struct {
	ID     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid execution %q: %s", e.ID, e.Reason)
}

func (e Execution) invalid(reason string) *ValidationError {
	return &ValidationError{ID: e.ID, Reason: reason}
}

// Validate checks an execution for structural correctness. It returns a
// *ValidationError describing the first failure, or nil.
//
// A zero or negative quantity, a negative price or fee, or a missing
// timestamp never silently becomes a no-op trade; it is surfaced here, before
// aggregation of the instrument key begins. Option field completeness is
// checked by ResolveInstrument.
func (e Execution) Validate() error {
	if !e.Quantity.IsPositive() {
		return e.invalid(fmt.Sprintf("quantity %s is not positive", e.Quantity))
	}
	if e.Price.IsNegative() {
		return e.invalid(fmt.Sprintf("price %s is negative", e.Price))
	}
	if e.Fees.IsNegative() {
		return e.invalid(fmt.Sprintf("fees %s are negative", e.Fees))
	}
	if e.Time.IsZero() {
		return e.invalid("missing timestamp")
	}
	if _, err := ResolveInstrument(e); err != nil {
		return err
	}
	return nil
}
