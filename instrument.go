package tradecore

import (
	"fmt"
	"strings"

	"github.com/riskr/tradecore/date"
	"github.com/shopspring/decimal"
)

// AssetType classifies an execution by the kind of instrument it trades.
type AssetType int

const (
	AssetEquity AssetType = iota
	AssetOption
	AssetFuture
	AssetCrypto
)

func (a AssetType) String() string {
	switch a {
	case AssetEquity:
		return "equity"
	case AssetOption:
		return "option"
	case AssetFuture:
		return "future"
	case AssetCrypto:
		return "crypto"
	default:
		return "unknown"
	}
}

// ParseAssetType parses a string into an AssetType.
func ParseAssetType(s string) (AssetType, error) {
	switch strings.ToLower(s) {
	case "equity", "stock":
		return AssetEquity, nil
	case "option":
		return AssetOption, nil
	case "future", "futures":
		return AssetFuture, nil
	case "crypto":
		return AssetCrypto, nil
	default:
		return 0, fmt.Errorf("unknown asset type: %q", s)
	}
}

func (a AssetType) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", a.String())), nil
}

func (a *AssetType) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := ParseAssetType(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// OptionType distinguishes calls from puts.
type OptionType int

const (
	OptionNone OptionType = iota
	Call
	Put
)

func (o OptionType) String() string {
	switch o {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return ""
	}
}

// ParseOptionType parses a string into an OptionType.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(s) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	default:
		return OptionNone, fmt.Errorf("unknown option type: %q", s)
	}
}

func (o OptionType) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", o.String())), nil
}

func (o *OptionType) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*o = OptionNone
		return nil
	}
	v, err := ParseOptionType(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Instrument is the closed set of tradable instrument variants. Each variant
// carries only the fields its payoff formula needs; payoff selection is an
// exhaustive type switch, not a string comparison.
type Instrument interface {
	// Key returns the stable grouping key for a position. Two executions with
	// equal keys are, by definition, the same tradable position.
	Key() string
	// Symbol returns the display symbol for the instrument.
	Symbol() string

	isInstrument()
}

// Equity is a plain stock or ETF position.
type Equity struct {
	Ticker string
}

func (e Equity) Key() string    { return e.Ticker }
func (e Equity) Symbol() string { return e.Ticker }
func (Equity) isInstrument()    {}

// Crypto is a spot cryptocurrency position. Its payoff is identical to
// equity; it is a distinct variant so callers can group and report by class.
type Crypto struct {
	Ticker string
}

func (c Crypto) Key() string    { return c.Ticker }
func (c Crypto) Symbol() string { return c.Ticker }
func (Crypto) isInstrument()    {}

// Option is a single-leg equity option contract.
type Option struct {
	Underlying string
	Type       OptionType
	Strike     decimal.Decimal
	Expiry     date.Date
	// Multiplier is the contract multiplier, 100 unless overridden.
	Multiplier Quantity
}

func (o Option) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s", o.Underlying, o.Type, o.Strike, o.Expiry)
}
func (o Option) Symbol() string { return o.Underlying }
func (Option) isInstrument()    {}

// Future is a futures contract position.
type Future struct {
	Ticker string
	// PointValue is the monetary value of a one point move, resolved from an
	// explicit override or the contract specification table.
	PointValue Quantity
}

func (f Future) Key() string    { return f.Ticker }
func (f Future) Symbol() string { return f.Ticker }
func (Future) isInstrument()    {}

// futuresPointValues maps contract root symbols to the value of a full point
// move. Unknown roots fall back to a point value of 1.
var futuresPointValues = map[string]int{
	"ES":  50,   // E-mini S&P 500
	"MES": 5,    // Micro E-mini S&P 500
	"NQ":  20,   // E-mini NASDAQ-100
	"MNQ": 2,    // Micro E-mini NASDAQ-100
	"YM":  5,    // E-mini Dow
	"RTY": 50,   // E-mini Russell 2000
	"CL":  1000, // Crude Oil
	"GC":  100,  // Gold
	"SI":  5000, // Silver
	"ZB":  1000, // US Treasury Bond
	"ZN":  1000, // US Treasury Note
}

// FuturesPointValue returns the point value for a futures symbol, matching
// the longest known contract root prefix (so "ESZ5" resolves to ES, and
// "MESZ5" to MES rather than ES).
func FuturesPointValue(symbol string) Quantity {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	best := 0
	value := 1
	for root, pv := range futuresPointValues {
		if strings.HasPrefix(symbol, root) && len(root) > best {
			best, value = len(root), pv
		}
	}
	return Q(value)
}

// ResolveInstrument derives the instrument variant, and therefore the stable
// grouping key, for an execution. Missing option fields are a data error.
func ResolveInstrument(e Execution) (Instrument, error) {
	symbol := strings.ToUpper(strings.TrimSpace(e.Symbol))
	switch e.Asset {
	case AssetEquity:
		if symbol == "" {
			return nil, e.invalid("execution has no symbol")
		}
		return Equity{Ticker: symbol}, nil
	case AssetCrypto:
		if symbol == "" {
			return nil, e.invalid("execution has no symbol")
		}
		return Crypto{Ticker: symbol}, nil
	case AssetOption:
		underlying := strings.ToUpper(strings.TrimSpace(e.Underlying))
		if underlying == "" {
			underlying = symbol
		}
		if underlying == "" {
			return nil, e.invalid("option execution has no underlying")
		}
		if e.OptionType != Call && e.OptionType != Put {
			return nil, e.invalid("option execution has no call/put type")
		}
		if !e.Strike.IsPositive() {
			return nil, e.invalid("option execution has no strike")
		}
		if e.Expiry.IsZero() {
			return nil, e.invalid("option execution has no expiry")
		}
		mult := e.Multiplier
		if mult.IsZero() {
			mult = Q(100)
		}
		return Option{
			Underlying: underlying,
			Type:       e.OptionType,
			Strike:     e.Strike,
			Expiry:     e.Expiry,
			Multiplier: mult,
		}, nil
	case AssetFuture:
		if symbol == "" {
			return nil, e.invalid("futures execution has no symbol")
		}
		pv := e.PointValue
		if pv.IsZero() {
			pv = FuturesPointValue(symbol)
		}
		return Future{Ticker: symbol, PointValue: pv}, nil
	default:
		return nil, e.invalid(fmt.Sprintf("unknown asset type %d", e.Asset))
	}
}
