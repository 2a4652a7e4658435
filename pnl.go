package tradecore

// Direction is the side of the market a position is exposed to. A flat
// position has no direction; the first execution on a flat key sets it.
type Direction int

const (
	Flat Direction = iota
	Long
	Short
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// contractScale returns the monetary value of a one point move per unit of
// quantity: 1 for equity and crypto, the contract multiplier for options, the
// point value for futures. The type switch is exhaustive over the closed
// Instrument set.
func contractScale(inst Instrument) Quantity {
	switch v := inst.(type) {
	case Equity:
		return Q(1)
	case Crypto:
		return Q(1)
	case Option:
		if v.Multiplier.IsZero() {
			return Q(100)
		}
		return v.Multiplier
	case Future:
		if v.PointValue.IsZero() {
			return Q(1)
		}
		return v.PointValue
	default:
		// Instrument is a closed set; a new variant must be wired here.
		panic("unhandled instrument variant")
	}
}

// RealizedPnL prices a closing quantity against a position's cost basis.
//
// entry is the average price of the leg that opened the position and exit the
// price of the execution closing it; for a short position the "entry" is the
// earlier sell price. The caller passes operands in opening order and the
// direction flips the sign of the price difference. Fees are subtracted once,
// after scaling.
func RealizedPnL(inst Instrument, dir Direction, entry, exit Money, qty Quantity, fees Money) Money {
	diff := exit.Sub(entry)
	if dir == Short {
		diff = diff.Neg()
	}
	return diff.Mul(qty).Mul(contractScale(inst)).Sub(fees)
}
