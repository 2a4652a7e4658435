package tradecore

import (
	"sort"
	"sync"
	"time"
)

// ErrorPolicy selects what Aggregate does with a malformed execution.
type ErrorPolicy int

const (
	// SkipInvalid drops the offending execution, records it in
	// Replay.Skipped with its id and reason, and keeps going.
	SkipInvalid ErrorPolicy = iota
	// AbortOnInvalid stops the whole run at the first malformed execution.
	AbortOnInvalid
)

// Options configures a replay.
type Options struct {
	OnError ErrorPolicy
}

// Position is the net open exposure and average cost for one instrument key.
// All open quantity shares one blended entry price: this is average-cost
// matching, not lot-level FIFO, so there is no per-lot identity once opened.
type Position struct {
	Key           string    `json:"key"`
	Symbol        string    `json:"symbol"`
	Asset         AssetType `json:"asset"`
	Direction     Direction `json:"direction"`
	OpenQuantity  Quantity  `json:"openQuantity"`
	AvgEntryPrice Money     `json:"avgEntryPrice"`
	// CostBasis is reconciled to AvgEntryPrice*OpenQuantity after every
	// update rather than tracked independently, so it cannot drift.
	CostBasis    Money    `json:"costBasis"`
	RealizedPnL  Money    `json:"realizedPnL"`
	ExecutionIDs []string `json:"executionIds"`
}

// Open reports whether the position still has exposure. Status is derived
// from open quantity, never tracked as separate state.
func (p Position) Open() bool { return p.OpenQuantity.IsPositive() }

// ClosedTrade is the portion of a position's exposure matched against an
// offsetting execution, with its realized P&L.
type ClosedTrade struct {
	ExecutionID string   `json:"executionId"`
	Key         string   `json:"key"`
	Symbol      string   `json:"symbol"`
	Quantity    Quantity `json:"quantity"`
	// UnmatchedQuantity is the part of the closing execution that exceeded
	// the open quantity. It was clamped, not matched: the engine never flips
	// an over-close into an opposite position, and never drops it silently.
	UnmatchedQuantity Quantity  `json:"unmatchedQuantity"`
	EntryPrice        Money     `json:"entryPrice"`
	ExitPrice         Money     `json:"exitPrice"`
	PnL               Money     `json:"pnl"`
	ClosedAt          time.Time `json:"closedAt"`
}

// SkippedExecution reports an execution rejected during validation.
type SkippedExecution struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// OverClose reports the clamped portion of a closing execution that exceeded
// the open quantity of its key.
type OverClose struct {
	ExecutionID string   `json:"executionId"`
	Key         string   `json:"key"`
	Quantity    Quantity `json:"quantity"`
}

// Replay is the result of aggregating one execution set. It is derived
// entirely from the input: running the same set twice yields identical
// output, and no state survives between runs.
type Replay struct {
	Positions    []Position         `json:"positions"`
	ClosedTrades []ClosedTrade      `json:"closedTrades"`
	Skipped      []SkippedExecution `json:"skipped,omitempty"`
	OverClosed   []OverClose        `json:"overClosed,omitempty"`
}

type keyedExecution struct {
	Execution
	inst Instrument
}

type keyResult struct {
	position Position
	trades   []ClosedTrade
}

// Aggregate replays a set of executions into open positions and closed
// round-trip trades.
//
// Executions are stable-sorted by timestamp, grouped by instrument key, and
// each key is reduced independently in chronological order. Keys are
// independent, so they fan out across goroutines and fan in to a merged
// result ordered by key (positions) and by closing time (trades).
func Aggregate(execs []Execution, opts Options) (*Replay, error) {
	replay := &Replay{}

	valid := make([]keyedExecution, 0, len(execs))
	for _, e := range execs {
		if err := e.Validate(); err != nil {
			if opts.OnError == AbortOnInvalid {
				return nil, err
			}
			verr := err.(*ValidationError)
			replay.Skipped = append(replay.Skipped, SkippedExecution{ID: verr.ID, Reason: verr.Reason})
			continue
		}
		inst, err := ResolveInstrument(e)
		if err != nil {
			// Validate resolves the instrument too, so this cannot fail here.
			return nil, err
		}
		valid = append(valid, keyedExecution{Execution: e, inst: inst})
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Time.Before(valid[j].Time)
	})

	groups := make(map[string][]keyedExecution)
	keys := make([]string, 0)
	for _, e := range valid {
		k := e.inst.Key()
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], e)
	}
	sort.Strings(keys)

	results := make([]keyResult, len(keys))
	var wg sync.WaitGroup
	for i, k := range keys {
		wg.Add(1)
		go func(i int, group []keyedExecution) {
			defer wg.Done()
			results[i] = aggregateKey(group)
		}(i, groups[k])
	}
	wg.Wait()

	for _, r := range results {
		replay.Positions = append(replay.Positions, r.position)
		replay.ClosedTrades = append(replay.ClosedTrades, r.trades...)
	}
	// Per-key trade lists are chronological; a stable sort across keys gives
	// one global chronological order with deterministic ties.
	sort.SliceStable(replay.ClosedTrades, func(i, j int) bool {
		return replay.ClosedTrades[i].ClosedAt.Before(replay.ClosedTrades[j].ClosedAt)
	})
	for _, t := range replay.ClosedTrades {
		if t.UnmatchedQuantity.IsPositive() {
			replay.OverClosed = append(replay.OverClosed, OverClose{
				ExecutionID: t.ExecutionID,
				Key:         t.Key,
				Quantity:    t.UnmatchedQuantity,
			})
		}
	}
	return replay, nil
}

// aggregateKey reduces the chronological executions of a single instrument
// key into a final position and its closed trades.
func aggregateKey(group []keyedExecution) keyResult {
	inst := group[0].inst
	pos := Position{
		Key:    inst.Key(),
		Symbol: inst.Symbol(),
		Asset:  assetOf(inst),
	}

	var trades []ClosedTrade
	for _, e := range group {
		pos.ExecutionIDs = append(pos.ExecutionIDs, e.ID)

		opens := pos.Direction == Flat ||
			(pos.Direction == Long && e.Side == Buy) ||
			(pos.Direction == Short && e.Side == Sell)

		if opens {
			if pos.Direction == Flat {
				if e.Side == Buy {
					pos.Direction = Long
				} else {
					pos.Direction = Short
				}
			}
			// Weighted-average cost: all open quantity shares one blended
			// entry price. Opening fees are not folded into cost basis; fees
			// are settled once, at close time.
			newCost := pos.CostBasis.Add(e.Price.Mul(e.Quantity))
			newQty := pos.OpenQuantity.Add(e.Quantity)
			if newQty.IsZero() {
				pos.AvgEntryPrice = M(0, e.Price.Currency())
			} else {
				pos.AvgEntryPrice = newCost.Div(newQty)
			}
			pos.CostBasis = newCost
			pos.OpenQuantity = newQty
			continue
		}

		// Reducing exposure: match at most the open quantity.
		closedQty := e.Quantity.Min(pos.OpenQuantity)
		excess := e.Quantity.Sub(closedQty)

		pnl := RealizedPnL(e.inst, pos.Direction, pos.AvgEntryPrice, e.Price, closedQty, e.Fees)
		pos.RealizedPnL = pos.RealizedPnL.Add(pnl)
		pos.OpenQuantity = pos.OpenQuantity.Sub(closedQty)

		trades = append(trades, ClosedTrade{
			ExecutionID:       e.ID,
			Key:               pos.Key,
			Symbol:            pos.Symbol,
			Quantity:          closedQty,
			UnmatchedQuantity: excess,
			EntryPrice:        pos.AvgEntryPrice,
			ExitPrice:         e.Price,
			PnL:               pnl,
			ClosedAt:          e.Time,
		})

		if pos.OpenQuantity.IsZero() {
			// Flat again: reset the blended entry price rather than carrying
			// it forward into the next round trip.
			pos.Direction = Flat
			pos.AvgEntryPrice = M(0, e.Price.Currency())
			pos.CostBasis = M(0, e.Price.Currency())
		} else {
			pos.CostBasis = pos.AvgEntryPrice.Mul(pos.OpenQuantity)
		}
	}
	return keyResult{position: pos, trades: trades}
}

func assetOf(inst Instrument) AssetType {
	switch inst.(type) {
	case Equity:
		return AssetEquity
	case Option:
		return AssetOption
	case Future:
		return AssetFuture
	case Crypto:
		return AssetCrypto
	default:
		panic("unhandled instrument variant")
	}
}
