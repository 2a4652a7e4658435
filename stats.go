package tradecore

import (
	"sort"

	"github.com/riskr/tradecore/date"
)

// Stats is the reduction of a set of closed trades into headline trading
// statistics. All fields are defined on an empty input: every ratio whose
// denominator would be zero is reported as zero, never NaN.
type Stats struct {
	TotalTrades   int `json:"totalTrades"`
	WinningTrades int `json:"winningTrades"`
	LosingTrades  int `json:"losingTrades"`
	// WinRate is a ratio in [0,1].
	WinRate     float64 `json:"winRate"`
	AvgWin      Money   `json:"avgWin"`
	AvgLoss     Money   `json:"avgLoss"` // absolute value
	GrossProfit Money   `json:"grossProfit"`
	GrossLoss   Money   `json:"grossLoss"` // absolute value
	// ProfitFactor is gross profit over gross loss, 0 when there are no losses.
	ProfitFactor float64 `json:"profitFactor"`
	// Expectancy is the average P&L a trade is expected to contribute:
	// avgWin*winRate - avgLoss*(1-winRate).
	Expectancy Money `json:"expectancy"`
	BestTrade  Money `json:"bestTrade"`
	WorstTrade Money `json:"worstTrade"`
	TotalPnL   Money `json:"totalPnL"`

	BySymbol []GroupStats `json:"bySymbol"`
	ByMonth  []GroupStats `json:"byMonth"`
	ByDay    []GroupStats `json:"byDay"`
}

// GroupStats aggregates the closed trades sharing one grouping key: a
// symbol, a calendar month ("2006-01") or a calendar day ("2006-01-02").
type GroupStats struct {
	Key     string  `json:"key"`
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	PnL     Money   `json:"pnl"`
	WinRate float64 `json:"winRate"`
}

// Summarize reduces closed trades into Stats. It never fails: an empty input
// yields the zero-valued statistics.
func Summarize(trades []ClosedTrade) *Stats {
	s := &Stats{
		TotalTrades: len(trades),
		BySymbol:    []GroupStats{},
		ByMonth:     []GroupStats{},
		ByDay:       []GroupStats{},
	}
	if len(trades) == 0 {
		return s
	}

	best, worst := trades[0].PnL, trades[0].PnL
	for _, t := range trades {
		s.TotalPnL = s.TotalPnL.Add(t.PnL)
		switch {
		case t.PnL.IsPositive():
			s.WinningTrades++
			s.GrossProfit = s.GrossProfit.Add(t.PnL)
		case t.PnL.IsNegative():
			s.LosingTrades++
			s.GrossLoss = s.GrossLoss.Add(t.PnL.Abs())
		}
		if t.PnL.GreaterThan(best) {
			best = t.PnL
		}
		if t.PnL.LessThan(worst) {
			worst = t.PnL
		}
	}
	s.BestTrade, s.WorstTrade = best, worst

	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
	if s.WinningTrades > 0 {
		s.AvgWin = s.GrossProfit.Div(Q(s.WinningTrades))
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = s.GrossLoss.Div(Q(s.LosingTrades))
	}
	if !s.GrossLoss.IsZero() {
		s.ProfitFactor = s.GrossProfit.InexactFloat64() / s.GrossLoss.InexactFloat64()
	}
	s.Expectancy = s.AvgWin.Mul(Q(s.WinRate)).Sub(s.AvgLoss.Mul(Q(1 - s.WinRate)))

	s.BySymbol = groupBy(trades, func(t ClosedTrade) string { return t.Symbol })
	s.ByMonth = groupBy(trades, func(t ClosedTrade) string { return date.FromTime(t.ClosedAt).MonthKey() })
	s.ByDay = groupBy(trades, func(t ClosedTrade) string { return date.FromTime(t.ClosedAt).String() })
	return s
}

// groupBy is a mapping reduction over closed trades. Keys are unique and the
// groups are emitted in ascending key order.
func groupBy(trades []ClosedTrade, keyOf func(ClosedTrade) string) []GroupStats {
	groups := make(map[string]*GroupStats)
	for _, t := range trades {
		k := keyOf(t)
		g, ok := groups[k]
		if !ok {
			g = &GroupStats{Key: k}
			groups[k] = g
		}
		g.Trades++
		if t.PnL.IsPositive() {
			g.Wins++
		}
		g.PnL = g.PnL.Add(t.PnL)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]GroupStats, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		g.WinRate = float64(g.Wins) / float64(g.Trades)
		out = append(out, *g)
	}
	return out
}
