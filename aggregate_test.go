package tradecore

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/riskr/tradecore/date"
)

// equityExec builds an equity execution on a fixed March 2025 afternoon, one
// day apart per seq so ordering is unambiguous.
func equityExec(id, symbol string, side Side, qty, price, fees float64, seq int) Execution {
	return Execution{
		ID:       id,
		Symbol:   symbol,
		Asset:    AssetEquity,
		Side:     side,
		Quantity: Q(qty),
		Price:    USD(price),
		Fees:     USD(fees),
		Time:     time.Date(2025, 3, 3+seq, 15, 30, 0, 0, time.UTC),
	}
}

func mustAggregate(t *testing.T, execs []Execution) *Replay {
	t.Helper()
	replay, err := Aggregate(execs, Options{OnError: AbortOnInvalid})
	if err != nil {
		t.Fatalf("Aggregate() returned unexpected error: %v", err)
	}
	return replay
}

func TestSimpleEquityRoundTrip(t *testing.T) {
	replay := mustAggregate(t, []Execution{
		equityExec("e1", "AAPL", Buy, 100, 150, 1, 0),
		equityExec("e2", "AAPL", Sell, 100, 160, 1, 1),
	})

	if len(replay.ClosedTrades) != 1 {
		t.Fatalf("got %d closed trades, want 1", len(replay.ClosedTrades))
	}
	trade := replay.ClosedTrades[0]
	// (160-150)*100 - 1 = 999: the entry fee is not double-subtracted.
	if want := USD(999); !trade.PnL.Equal(want) {
		t.Errorf("PnL = %s want %s", trade.PnL, want)
	}

	if len(replay.Positions) != 1 {
		t.Fatalf("got %d positions, want 1", len(replay.Positions))
	}
	pos := replay.Positions[0]
	if !pos.OpenQuantity.IsZero() {
		t.Errorf("OpenQuantity = %s want 0", pos.OpenQuantity)
	}
	if pos.Open() {
		t.Error("round-tripped position reports Open()")
	}
	if !pos.AvgEntryPrice.IsZero() {
		t.Errorf("flat position kept AvgEntryPrice = %s, want reset to 0", pos.AvgEntryPrice)
	}
	if !pos.RealizedPnL.Equal(USD(999)) {
		t.Errorf("RealizedPnL = %s want %s", pos.RealizedPnL, USD(999))
	}
}

func TestOptionContractMultiplier(t *testing.T) {
	open := Execution{
		ID: "o1", Symbol: "AAPL", Underlying: "AAPL", Asset: AssetOption,
		Side: Buy, Quantity: Q(1), Price: USD(5), Fees: USD(0),
		OptionType: Call, Strike: Q(180).value, Expiry: date.New(2025, 6, 20),
		Time: time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC),
	}
	close := open
	close.ID, close.Side, close.Price, close.Fees = "o2", Sell, USD(8), USD(2)
	close.Time = close.Time.Add(48 * time.Hour)

	replay := mustAggregate(t, []Execution{open, close})
	if len(replay.ClosedTrades) != 1 {
		t.Fatalf("got %d closed trades, want 1", len(replay.ClosedTrades))
	}
	// (8-5)*1*100 - 2 = 298
	if want := USD(298); !replay.ClosedTrades[0].PnL.Equal(want) {
		t.Errorf("PnL = %s want %s", replay.ClosedTrades[0].PnL, want)
	}
}

func TestFuturesPointValuePnL(t *testing.T) {
	open := Execution{
		ID: "f1", Symbol: "ES", Asset: AssetFuture, Side: Buy,
		Quantity: Q(1), Price: USD(5000), Fees: USD(0),
		Time: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
	}
	close := open
	close.ID, close.Side, close.Price, close.Fees = "f2", Sell, USD(4950), USD(4)
	close.Time = close.Time.Add(time.Hour)

	replay := mustAggregate(t, []Execution{open, close})
	// A losing long: (4950-5000)*1*50 - 4 = -2504
	if want := USD(-2504); !replay.ClosedTrades[0].PnL.Equal(want) {
		t.Errorf("PnL = %s want %s", replay.ClosedTrades[0].PnL, want)
	}
}

func TestPartialCloseKeepsAverageCost(t *testing.T) {
	replay := mustAggregate(t, []Execution{
		equityExec("p1", "TSLA", Buy, 100, 10, 0, 0),
		equityExec("p2", "TSLA", Buy, 100, 20, 0, 1),
		equityExec("p3", "TSLA", Sell, 150, 18, 0, 2),
	})

	// avgEntry = (100*10 + 100*20)/200 = 15; pnl = (18-15)*150 = 450
	trade := replay.ClosedTrades[0]
	if want := USD(450); !trade.PnL.Equal(want) {
		t.Errorf("PnL = %s want %s", trade.PnL, want)
	}
	if want := USD(15); !trade.EntryPrice.Equal(want) {
		t.Errorf("EntryPrice = %s want %s", trade.EntryPrice, want)
	}

	pos := replay.Positions[0]
	if want := Q(50); !pos.OpenQuantity.Equal(want) {
		t.Errorf("OpenQuantity = %s want %s", pos.OpenQuantity, want)
	}
	if want := USD(15); !pos.AvgEntryPrice.Equal(want) {
		t.Errorf("AvgEntryPrice = %s want %s, a partial close must not move it", pos.AvgEntryPrice, want)
	}
	// Cost basis is reconciled, not tracked: avg * open = 15 * 50.
	if want := USD(750); !pos.CostBasis.Equal(want) {
		t.Errorf("CostBasis = %s want %s", pos.CostBasis, want)
	}
}

func TestOverCloseIsClampedNotFlipped(t *testing.T) {
	replay := mustAggregate(t, []Execution{
		equityExec("c1", "NVDA", Buy, 50, 100, 0, 0),
		equityExec("c2", "NVDA", Sell, 80, 110, 0, 1),
	})

	trade := replay.ClosedTrades[0]
	if want := Q(50); !trade.Quantity.Equal(want) {
		t.Errorf("matched quantity = %s want %s", trade.Quantity, want)
	}
	if want := Q(30); !trade.UnmatchedQuantity.Equal(want) {
		t.Errorf("UnmatchedQuantity = %s want %s, the excess must be reported", trade.UnmatchedQuantity, want)
	}
	if want := USD(500); !trade.PnL.Equal(want) {
		t.Errorf("PnL = %s want %s, only the open quantity is priced", trade.PnL, want)
	}

	pos := replay.Positions[0]
	if !pos.OpenQuantity.IsZero() {
		t.Errorf("OpenQuantity = %s want 0", pos.OpenQuantity)
	}
	if pos.Direction != Flat {
		t.Errorf("Direction = %s, an over-close must not open an opposite position", pos.Direction)
	}

	if len(replay.OverClosed) != 1 {
		t.Fatalf("got %d over-close reports, want 1", len(replay.OverClosed))
	}
	oc := replay.OverClosed[0]
	if oc.ExecutionID != "c2" || oc.Key != "NVDA" || !oc.Quantity.Equal(Q(30)) {
		t.Errorf("over-close report = %+v", oc)
	}
}

func TestShortRoundTrip(t *testing.T) {
	replay := mustAggregate(t, []Execution{
		equityExec("s1", "AMD", Sell, 100, 50, 0, 0),
		equityExec("s2", "AMD", Buy, 100, 45, 1, 1),
	})

	// Short entry is the sell price: (50-45)*100 - 1 = 499.
	if want := USD(499); !replay.ClosedTrades[0].PnL.Equal(want) {
		t.Errorf("PnL = %s want %s", replay.ClosedTrades[0].PnL, want)
	}
	if pos := replay.Positions[0]; pos.Direction != Flat || !pos.OpenQuantity.IsZero() {
		t.Errorf("position after short round trip: direction=%s open=%s", pos.Direction, pos.OpenQuantity)
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	// Two executions share a timestamp; stable sorting must keep input order,
	// so two runs yield identical output.
	execs := []Execution{
		equityExec("d1", "AAPL", Buy, 10, 100, 0, 0),
		equityExec("d2", "MSFT", Buy, 10, 200, 0, 0),
		equityExec("d3", "AAPL", Sell, 10, 105, 0, 1),
		equityExec("d4", "MSFT", Sell, 10, 195, 0, 1),
	}
	a := mustAggregate(t, execs)
	b := mustAggregate(t, execs)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("two replays of the same execution set differ:\n%+v\n%+v", a, b)
	}
}

func TestConservation(t *testing.T) {
	// A fully round-tripped position: the sum of its closed-trade pnl equals
	// the realized pnl recorded on the final position state.
	replay := mustAggregate(t, []Execution{
		equityExec("r1", "SPY", Buy, 100, 400, 1, 0),
		equityExec("r2", "SPY", Sell, 40, 410, 1, 1),
		equityExec("r3", "SPY", Buy, 20, 405, 1, 2),
		equityExec("r4", "SPY", Sell, 80, 395, 1, 3),
	})

	var sum Money
	for _, trade := range replay.ClosedTrades {
		sum = sum.Add(trade.PnL)
	}
	pos := replay.Positions[0]
	if !pos.OpenQuantity.IsZero() {
		t.Fatalf("expected a flat position, got open quantity %s", pos.OpenQuantity)
	}
	if !sum.Equal(pos.RealizedPnL) {
		t.Errorf("sum of closed trade pnl %s != position realized pnl %s", sum, pos.RealizedPnL)
	}
}

func TestOpenQuantityNeverNegative(t *testing.T) {
	// Repeated over-closing must never drive open quantity below zero.
	execs := []Execution{
		equityExec("n1", "GME", Buy, 10, 20, 0, 0),
		equityExec("n2", "GME", Sell, 25, 22, 0, 1),
		equityExec("n3", "GME", Buy, 5, 21, 0, 2),
		equityExec("n4", "GME", Sell, 100, 23, 0, 3),
	}
	replay := mustAggregate(t, execs)
	for _, pos := range replay.Positions {
		if pos.OpenQuantity.IsNegative() {
			t.Errorf("position %s has negative open quantity %s", pos.Key, pos.OpenQuantity)
		}
	}
	for _, trade := range replay.ClosedTrades {
		if trade.Quantity.IsNegative() || trade.Quantity.IsZero() {
			t.Errorf("closed trade %s has non-positive matched quantity %s", trade.ExecutionID, trade.Quantity)
		}
	}
}

func TestValidationPolicies(t *testing.T) {
	bad := equityExec("bad", "AAPL", Buy, 0, 100, 0, 0) // zero quantity
	good := []Execution{
		equityExec("g1", "AAPL", Buy, 10, 100, 0, 1),
		equityExec("g2", "AAPL", Sell, 10, 110, 0, 2),
	}

	t.Run("skip invalid", func(t *testing.T) {
		replay, err := Aggregate(append([]Execution{bad}, good...), Options{OnError: SkipInvalid})
		if err != nil {
			t.Fatalf("Aggregate() with SkipInvalid returned error: %v", err)
		}
		if len(replay.Skipped) != 1 || replay.Skipped[0].ID != "bad" {
			t.Fatalf("Skipped = %+v want the single offending execution", replay.Skipped)
		}
		if replay.Skipped[0].Reason == "" {
			t.Error("skipped execution carries no reason")
		}
		if len(replay.ClosedTrades) != 1 {
			t.Errorf("valid executions were not aggregated: %d closed trades", len(replay.ClosedTrades))
		}
	})

	t.Run("abort on invalid", func(t *testing.T) {
		_, err := Aggregate(append([]Execution{bad}, good...), Options{OnError: AbortOnInvalid})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Aggregate() error = %v, want a *ValidationError", err)
		}
		if verr.ID != "bad" {
			t.Errorf("ValidationError.ID = %q want %q", verr.ID, "bad")
		}
	})
}

func TestMultipleKeysAreIndependent(t *testing.T) {
	var execs []Execution
	for i, symbol := range []string{"AAPL", "MSFT", "NVDA", "TSLA"} {
		execs = append(execs,
			equityExec(fmt.Sprintf("%s-open", symbol), symbol, Buy, 10, float64(100+i), 0, 0),
			equityExec(fmt.Sprintf("%s-close", symbol), symbol, Sell, 10, float64(105+i), 0, 1),
		)
	}
	replay := mustAggregate(t, execs)

	if len(replay.Positions) != 4 {
		t.Fatalf("got %d positions want 4", len(replay.Positions))
	}
	// Positions come back ordered by key.
	for i := 1; i < len(replay.Positions); i++ {
		if replay.Positions[i-1].Key >= replay.Positions[i].Key {
			t.Errorf("positions not ordered by key: %q before %q", replay.Positions[i-1].Key, replay.Positions[i].Key)
		}
	}
	for _, pos := range replay.Positions {
		if want := USD(50); !pos.RealizedPnL.Equal(want) {
			t.Errorf("position %s realized %s want %s", pos.Key, pos.RealizedPnL, want)
		}
	}
}

func TestOutOfOrderInputIsSorted(t *testing.T) {
	// The closing execution arrives first in the slice but later in time.
	replay := mustAggregate(t, []Execution{
		equityExec("x2", "AAPL", Sell, 10, 110, 0, 1),
		equityExec("x1", "AAPL", Buy, 10, 100, 0, 0),
	})
	if len(replay.ClosedTrades) != 1 {
		t.Fatalf("got %d closed trades want 1", len(replay.ClosedTrades))
	}
	if want := USD(100); !replay.ClosedTrades[0].PnL.Equal(want) {
		t.Errorf("PnL = %s want %s", replay.ClosedTrades[0].PnL, want)
	}
}
