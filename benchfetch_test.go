package tradecore

import (
	"encoding/json"
	"testing"

	"github.com/riskr/tradecore/date"
)

func parseBenchmarkJSON(t *testing.T, body string) (*BenchmarkSeries, error) {
	t.Helper()
	var jobj any
	if err := json.Unmarshal([]byte(body), &jobj); err != nil {
		t.Fatalf("invalid test body: %v", err)
	}
	return parseBenchmark("SPY", jobj)
}

func TestParseBenchmark(t *testing.T) {
	body := `[
		{"date": "2025-03-03", "close": 500.0, "adjusted_close": 498.5},
		{"date": "2025-03-04", "close": 505.0, "adjusted_close": 503.2}
	]`
	series, err := parseBenchmarkJSON(t, body)
	if err != nil {
		t.Fatal(err)
	}
	if series.Len() != 2 {
		t.Fatalf("Len = %d want 2", series.Len())
	}
	// The adjusted series wins over the raw close.
	if got, ok := series.closes.Get(date.New(2025, 3, 3)); !ok || got != 498.5 {
		t.Errorf("close on 2025-03-03 = %v, %v want 498.5", got, ok)
	}
}

func TestParseBenchmarkCloseFallback(t *testing.T) {
	body := `[
		{"date": "2025-03-03", "close": 500.0},
		{"date": "2025-03-04", "close": 505.0}
	]`
	series, err := parseBenchmarkJSON(t, body)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := series.closes.Get(date.New(2025, 3, 4)); !ok || got != 505.0 {
		t.Errorf("close on 2025-03-04 = %v, %v want 505", got, ok)
	}
}

func TestParseBenchmarkBadShapes(t *testing.T) {
	bodies := map[string]string{
		"no closes":     `[{"date": "2025-03-03"}]`,
		"date not text": `[{"date": 20250303, "close": 500.0}]`,
		"bad date":      `[{"date": "03/03/2025", "close": 500.0}]`,
		"close is text": `[{"date": "2025-03-03", "close": "500"}]`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			if _, err := parseBenchmarkJSON(t, body); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestFetchBenchmarkRequiresKey(t *testing.T) {
	r := date.NewRange(date.New(2025, 3, 1), date.New(2025, 3, 31))
	if _, err := FetchBenchmark("", "SPY", r); err == nil {
		t.Error("expected an error without an API key")
	}
}
