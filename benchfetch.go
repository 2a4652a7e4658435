package tradecore

import (
	"fmt"
	"net/url"

	"github.com/PaesslerAG/jsonpath"
	"github.com/riskr/tradecore/date"
)

// This file fetches benchmark daily closes from EODHD.com. The engine never
// calls it: Analyze only takes an already built BenchmarkSeries, and callers
// that want a live benchmark use this adapter at the boundary.

// FetchBenchmark downloads the daily close series for a ticker over a date
// range. Responses are cached on disk for the day, so repeated analytics runs
// hit the provider once. Days missing from the provider are simply absent
// from the series; Analyze tolerates them by date intersection.
func FetchBenchmark(apiKey, ticker string, r date.Range) (*BenchmarkSeries, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("benchmark provider: missing API key")
	}
	addr := fmt.Sprintf("https://eodhd.com/api/eod/%s?from=%s&to=%s&period=d&fmt=json&api_token=%s",
		url.PathEscape(ticker), r.From, r.To, url.QueryEscape(apiKey))

	var jobj any
	if err := jwget(daily(), addr, &jobj); err != nil {
		return nil, fmt.Errorf("error fetching benchmark %q: %w", ticker, err)
	}
	return parseBenchmark(ticker, jobj)
}

// parseBenchmark extracts (date, close) pairs from the provider's JSON, an
// array of objects holding at least "date" and "adjusted_close" (falling
// back to "close" when there is no adjusted series).
func parseBenchmark(ticker string, jobj any) (*BenchmarkSeries, error) {
	dates, err := jsonpath.Get("$[:].date", jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing benchmark %q dates: %w", ticker, err)
	}
	closes, err := jsonpath.Get("$[:].adjusted_close", jobj)
	if err != nil {
		closes, err = jsonpath.Get("$[:].close", jobj)
		if err != nil {
			return nil, fmt.Errorf("error parsing benchmark %q closes: %w", ticker, err)
		}
	}

	jdates, ok1 := dates.([]any)
	jcloses, ok2 := closes.([]any)
	if !ok1 || !ok2 || len(jdates) != len(jcloses) {
		return nil, fmt.Errorf("benchmark %q: unexpected response shape", ticker)
	}

	series := NewBenchmarkSeries(ticker)
	for i := range jdates {
		day, ok := jdates[i].(string)
		if !ok {
			return nil, fmt.Errorf("benchmark %q: date %v is not a string", ticker, jdates[i])
		}
		on, err := date.Parse(day)
		if err != nil {
			return nil, fmt.Errorf("benchmark %q: %w", ticker, err)
		}
		close, ok := jcloses[i].(float64)
		if !ok {
			return nil, fmt.Errorf("benchmark %q: close %v on %s is not a number", ticker, jcloses[i], day)
		}
		series.Append(on, close)
	}
	return series, nil
}
