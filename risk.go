package tradecore

import (
	"math"

	"github.com/riskr/tradecore/date"
)

// tiny is the epsilon guarding every statistical denominator: anything
// smaller is treated as zero and the metric reported as 0 instead of
// propagating Inf or NaN.
const tiny = 1e-10

// tradingDaysPerYear is the annualization factor for daily metrics.
const tradingDaysPerYear = 252

// MinBenchmarkDays is the smallest date intersection for which benchmark
// relative metrics are considered computable.
const MinBenchmarkDays = 15

// BenchmarkSeries is an ordered series of daily closing prices for a
// benchmark ticker. It is external input: the engine reads it and never
// mutates it. Missing days are tolerated by date intersection, not
// interpolation.
type BenchmarkSeries struct {
	Ticker string
	closes date.History
}

// NewBenchmarkSeries returns an empty series for a ticker.
func NewBenchmarkSeries(ticker string) *BenchmarkSeries {
	return &BenchmarkSeries{Ticker: ticker}
}

// Append records the closing price for a day. The latest value for a day wins.
func (b *BenchmarkSeries) Append(on date.Date, close float64) *BenchmarkSeries {
	b.closes.Append(on, close)
	return b
}

// Len returns the number of recorded days.
func (b *BenchmarkSeries) Len() int { return b.closes.Len() }

// EquityPoint is one day of the cumulative equity curve.
type EquityPoint struct {
	Date   date.Date `json:"date"`
	Equity Money     `json:"equity"`
}

// RiskSnapshot is the time-series risk and performance profile of a set of
// closed trades. Ratios are dimensionless float64 values; the equity curve
// itself stays exact.
type RiskSnapshot struct {
	Range          date.Range    `json:"range"`
	InitialCapital Money         `json:"initialCapital"`
	FinalEquity    Money         `json:"finalEquity"`
	Equity         []EquityPoint `json:"equity"`
	// MaxDrawdown is the deepest peak-to-trough decline, expressed as a
	// non-positive ratio (equity/peak - 1).
	MaxDrawdown float64 `json:"maxDrawdown"`
	// UlcerIndex is the root mean square of drawdown depth, penalizing both
	// magnitude and duration of drawdowns.
	UlcerIndex float64 `json:"ulcerIndex"`
	CAGR       float64 `json:"cagr"`
	MAR        float64 `json:"mar"`
	Sharpe     float64 `json:"sharpe"`
	// Observations is the number of daily equity observations backing the
	// annualized metrics.
	Observations int `json:"observations"`

	// Benchmark holds the benchmark-relative metrics, nil when no benchmark
	// series was supplied.
	Benchmark *BenchmarkComparison `json:"benchmark,omitempty"`
}

// BenchmarkComparison relates portfolio daily returns to a benchmark's over
// the date intersection of the two series.
type BenchmarkComparison struct {
	Ticker     string `json:"ticker"`
	SampleSize int    `json:"sampleSize"`
	// Insufficient is true when fewer than 15 days overlap; all metrics are
	// then reported as zero. It is a structured soft result, not an error,
	// so a dashboard can render a friendly message.
	Insufficient     bool    `json:"insufficient"`
	Beta             float64 `json:"beta"`
	AlphaDaily       float64 `json:"alphaDaily"`
	AlphaAnnual      float64 `json:"alphaAnnual"`
	TrackingError    float64 `json:"trackingError"`
	InformationRatio float64 `json:"informationRatio"`
	UpCapture        float64 `json:"upCapture"`
	DownCapture      float64 `json:"downCapture"`
}

// Analyze builds the cumulative equity curve from closed trades and reduces
// it into drawdown, ulcer index, CAGR, MAR and Sharpe; when a benchmark is
// supplied it adds alpha, beta, information ratio and capture ratios over the
// date intersection. An empty trade set yields a defined zero-valued
// snapshot.
func Analyze(trades []ClosedTrade, benchmark *BenchmarkSeries, initialCapital Money) *RiskSnapshot {
	snap := &RiskSnapshot{
		InitialCapital: initialCapital,
		FinalEquity:    initialCapital,
		Equity:         []EquityPoint{},
	}

	// 1. Bucket each trade's pnl into its closing day.
	daily := make(map[date.Date]Money)
	var first, last date.Date
	for _, t := range trades {
		day := date.FromTime(t.ClosedAt)
		daily[day] = daily[day].Add(t.PnL)
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if last.IsZero() || day.After(last) {
			last = day
		}
	}

	// 2. Cumulative equity over every calendar day in range; days with no
	// activity carry equity forward flat, so the series has no gaps.
	if len(daily) > 0 {
		snap.Range = date.NewRange(first, last)
		equity := initialCapital
		for d := range snap.Range.Days() {
			if pnl, ok := daily[d]; ok {
				equity = equity.Add(pnl)
			}
			snap.Equity = append(snap.Equity, EquityPoint{Date: d, Equity: equity})
		}
		snap.FinalEquity = equity
	}
	snap.Observations = len(snap.Equity)

	series := make([]float64, len(snap.Equity))
	for i, p := range snap.Equity {
		series[i] = p.Equity.InexactFloat64()
	}

	// 3. Drawdown and ulcer index against the running peak.
	snap.MaxDrawdown, snap.UlcerIndex = drawdownProfile(series)

	// 4-5. CAGR and MAR.
	if n := len(series); n > 1 && series[0] > tiny {
		snap.CAGR = math.Pow(series[n-1]/series[0], tradingDaysPerYear/float64(n)) - 1
	}
	if dd := math.Abs(snap.MaxDrawdown); dd > tiny {
		snap.MAR = snap.CAGR / dd
	}

	returns := dailyReturns(series)
	if sd := stdev(returns); sd > tiny {
		snap.Sharpe = mean(returns) / sd * math.Sqrt(tradingDaysPerYear)
	}

	// 6-7. Benchmark-relative metrics on the date intersection.
	if benchmark != nil {
		snap.Benchmark = compare(snap.Equity, benchmark)
	}
	return snap
}

// drawdownProfile returns the deepest drawdown (a non-positive ratio) and the
// ulcer index of an equity series.
func drawdownProfile(series []float64) (maxDrawdown, ulcer float64) {
	if len(series) == 0 {
		return 0, 0
	}
	peak := series[0]
	var sumSq float64
	for _, v := range series {
		if v > peak {
			peak = v
		}
		var dd float64
		if peak > tiny {
			dd = v/peak - 1
		}
		if dd < maxDrawdown {
			maxDrawdown = dd
		}
		sumSq += math.Min(0, dd) * math.Min(0, dd)
	}
	return maxDrawdown, math.Sqrt(sumSq / float64(len(series)))
}

// compare computes the benchmark-relative metrics over the date intersection
// of the equity curve and the benchmark close series.
func compare(equity []EquityPoint, benchmark *BenchmarkSeries) *BenchmarkComparison {
	cmp := &BenchmarkComparison{Ticker: benchmark.Ticker}

	var portfolio date.History
	for _, p := range equity {
		portfolio.Append(p.Date, p.Equity.InexactFloat64())
	}
	days := date.Intersect(&portfolio, &benchmark.closes)
	cmp.SampleSize = len(days)
	if len(days) < MinBenchmarkDays {
		cmp.Insufficient = true
		return cmp
	}

	// Daily returns from consecutive points of the aligned series.
	P := make([]float64, 0, len(days)-1)
	B := make([]float64, 0, len(days)-1)
	lastP, _ := portfolio.Get(days[0])
	lastB, _ := benchmark.closes.Get(days[0])
	for _, d := range days[1:] {
		thisP, _ := portfolio.Get(d)
		thisB, _ := benchmark.closes.Get(d)
		P = append(P, ratio(thisP-lastP, lastP))
		B = append(B, ratio(thisB-lastB, lastB))
		lastP, lastB = thisP, thisB
	}

	meanP, meanB := mean(P), mean(B)
	varB := stdev(B) * stdev(B)
	if varB > tiny {
		cmp.Beta = covariance(P, B) / varB
	}
	cmp.AlphaDaily = meanP - cmp.Beta*meanB
	cmp.AlphaAnnual = cmp.AlphaDaily * tradingDaysPerYear

	excess := make([]float64, len(P))
	for i := range P {
		excess[i] = P[i] - B[i]
	}
	cmp.TrackingError = stdev(excess)
	if cmp.TrackingError > tiny {
		cmp.InformationRatio = mean(excess) / cmp.TrackingError * math.Sqrt(tradingDaysPerYear)
	}

	var upP, upB, downP, downB []float64
	for i := range B {
		if B[i] > 0 {
			upP, upB = append(upP, P[i]), append(upB, B[i])
		} else if B[i] < 0 {
			downP, downB = append(downP, P[i]), append(downB, B[i])
		}
	}
	cmp.UpCapture = ratio(mean(upP), mean(upB))
	cmp.DownCapture = ratio(mean(downP), math.Abs(mean(downB)))
	return cmp
}

// ratio divides with the epsilon guard: a near-zero denominator yields 0.
func ratio(num, den float64) float64 {
	if math.Abs(den) < tiny {
		return 0
	}
	return num / den
}

func dailyReturns(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		out = append(out, ratio(series[i]-series[i-1], series[i-1]))
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	avg := mean(xs)
	var sum float64
	for _, x := range xs {
		sum += (x - avg) * (x - avg)
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func covariance(xs, ys []float64) float64 {
	if len(xs) == 0 || len(xs) != len(ys) {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	var sum float64
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(len(xs))
}
