package renderer

import (
	"fmt"
	"strings"

	"github.com/riskr/tradecore"
)

// RiskMarkdown renders the time-series risk snapshot as a markdown report.
func RiskMarkdown(snap *tradecore.RiskSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Risk Report from %s to %s\n\n", snap.Range.From, snap.Range.To)
	fmt.Fprintf(&b, "Equity: %s on %s starting capital (%d observations)\n\n",
		snap.FinalEquity, snap.InitialCapital, snap.Observations)

	fmt.Fprint(&b, "## Portfolio\n\n")
	fmt.Fprintln(&b, "| Metric | Value |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Max drawdown | %.2f%% |\n", snap.MaxDrawdown*100)
	fmt.Fprintf(&b, "| Ulcer index | %.4f |\n", snap.UlcerIndex)
	fmt.Fprintf(&b, "| CAGR | %.2f%% |\n", snap.CAGR*100)
	fmt.Fprintf(&b, "| MAR | %.2f |\n", snap.MAR)
	fmt.Fprintf(&b, "| Sharpe | %.2f |\n", snap.Sharpe)

	if cmp := snap.Benchmark; cmp != nil {
		fmt.Fprintf(&b, "\n## Versus %s\n\n", cmp.Ticker)
		if cmp.Insufficient {
			fmt.Fprintf(&b, "Insufficient data: only %d overlapping days (need %d).\n",
				cmp.SampleSize, tradecore.MinBenchmarkDays)
			return b.String()
		}
		fmt.Fprintln(&b, "| Metric | Value |")
		fmt.Fprintln(&b, "|:---|---:|")
		fmt.Fprintf(&b, "| Beta | %.4f |\n", cmp.Beta)
		fmt.Fprintf(&b, "| Alpha (daily) | %.4f |\n", cmp.AlphaDaily)
		fmt.Fprintf(&b, "| Alpha (annual) | %.4f |\n", cmp.AlphaAnnual)
		fmt.Fprintf(&b, "| Tracking error | %.4f |\n", cmp.TrackingError)
		fmt.Fprintf(&b, "| Information ratio | %.2f |\n", cmp.InformationRatio)
		fmt.Fprintf(&b, "| Up capture | %.2f |\n", cmp.UpCapture)
		fmt.Fprintf(&b, "| Down capture | %.2f |\n", cmp.DownCapture)
	}

	return b.String()
}
