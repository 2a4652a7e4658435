// Package renderer turns the engine's analytics snapshots into markdown
// reports. It stops at markdown text: terminal or HTML presentation belongs
// to the surrounding application.
package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"
	"github.com/riskr/tradecore"
)

// StatsMarkdown renders the closed-trade statistics as a markdown report.
func StatsMarkdown(s *tradecore.Stats) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Trading Statistics")
	doc.PlainText(fmt.Sprintf("Closed trades: %d (%d wins, %d losses)",
		s.TotalTrades, s.WinningTrades, s.LosingTrades))

	doc.H2("Performance")
	doc.Table(md.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Win rate", fmt.Sprintf("%.2f%%", s.WinRate*100)},
			{"Profit factor", fmt.Sprintf("%.2f", s.ProfitFactor)},
			{"Average win", s.AvgWin.String()},
			{"Average loss", s.AvgLoss.String()},
			{"Expectancy", s.Expectancy.SignedString()},
			{"Best trade", s.BestTrade.SignedString()},
			{"Worst trade", s.WorstTrade.SignedString()},
			{"Total P&L", s.TotalPnL.SignedString()},
		},
	})

	if len(s.BySymbol) > 0 {
		doc.H2("By Symbol")
		rows := make([][]string, 0, len(s.BySymbol))
		for _, g := range s.BySymbol {
			rows = append(rows, []string{g.Key, fmt.Sprintf("%d", g.Trades),
				fmt.Sprintf("%.2f%%", g.WinRate*100), g.PnL.SignedString()})
		}
		doc.Table(md.TableSet{
			Header: []string{"Symbol", "Trades", "Win rate", "P&L"},
			Rows:   rows,
		})
	}

	if len(s.ByMonth) > 0 {
		doc.H2("By Month")
		rows := make([][]string, 0, len(s.ByMonth))
		for _, g := range s.ByMonth {
			rows = append(rows, []string{g.Key, fmt.Sprintf("%d", g.Trades),
				fmt.Sprintf("%.2f%%", g.WinRate*100), g.PnL.SignedString()})
		}
		doc.Table(md.TableSet{
			Header: []string{"Month", "Trades", "Win rate", "P&L"},
			Rows:   rows,
		})
	}

	return doc.String()
}
