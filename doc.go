// Package tradecore turns a chronological stream of broker executions into
// open positions, closed round-trip trades, and portfolio risk and
// performance statistics. It is the position matching and P&L analytics
// engine behind riskr; everything around it (imports, storage, dashboards)
// is a consumer of this package.
//
// The core functionalities include:
//   - Instrument resolution: deriving the stable grouping key of a position
//     from an execution's fields, with a closed variant set over equity,
//     option, futures and crypto instruments.
//   - Position aggregation: replaying executions per instrument key with
//     average-cost matching, partial-fill semantics and an explicit
//     over-close clamp, emitting closed-trade records with realized P&L.
//   - Per-asset-class payoff formulas, including option contract multipliers
//     and futures point values.
//   - Closed-trade statistics: win rate, profit factor, expectancy and
//     groupings by symbol and calendar bucket.
//   - Time-series risk analytics: equity curve, drawdown, ulcer index, CAGR,
//     MAR, Sharpe, and alpha/beta/information ratio against a benchmark
//     close series.
//
// The engine is a pure, synchronous batch computation: it holds no
// connections, fetches no data, and keeps no state between runs. A replay is
// fully reproducible from its execution set alone. Monetary amounts are
// exact decimals end to end; rounding to the currency's precision happens
// only at the JSON boundary.
package tradecore
