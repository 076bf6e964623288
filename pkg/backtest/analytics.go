package backtest

import "github.com/nsequant/istbacktest/pkg/simulator"

// ExitReasonStats summarises the closed trades that share one exit reason.
type ExitReasonStats struct {
	Count     int
	AvgNetPnl float64
}

// Analytics is purely derived from a trade list: per-exit-reason counts and
// average net P&L. It feeds export/presentation formatting and is never
// consumed back into the simulation.
type Analytics struct {
	ByExitReason map[simulator.ExitReason]ExitReasonStats
	TotalTrades  int
	WinCount     int
	LossCount    int
}

// ComputeAnalytics derives Analytics from a closed-trade list.
func ComputeAnalytics(trades []simulator.Trade) Analytics {
	sums := make(map[simulator.ExitReason]float64)
	counts := make(map[simulator.ExitReason]int)

	a := Analytics{TotalTrades: len(trades)}
	for _, t := range trades {
		sums[t.ExitReason] += t.NetPnl
		counts[t.ExitReason]++
		switch {
		case t.NetPnl > 0:
			a.WinCount++
		case t.NetPnl < 0:
			a.LossCount++
		}
	}

	byReason := make(map[simulator.ExitReason]ExitReasonStats, len(counts))
	for reason, n := range counts {
		byReason[reason] = ExitReasonStats{
			Count:     n,
			AvgNetPnl: sums[reason] / float64(n),
		}
	}
	a.ByExitReason = byReason
	return a
}
