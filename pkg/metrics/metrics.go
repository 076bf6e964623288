// Package metrics computes the six-horizon performance bundle (daily,
// weekly, monthly, quarterly, yearly, overall) from a closed-trade list.
package metrics

import (
	"math"
	"sort"

	"github.com/nsequant/istbacktest/pkg/bar"
	"github.com/nsequant/istbacktest/pkg/simulator"
)

const riskFreeRate = 0.06
const tradingDaysPerYear = 252
const profitFactorCap = 99.99

// MetricData is one period's (or the overall run's) performance summary.
type MetricData struct {
	Return               float64
	SharpeRatio          float64
	MaxDrawdown          float64
	WinRate              float64
	LossRate             float64
	TotalTrades          int
	ProfitFactor         float64
	Expectancy           float64
	AvgWin               float64
	AvgLoss              float64
	PayoffRatio          float64
	RecoveryFactor       float64
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	RiskRewardRatio      float64
	TimeInMarket         float64
}

// Bundle is the full six-horizon result.
type Bundle struct {
	Daily     MetricData
	Weekly    MetricData
	Monthly   MetricData
	Quarterly MetricData
	Yearly    MetricData
	Overall   MetricData
}

type periodKey struct {
	year, a, b int
}

func dayKey(t bar.DayKey) periodKey    { return periodKey{t.Year, t.Month, t.Day} }
func monthKey(t bar.DayKey) periodKey  { return periodKey{t.Year, t.Month, 0} }
func quarterKey(t bar.DayKey) periodKey {
	return periodKey{t.Year, (t.Month-1)/3 + 1, 0}
}
func yearKey(t bar.DayKey) periodKey { return periodKey{t.Year, 0, 0} }

// weekKey preserves the source's non-ISO "(dayOfYear-1)/7" week-ordinal
// formula anchored on January 1st, per the spec's compatibility decision.
func weekKey(full bar.DayKey, dayOfYear int) periodKey {
	return periodKey{full.Year, (dayOfYear - 1) / 7, 0}
}

func dayOfYear(istTime, jan1 bar.DayKey) int {
	// Both are IST calendar dates; compute ordinal day via a days-since-epoch
	// style count using the proleptic Gregorian calendar's day numbering.
	return daysFromCivil(istTime) - daysFromCivil(jan1) + 1
}

// daysFromCivil converts a (year, month, day) civil date into a day count,
// via Howard Hinnant's well-known days-from-civil algorithm.
func daysFromCivil(d bar.DayKey) int {
	y := d.Year
	m := d.Month
	day := d.Day
	if m <= 2 {
		y--
	}
	era := y
	if era < 0 {
		era -= 399
	}
	era /= 400
	yoe := y - era*400
	var mp int
	if m > 2 {
		mp = m - 3
	} else {
		mp = m + 9
	}
	doy := (153*mp+2)/5 + day - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func computeMetricData(trades []simulator.Trade, initialCapital float64) MetricData {
	n := len(trades)
	md := MetricData{TotalTrades: n}
	if n == 0 {
		return md
	}

	var grossProfit, grossLoss float64
	winners, losers := 0, 0
	for _, t := range trades {
		if t.NetPnl > 0 {
			grossProfit += t.NetPnl
			winners++
		} else if t.NetPnl < 0 {
			grossLoss += -t.NetPnl
			losers++
		}
	}

	md.WinRate = 100 * float64(winners) / float64(n)
	md.LossRate = 100 - md.WinRate
	if winners > 0 {
		md.AvgWin = grossProfit / float64(winners)
	}
	if losers > 0 {
		md.AvgLoss = grossLoss / float64(losers)
	}

	switch {
	case grossLoss > 0:
		md.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		md.ProfitFactor = profitFactorCap
	default:
		md.ProfitFactor = 0
	}

	if md.AvgLoss != 0 {
		md.PayoffRatio = md.AvgWin / md.AvgLoss
	}
	md.RiskRewardRatio = md.PayoffRatio

	winRateDec := md.WinRate / 100
	lossRateDec := md.LossRate / 100
	md.Expectancy = winRateDec*md.AvgWin - lossRateDec*md.AvgLoss

	var totalNetPnl float64
	for _, t := range trades {
		totalNetPnl += t.NetPnl
	}
	if initialCapital != 0 {
		md.Return = 100 * totalNetPnl / initialCapital
	}

	// Virtual equity curve in entry order, for drawdown.
	equity := initialCapital
	peak := initialCapital
	maxDD := 0.0
	for _, t := range trades {
		equity += t.NetPnl
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := 100 * (peak - equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	md.MaxDrawdown = -maxDD

	if md.MaxDrawdown != 0 {
		md.RecoveryFactor = math.Abs(md.Return / md.MaxDrawdown)
	}

	returns := make([]float64, n)
	for i, t := range trades {
		returns[i] = t.PnlPercent / 100
	}
	mean, stddev := meanStddev(returns, n)
	if stddev != 0 {
		md.SharpeRatio = mean / stddev
	}

	md.MaxConsecutiveWins, md.MaxConsecutiveLosses = consecutiveStreaks(trades)

	return md
}

func meanStddev(xs []float64, divisor int) (mean, stddev float64) {
	if len(xs) == 0 || divisor == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))
	var sqSum float64
	for _, x := range xs {
		d := x - mean
		sqSum += d * d
	}
	stddev = math.Sqrt(sqSum / float64(divisor))
	return mean, stddev
}

func consecutiveStreaks(trades []simulator.Trade) (maxWins, maxLosses int) {
	winStreak, lossStreak := 0, 0
	for _, t := range trades {
		if t.NetPnl > 0 {
			winStreak++
			lossStreak = 0
		} else if t.NetPnl < 0 {
			lossStreak++
			winStreak = 0
		} else {
			winStreak, lossStreak = 0, 0
		}
		if winStreak > maxWins {
			maxWins = winStreak
		}
		if lossStreak > maxLosses {
			maxLosses = lossStreak
		}
	}
	return maxWins, maxLosses
}

// overallSharpe annualises mean/stddev of trade returns and subtracts the
// risk-free rate, per the spec's normalisation of per-period vs overall Sharpe.
func overallSharpe(trades []simulator.Trade) float64 {
	n := len(trades)
	if n == 0 {
		return 0
	}
	returns := make([]float64, n)
	for i, t := range trades {
		returns[i] = t.PnlPercent / 100
	}
	mean, stddev := meanStddev(returns, n)
	annFactor := math.Sqrt(tradingDaysPerYear)
	meanAnn := mean * annFactor
	stdAnn := stddev * annFactor
	if stdAnn == 0 {
		return 0
	}
	return (meanAnn - riskFreeRate) / stdAnn
}

func groupBy(trades []simulator.Trade, keyOf func(simulator.Trade) periodKey) map[periodKey][]simulator.Trade {
	groups := make(map[periodKey][]simulator.Trade)
	for _, t := range trades {
		k := keyOf(t)
		groups[k] = append(groups[k], t)
	}
	return groups
}

func aggregateHorizon(trades []simulator.Trade, initialCapital float64, timeInMarket float64, keyOf func(simulator.Trade) periodKey) MetricData {
	groups := groupBy(trades, keyOf)
	if len(groups) == 0 {
		md := MetricData{}
		md.TimeInMarket = timeInMarket
		return md
	}

	keys := make([]periodKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.year != b.year {
			return a.year < b.year
		}
		if a.a != b.a {
			return a.a < b.a
		}
		return a.b < b.b
	})

	var sumMD MetricData
	maxWins, maxLosses := 0, 0
	for _, k := range keys {
		pmd := computeMetricData(groups[k], initialCapital)
		sumMD.Return += pmd.Return
		sumMD.SharpeRatio += pmd.SharpeRatio
		sumMD.MaxDrawdown += pmd.MaxDrawdown
		sumMD.WinRate += pmd.WinRate
		sumMD.LossRate += pmd.LossRate
		sumMD.TotalTrades += pmd.TotalTrades
		sumMD.ProfitFactor += pmd.ProfitFactor
		sumMD.Expectancy += pmd.Expectancy
		sumMD.AvgWin += pmd.AvgWin
		sumMD.AvgLoss += pmd.AvgLoss
		sumMD.PayoffRatio += pmd.PayoffRatio
		sumMD.RecoveryFactor += pmd.RecoveryFactor
		sumMD.RiskRewardRatio += pmd.RiskRewardRatio
		if pmd.MaxConsecutiveWins > maxWins {
			maxWins = pmd.MaxConsecutiveWins
		}
		if pmd.MaxConsecutiveLosses > maxLosses {
			maxLosses = pmd.MaxConsecutiveLosses
		}
	}

	g := float64(len(keys))
	mean := MetricData{
		Return:               sumMD.Return / g,
		SharpeRatio:          sumMD.SharpeRatio / g,
		MaxDrawdown:          sumMD.MaxDrawdown / g,
		WinRate:              sumMD.WinRate / g,
		LossRate:             sumMD.LossRate / g,
		TotalTrades:          int(math.Round(float64(sumMD.TotalTrades) / g)),
		ProfitFactor:         sumMD.ProfitFactor / g,
		Expectancy:           sumMD.Expectancy / g,
		AvgWin:               sumMD.AvgWin / g,
		AvgLoss:              sumMD.AvgLoss / g,
		PayoffRatio:          sumMD.PayoffRatio / g,
		RecoveryFactor:       sumMD.RecoveryFactor / g,
		RiskRewardRatio:      sumMD.RiskRewardRatio / g,
		MaxConsecutiveWins:   maxWins,
		MaxConsecutiveLosses: maxLosses,
		TimeInMarket:         timeInMarket,
	}
	return mean
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundAll(md MetricData) MetricData {
	md.Return = round2(md.Return)
	md.SharpeRatio = round2(md.SharpeRatio)
	md.MaxDrawdown = round2(md.MaxDrawdown)
	md.WinRate = round2(md.WinRate)
	md.LossRate = round2(md.LossRate)
	md.ProfitFactor = round2(md.ProfitFactor)
	md.Expectancy = round2(md.Expectancy)
	md.AvgWin = round2(md.AvgWin)
	md.AvgLoss = round2(md.AvgLoss)
	md.PayoffRatio = round2(md.PayoffRatio)
	md.RecoveryFactor = round2(md.RecoveryFactor)
	md.RiskRewardRatio = round2(md.RiskRewardRatio)
	md.TimeInMarket = round2(md.TimeInMarket)
	return md
}

// Compute derives the full six-horizon bundle from a simulator result.
func Compute(trades []simulator.Trade, initialCapital float64, barsInPosition, totalMarketBars int) Bundle {
	timeInMarket := 0.0
	if totalMarketBars > 0 {
		timeInMarket = 100 * float64(barsInPosition) / float64(totalMarketBars)
	}

	jan1 := func(full bar.DayKey) bar.DayKey { return bar.DayKey{Year: full.Year, Month: 1, Day: 1} }

	entryDay := func(t simulator.Trade) bar.DayKey { return bar.ISTDayKey(t.EntryTime) }

	overall := computeMetricData(trades, initialCapital)
	overall.SharpeRatio = overallSharpe(trades)
	overall.TimeInMarket = timeInMarket

	daily := aggregateHorizon(trades, initialCapital, timeInMarket, func(t simulator.Trade) periodKey {
		return dayKey(entryDay(t))
	})
	weekly := aggregateHorizon(trades, initialCapital, timeInMarket, func(t simulator.Trade) periodKey {
		full := entryDay(t)
		return weekKey(full, dayOfYear(full, jan1(full)))
	})
	monthly := aggregateHorizon(trades, initialCapital, timeInMarket, func(t simulator.Trade) periodKey {
		return monthKey(entryDay(t))
	})
	quarterly := aggregateHorizon(trades, initialCapital, timeInMarket, func(t simulator.Trade) periodKey {
		return quarterKey(entryDay(t))
	})
	yearly := aggregateHorizon(trades, initialCapital, timeInMarket, func(t simulator.Trade) periodKey {
		return yearKey(entryDay(t))
	})

	return Bundle{
		Daily:     roundAll(daily),
		Weekly:    roundAll(weekly),
		Monthly:   roundAll(monthly),
		Quarterly: roundAll(quarterly),
		Yearly:    roundAll(yearly),
		Overall:   roundAll(overall),
	}
}
