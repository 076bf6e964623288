package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nsequant/istbacktest/pkg/indicator"
	"github.com/nsequant/istbacktest/pkg/source"
)

var (
	indInputPath string
	indPeriod    int
)

var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "Print SMA/EMA/RSI/ATR/ADX values for a bar file (diagnostic)",
	RunE:  runIndicators,
}

func init() {
	rootCmd.AddCommand(indicatorsCmd)
	indicatorsCmd.Flags().StringVar(&indInputPath, "input", "", "path to a CSV bar file")
	indicatorsCmd.Flags().IntVar(&indPeriod, "period", 14, "indicator period")
	indicatorsCmd.MarkFlagRequired("input")
}

func runIndicators(cmd *cobra.Command, args []string) error {
	src := source.NewCSVSource(indInputPath)
	bars, err := src.Bars()
	if err != nil {
		return fmt.Errorf("loading bars: %w", err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("no bars in %s", indInputPath)
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i], highs[i], lows[i] = b.Close, b.High, b.Low
	}

	sma := indicator.SMABatch(closes, indPeriod)
	ema := indicator.EMABatch(closes, indPeriod)
	rsi := indicator.RSIBatch(closes, indPeriod)
	atr := indicator.ATRBatch(highs, lows, closes, indPeriod)
	adx := indicator.ADXBatch(highs, lows, closes, indPeriod)

	fmt.Printf("%-20s %10s %10s %10s %10s %10s\n", "timestamp", "sma", "ema", "rsi", "atr", "adx")
	for i, b := range bars {
		fmt.Printf("%-20s %10s %10s %10s %10s %10s\n",
			b.Timestamp.Format("2006-01-02 15:04"),
			formatPtr(sma[i]), formatPtr(ema[i]), formatPtr(rsi[i]), formatPtr(atr[i]), formatPtr(adx[i]),
		)
	}
	return nil
}

func formatPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *v)
}
