package source

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog"

	"github.com/nsequant/istbacktest/pkg/bar"
	"github.com/nsequant/istbacktest/pkg/logging"
)

// TimescaleDBSource reads a single symbol's minute bars from a TimescaleDB
// hypertable, narrowed from the teacher's multi-timeframe provider to the
// core's single-symbol, single-timeframe minute-bar contract.
type TimescaleDBSource struct {
	db     *sql.DB
	logger zerolog.Logger

	Symbol string
	Start  time.Time
	End    time.Time
}

// NewTimescaleDBSource opens a connection and returns a BarSource scoped to
// one symbol and time range.
func NewTimescaleDBSource(connectionString, symbol string, start, end time.Time) (*TimescaleDBSource, error) {
	logger := logging.GetLogger("timescaledb-source")

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("timescaledb source: open connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("timescaledb source: ping: %w", err)
	}

	return &TimescaleDBSource{db: db, logger: logger, Symbol: symbol, Start: start, End: end}, nil
}

// Bars fetches the symbol's one-minute bars in [Start, End], ascending.
func (s *TimescaleDBSource) Bars() ([]bar.Bar, error) {
	s.logger.Debug().Str("symbol", s.Symbol).Time("start", s.Start).Time("end", s.End).Msg("fetching minute bars")

	const query = `
		SELECT timestamp, open, high, low, close, volume
		FROM ohlcv_data
		WHERE symbol = $1 AND timeframe = '1m' AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC
	`
	rows, err := s.db.Query(query, s.Symbol, s.Start, s.End)
	if err != nil {
		return nil, fmt.Errorf("timescaledb source: query: %w", err)
	}
	defer rows.Close()

	var bars []bar.Bar
	for rows.Next() {
		var b bar.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("timescaledb source: scan: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("timescaledb source: rows: %w", err)
	}

	s.logger.Info().Str("symbol", s.Symbol).Int("bars", len(bars)).Msg("fetched minute bars")
	return bars, nil
}

// Close releases the underlying database connection.
func (s *TimescaleDBSource) Close() error {
	return s.db.Close()
}
