package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder journals narratives to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite journal opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			market       TEXT NOT NULL,
			display_name TEXT,
			timeframe    TEXT,
			price        REAL,
			change_rate  REAL,
			candle_count INTEGER,
			sentiment    TEXT,
			title        TEXT,
			body         TEXT,
			sources      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_market_ts ON analyses(market, timestamp)`,

		`CREATE TABLE IF NOT EXISTS briefings (
			id             TEXT PRIMARY KEY,
			timestamp      INTEGER NOT NULL,
			market         TEXT NOT NULL,
			headline_count INTEGER,
			body           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_briefings_market_ts ON briefings(market, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(entry *AnalysisEntry) error {
	sources, err := json.Marshal(entry.Analysis.Sources)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.Exec(`INSERT INTO analyses
		(id, timestamp, market, display_name, timeframe, price, change_rate, candle_count,
		 sentiment, title, body, sources)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		uuid.NewString(), time.Now().Unix(), entry.Market, entry.DisplayName,
		string(entry.Timeframe), entry.Price, entry.ChangeRate, entry.Candles,
		string(entry.Analysis.Sentiment), entry.Analysis.Title, entry.Analysis.Text, string(sources),
	)
	return err
}

func (r *SQLiteRecorder) RecordBriefing(entry *BriefingEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO briefings
		(id, timestamp, market, headline_count, body)
		VALUES (?,?,?,?,?)`,
		uuid.NewString(), time.Now().Unix(), entry.Market, entry.Headlines, entry.Text,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
