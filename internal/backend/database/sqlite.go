package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database
	if strings.Contains(connectionString, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		label TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions (created_at)`)
	return err
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist(ctx context.Context) bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.PingContext(ctx)
	return err == nil
}

func (s *SQLiteDatabase) CreatePrediction(ctx context.Context, record *PredictionRecord) error {
	prepareRecord(record)

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO predictions (id, filename, label, created_at) VALUES (?, ?, ?, ?)",
		record.ID, record.Filename, record.Label, record.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert prediction %s: %w", record.ID, err)
	}
	return nil
}

func (s *SQLiteDatabase) GetLatestPredictions(ctx context.Context, limit int) ([]*PredictionRecord, error) {
	if limit <= 0 {
		return []*PredictionRecord{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, filename, label, created_at FROM predictions ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as rows.Err reports iteration failures
	}()

	records := make([]*PredictionRecord, 0, limit)
	for rows.Next() {
		var record PredictionRecord
		var createdAt int64
		if err := rows.Scan(&record.ID, &record.Filename, &record.Label, &createdAt); err != nil {
			return nil, err
		}
		record.CreatedAt = time.Unix(0, createdAt).UTC()
		records = append(records, &record)
	}
	return records, rows.Err()
}

func (s *SQLiteDatabase) CountPredictions(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM predictions").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
