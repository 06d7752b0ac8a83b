package database

import "context"

type DatabaseService interface {
	// CreateDatabase ensures the schema exists. It is idempotent.
	CreateDatabase(ctx context.Context) error
	DoesDatabaseExist(ctx context.Context) bool
	Close() error

	// CreatePrediction assigns an ID and timestamp when missing and stores the record.
	CreatePrediction(ctx context.Context, record *PredictionRecord) error
	// GetLatestPredictions returns at most limit records, newest first.
	GetLatestPredictions(ctx context.Context, limit int) ([]*PredictionRecord, error)
	CountPredictions(ctx context.Context) (int, error)
}
