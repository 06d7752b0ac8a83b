package database

import "context"

// NoopDatabase discards every record. Used when the prediction log is disabled.
type NoopDatabase struct{}

func NewNoopDatabase() DatabaseService {
	return &NoopDatabase{}
}

func (n *NoopDatabase) CreateDatabase(ctx context.Context) error { return nil }

func (n *NoopDatabase) DoesDatabaseExist(ctx context.Context) bool { return true }

func (n *NoopDatabase) Close() error { return nil }

func (n *NoopDatabase) CreatePrediction(ctx context.Context, record *PredictionRecord) error {
	prepareRecord(record)
	return nil
}

func (n *NoopDatabase) GetLatestPredictions(ctx context.Context, limit int) ([]*PredictionRecord, error) {
	return []*PredictionRecord{}, nil
}

func (n *NoopDatabase) CountPredictions(ctx context.Context) (int, error) {
	return 0, nil
}
