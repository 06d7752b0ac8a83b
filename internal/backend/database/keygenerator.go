package database

import (
	"time"

	"github.com/google/uuid"
)

func generateID() string {
	return uuid.NewString()
}

// prepareRecord fills the ID and timestamp of a record about to be stored
func prepareRecord(record *PredictionRecord) {
	if record.ID == "" {
		record.ID = generateID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
}
