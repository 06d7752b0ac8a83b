package database

import "time"

// PredictionRecord is the metadata of one served prediction. Image bytes are
// never stored here; they live in the upload directory only.
type PredictionRecord struct {
	ID        string    `json:"id" db:"id"`
	Filename  string    `json:"filename" db:"filename"`
	Label     string    `json:"prediction" db:"label"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
