package models

import "time"

// Practice is a reusable lab practice template. Its supplies prescribe a
// per-group quantity for each item and take precedence over manual lines
// when a request references the practice.
type Practice struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	SubjectID   *string   `db:"subject_id" json:"subject_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	Supplies []PracticeSupply `db:"-" json:"supplies,omitempty"`
}

// PracticeSupply is one template line of a practice.
type PracticeSupply struct {
	ID         string `db:"id" json:"id"`
	PracticeID string `db:"practice_id" json:"practice_id"`
	SupplyID   string `db:"supply_id" json:"supply_id"`
	SupplyName string `db:"supply_name" json:"supply_name"`
	PerGroup   int    `db:"per_group" json:"per_group"`
}
