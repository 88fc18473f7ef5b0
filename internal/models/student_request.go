package models

import "time"

// StudentRequest is a lab usage request placed by a student. Lines carry
// flat quantities; no group arithmetic applies.
type StudentRequest struct {
	ID           string          `db:"id" json:"id"`
	StudentID    string          `db:"student_id" json:"student_id"`
	LabID        string          `db:"lab_id" json:"lab_id"`
	SubjectID    *string         `db:"subject_id" json:"subject_id,omitempty"`
	StartsAt     time.Time       `db:"starts_at" json:"starts_at"`
	EndsAt       time.Time       `db:"ends_at" json:"ends_at"`
	Observations string          `db:"observations" json:"observations"`
	State        RequestState    `db:"state" json:"state"`
	NotReturned  NotReturnedList `db:"not_returned" json:"not_returned,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`

	Lines []StudentRequestLine `db:"-" json:"lines,omitempty"`
}

// StudentRequestLine is one supply line of a student request.
type StudentRequestLine struct {
	ID         string `db:"id" json:"id"`
	RequestID  string `db:"request_id" json:"request_id"`
	SupplyID   string `db:"supply_id" json:"supply_id"`
	SupplyName string `db:"supply_name" json:"supply_name"`
	Quantity   int    `db:"quantity" json:"quantity"`
}

// LoanedSupply is one supply currently on loan to a student, derived from
// the lines of their approved requests.
type LoanedSupply struct {
	RequestID  string    `db:"request_id" json:"request_id"`
	SupplyID   string    `db:"supply_id" json:"supply_id"`
	SupplyName string    `db:"supply_name" json:"supply_name"`
	Quantity   int       `db:"quantity" json:"quantity"`
	StartsAt   time.Time `db:"starts_at" json:"starts_at"`
}
