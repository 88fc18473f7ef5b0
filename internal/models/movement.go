package models

import "time"

type MovementKind string

const (
	MovementLoan               MovementKind = "LOAN"
	MovementReturn             MovementKind = "RETURN"
	MovementNotReturned        MovementKind = "NOT_RETURNED"
	MovementRepair             MovementKind = "REPAIR"
	MovementLoanStudent        MovementKind = "LOAN_STUDENT"
	MovementReturnStudent      MovementKind = "RETURN_STUDENT"
	MovementNotReturnedStudent MovementKind = "NOT_RETURNED_STUDENT"
)

// Movement is one immutable entry in the stock movement log. Every stock
// change driven by a request, return or repair leaves exactly one row here.
type Movement struct {
	ID               string       `db:"id" json:"id"`
	SupplyID         string       `db:"supply_id" json:"supply_id"`
	SupplyName       string       `db:"supply_name" json:"supply_name"`
	Kind             MovementKind `db:"kind" json:"kind"`
	Quantity         int          `db:"quantity" json:"quantity"`
	Responsible      string       `db:"responsible" json:"responsible"`
	RequestID        *string      `db:"request_id" json:"request_id,omitempty"`
	StudentRequestID *string      `db:"student_request_id" json:"student_request_id,omitempty"`
	DeliveredAt      time.Time    `db:"delivered_at" json:"delivered_at"`
	ReturnedAt       *time.Time   `db:"returned_at" json:"returned_at,omitempty"`
}

// MovementFilter narrows movement log queries.
type MovementFilter struct {
	SupplyID string
	Kind     MovementKind
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
