package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type RequestState string

const (
	RequestPending   RequestState = "PENDING"
	RequestApproved  RequestState = "APPROVED"
	RequestRejected  RequestState = "REJECTED"
	RequestCompleted RequestState = "COMPLETED"
)

var requestTransitions = map[RequestState][]RequestState{
	RequestPending:  {RequestApproved, RequestRejected},
	RequestApproved: {RequestCompleted, RequestRejected},
}

// CanTransition reports whether a request may move from one state to
// another. Rejected and Completed are terminal.
func (s RequestState) CanTransition(to RequestState) bool {
	for _, next := range requestTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state admits no further transitions.
func (s RequestState) IsTerminal() bool {
	return len(requestTransitions[s]) == 0
}

// NotReturnedItem records how many units of a supply were never returned
// when a request was closed with losses.
type NotReturnedItem struct {
	SupplyID string `json:"supply_id"`
	Quantity int    `json:"quantity"`
}

// NotReturnedList is stored as a JSONB snapshot on the request row.
type NotReturnedList []NotReturnedItem

func (l NotReturnedList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *NotReturnedList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("not_returned: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, l)
}

// UsageRequest is a staff (teacher-led) lab usage request. Group sizing is
// resolved on creation: NumGroups = ceil(StudentCount / GroupSize).
type UsageRequest struct {
	ID           string          `db:"id" json:"id"`
	TeacherID    string          `db:"teacher_id" json:"teacher_id"`
	LabID        string          `db:"lab_id" json:"lab_id"`
	PracticeID   *string         `db:"practice_id" json:"practice_id,omitempty"`
	SubjectID    *string         `db:"subject_id" json:"subject_id,omitempty"`
	StartsAt     time.Time       `db:"starts_at" json:"starts_at"`
	EndsAt       time.Time       `db:"ends_at" json:"ends_at"`
	StudentCount int             `db:"student_count" json:"student_count"`
	GroupSize    int             `db:"group_size" json:"group_size"`
	NumGroups    int             `db:"num_groups" json:"num_groups"`
	Observations string          `db:"observations" json:"observations"`
	State        RequestState    `db:"state" json:"state"`
	NotReturned  NotReturnedList `db:"not_returned" json:"not_returned,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`

	Lines []UsageRequestLine `db:"-" json:"lines,omitempty"`
}

// UsageRequestLine is one supply line of a staff request. Total is always
// PerGroup times the request's NumGroups, fixed when the line is written.
type UsageRequestLine struct {
	ID         string `db:"id" json:"id"`
	RequestID  string `db:"request_id" json:"request_id"`
	SupplyID   string `db:"supply_id" json:"supply_id"`
	SupplyName string `db:"supply_name" json:"supply_name"`
	PerGroup   int    `db:"per_group" json:"per_group"`
	Total      int    `db:"total" json:"total"`
}

// InUseSupply is one supply currently tied up by an approved usage
// request in a lab run by a given manager.
type InUseSupply struct {
	SupplyID   string `db:"supply_id" json:"supply_id"`
	SupplyName string `db:"supply_name" json:"supply_name"`
	Quantity   int    `db:"quantity" json:"quantity"`
	LabID      string `db:"lab_id" json:"lab_id"`
	LabName    string `db:"lab_name" json:"lab_name"`
	RequestID  string `db:"request_id" json:"request_id"`
}

// RequestFilter narrows request listings.
type RequestFilter struct {
	State     RequestState
	TeacherID string
	LabID     string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
