package models

import "time"

type AlertKind string

const (
	AlertLowStock    AlertKind = "LOW_STOCK"
	AlertExcessStock AlertKind = "EXCESS_STOCK"
)

type AlertState string

const (
	AlertActive   AlertState = "ACTIVE"
	AlertResolved AlertState = "RESOLVED"
)

// Alert flags a supply whose free stock sits outside its configured band.
// At most one alert per supply is active at any time.
type Alert struct {
	ID         string     `db:"id" json:"id"`
	SupplyID   string     `db:"supply_id" json:"supply_id"`
	Kind       AlertKind  `db:"kind" json:"kind"`
	State      AlertState `db:"state" json:"state"`
	Message    string     `db:"message" json:"message"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// AlertFilter narrows alert listings.
type AlertFilter struct {
	SupplyID string
	State    AlertState
	Kind     AlertKind
	Page     int
	PageSize int
}
