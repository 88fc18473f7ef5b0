package models

import "time"

type DamageState string

const (
	DamageNoRepair DamageState = "NO_REPAIR"
	DamageInRepair DamageState = "IN_REPAIR"
	DamageRepaired DamageState = "REPAIRED"
)

// DamagedItem records units of a supply reported damaged during a request.
// Units in the REPAIRED state sit in free stock; entering or leaving that
// state adjusts the supply's stock and writes a REPAIR movement.
type DamagedItem struct {
	ID           string      `db:"id" json:"id"`
	RequestID    *string     `db:"request_id" json:"request_id,omitempty"`
	SupplyID     string      `db:"supply_id" json:"supply_id"`
	SupplyName   string      `db:"supply_name" json:"supply_name"`
	Quantity     int         `db:"quantity" json:"quantity"`
	State        DamageState `db:"state" json:"state"`
	Notes        string      `db:"notes" json:"notes"`
	RegisteredAt time.Time   `db:"registered_at" json:"registered_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// DamagedFilter narrows damaged item listings.
type DamagedFilter struct {
	SupplyID string
	State    DamageState
	Page     int
	PageSize int
}
