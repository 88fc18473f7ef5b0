package models

import "time"

type MaintenanceState string

const (
	MaintenanceInProgress MaintenanceState = "IN_MAINTENANCE"
	MaintenanceFinished   MaintenanceState = "FINISHED"
)

// MaintenanceRecord tracks units of a supply removed from free stock for
// maintenance. On finish, ReturnedQuantity units go back to stock and the
// remainder is written off.
type MaintenanceRecord struct {
	ID               string           `db:"id" json:"id"`
	SupplyID         string           `db:"supply_id" json:"supply_id"`
	SupplyName       string           `db:"supply_name" json:"supply_name"`
	Quantity         int              `db:"quantity" json:"quantity"`
	ReturnedQuantity int              `db:"returned_quantity" json:"returned_quantity"`
	Notes            string           `db:"notes" json:"notes"`
	State            MaintenanceState `db:"state" json:"state"`
	StartedAt        time.Time        `db:"started_at" json:"started_at"`
	FinishedAt       *time.Time       `db:"finished_at" json:"finished_at,omitempty"`
}

// MaintenanceFilter narrows maintenance listings.
type MaintenanceFilter struct {
	SupplyID string
	State    MaintenanceState
	Page     int
	PageSize int
}
