package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AcquisitionStatus tracks a purchase order through review.
type AcquisitionStatus string

const (
	AcquisitionPending  AcquisitionStatus = "PENDING"
	AcquisitionApproved AcquisitionStatus = "APPROVED"
	AcquisitionRejected AcquisitionStatus = "REJECTED"
)

// Acquisition is a purchase order raised by a lab manager to restock
// supplies. TotalAmount is the sum of its item totals and AmountWords is
// that amount spelled out for the printed form.
type Acquisition struct {
	ID             string            `db:"id" json:"id"`
	ManagerID      string            `db:"manager_id" json:"manager_id"`
	RequestingUnit string            `db:"requesting_unit" json:"requesting_unit"`
	CostCenter     string            `db:"cost_center" json:"cost_center"`
	InvestmentCode string            `db:"investment_code" json:"investment_code"`
	Responsible    string            `db:"responsible" json:"responsible"`
	Justification  string            `db:"justification" json:"justification"`
	Observations   string            `db:"observations" json:"observations"`
	Status         AcquisitionStatus `db:"status" json:"status"`
	TotalAmount    decimal.Decimal   `db:"total_amount" json:"total_amount"`
	AmountWords    string            `db:"amount_words" json:"amount_words"`
	IssuedAt       time.Time         `db:"issued_at" json:"issued_at"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`

	Items []AcquisitionItem `db:"-" json:"items,omitempty"`
}

// AcquisitionItem is one line of an acquisition. Total is Quantity times
// UnitPrice, computed when the line is written.
type AcquisitionItem struct {
	ID            string          `db:"id" json:"id"`
	AcquisitionID string          `db:"acquisition_id" json:"acquisition_id"`
	SupplyID      *string         `db:"supply_id" json:"supply_id,omitempty"`
	Description   string          `db:"description" json:"description"`
	Unit          string          `db:"unit" json:"unit"`
	Quantity      int             `db:"quantity" json:"quantity"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	Total         decimal.Decimal `db:"total" json:"total"`
}
