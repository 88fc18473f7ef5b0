package models

import "time"

// CreateSupplyInput is the payload for POST /supplies.
type CreateSupplyInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Unit        string `json:"unit" binding:"required"`
	StockOnHand int    `json:"stock_on_hand" binding:"gte=0"`
	StockMin    int    `json:"stock_min" binding:"gte=0"`
	StockMax    int    `json:"stock_max" binding:"gte=0"`
}

// RequestLineInput is one manual supply line on a staff request.
type RequestLineInput struct {
	SupplyID string `json:"supply_id" binding:"required"`
	PerGroup int    `json:"per_group" binding:"required,gt=0"`
}

// CreateUsageRequestInput is the payload for POST /requests.
type CreateUsageRequestInput struct {
	TeacherID    string             `json:"teacher_id" binding:"required"`
	LabID        string             `json:"lab_id" binding:"required"`
	PracticeID   *string            `json:"practice_id"`
	SubjectID    *string            `json:"subject_id"`
	StartsAt     time.Time          `json:"starts_at" binding:"required"`
	EndsAt       time.Time          `json:"ends_at" binding:"required"`
	StudentCount int                `json:"student_count" binding:"required,gt=0"`
	GroupSize    int                `json:"group_size" binding:"gte=0"`
	Observations string             `json:"observations"`
	Lines        []RequestLineInput `json:"lines"`
}

// StudentLineInput is one supply line on a student request.
type StudentLineInput struct {
	SupplyID string `json:"supply_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// CreateStudentRequestInput is the payload for POST /student-requests.
type CreateStudentRequestInput struct {
	StudentID    string             `json:"student_id" binding:"required"`
	LabID        string             `json:"lab_id" binding:"required"`
	SubjectID    *string            `json:"subject_id"`
	StartsAt     time.Time          `json:"starts_at" binding:"required"`
	EndsAt       time.Time          `json:"ends_at" binding:"required"`
	Observations string             `json:"observations"`
	Lines        []StudentLineInput `json:"lines" binding:"required,min=1"`
}

// AddStudentLinesInput appends supply lines to an existing student request.
type AddStudentLinesInput struct {
	Lines []StudentLineInput `json:"lines" binding:"required,min=1,dive"`
}

// LossInput reports the not-returned portion of one line on return.
type LossInput struct {
	SupplyID    string `json:"supply_id" binding:"required"`
	NotReturned int    `json:"not_returned" binding:"gte=0"`
}

// ReturnInput is the payload for closing an approved request. An empty
// Losses slice means everything came back.
type ReturnInput struct {
	Responsible string      `json:"responsible"`
	Losses      []LossInput `json:"losses"`
}

// StartMaintenanceInput is the payload for POST /maintenance.
type StartMaintenanceInput struct {
	SupplyID string `json:"supply_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Notes    string `json:"notes"`
}

// FinishMaintenanceInput is the payload for closing a maintenance record.
// When ReturnedQuantity is omitted the full original quantity comes back.
type FinishMaintenanceInput struct {
	ReturnedQuantity *int   `json:"returned_quantity" binding:"omitempty,gte=0"`
	Notes            string `json:"notes"`
}

// RegisterDamagedInput is the payload for POST /damaged-items.
type RegisterDamagedInput struct {
	RequestID *string     `json:"request_id"`
	SupplyID  string      `json:"supply_id" binding:"required"`
	Quantity  int         `json:"quantity" binding:"required,gt=0"`
	State     DamageState `json:"state" binding:"required"`
	Notes     string      `json:"notes"`
}

// AcquisitionItemInput is one line of a new acquisition.
type AcquisitionItemInput struct {
	SupplyID    *string `json:"supply_id"`
	Description string  `json:"description" binding:"required"`
	Unit        string  `json:"unit"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice   string  `json:"unit_price" binding:"required"`
}

// CreateAcquisitionInput is the payload for POST /acquisitions.
type CreateAcquisitionInput struct {
	ManagerID      string                 `json:"manager_id" binding:"required"`
	RequestingUnit string                 `json:"requesting_unit"`
	CostCenter     string                 `json:"cost_center"`
	InvestmentCode string                 `json:"investment_code"`
	Responsible    string                 `json:"responsible"`
	Justification  string                 `json:"justification"`
	Observations   string                 `json:"observations"`
	IssuedAt       time.Time              `json:"issued_at"`
	Items          []AcquisitionItemInput `json:"items" binding:"required,min=1"`
}

// UpdateAcquisitionInput is the payload for PATCH /acquisitions/{id}.
// Items, when present, replace the full item list and the totals are
// recomputed.
type UpdateAcquisitionInput struct {
	Status       *AcquisitionStatus     `json:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	Observations *string                `json:"observations"`
	Items        []AcquisitionItemInput `json:"items" binding:"omitempty,min=1,dive"`
}

// PracticeSupplyInput is one template line of a practice.
type PracticeSupplyInput struct {
	SupplyID string `json:"supply_id" binding:"required"`
	PerGroup int    `json:"per_group" binding:"required,gt=0"`
}

// CreatePracticeInput is the payload for POST /practices.
type CreatePracticeInput struct {
	Title       string                `json:"title" binding:"required"`
	Description string                `json:"description"`
	SubjectID   *string               `json:"subject_id"`
	Supplies    []PracticeSupplyInput `json:"supplies"`
}
