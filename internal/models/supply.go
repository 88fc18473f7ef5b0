package models

import "time"

// Supply is a stockable laboratory item. StockOnHand is the free stock:
// units that are loaned, in maintenance or sitting in the repaired ledger
// are not counted here.
type Supply struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	Location    string    `db:"location" json:"location"`
	Unit        string    `db:"unit" json:"unit"`
	StockOnHand int       `db:"stock_on_hand" json:"stock_on_hand"`
	StockMin    int       `db:"stock_min" json:"stock_min"`
	StockMax    int       `db:"stock_max" json:"stock_max"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SupplyFilter narrows supply listings.
type SupplyFilter struct {
	Search   string
	Category string
	Location string
	Page     int
	PageSize int
}

// SupplyUpdate carries a partial update; nil fields are left untouched.
type SupplyUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Location    *string `json:"location"`
	Unit        *string `json:"unit"`
	StockOnHand *int    `json:"stock_on_hand"`
	StockMin    *int    `json:"stock_min"`
	StockMax    *int    `json:"stock_max"`
}
