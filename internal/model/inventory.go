package model

import (
	"database/sql/driver"
	"time"
)

type InventoryEntry struct {
	ID             string    `db:"id" json:"id"`
	LocationID     string    `db:"location_id" json:"location_id"`
	BloodType      BloodType `db:"blood_type" json:"blood_type"`
	UnitsAvailable int       `db:"units_available" json:"units_available"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type MovementType string

const (
	MovementDonation    MovementType = "donation"
	MovementReservation MovementType = "reservation"
	MovementAdjustment  MovementType = "adjustment"
)

func (m MovementType) Value() (driver.Value, error) { return string(m), nil }

// InventoryMovement is the audit row written alongside every committed change
// to an InventoryEntry.
type InventoryMovement struct {
	ID             string       `db:"id" json:"id"`
	LocationID     string       `db:"location_id" json:"location_id"`
	BloodType      BloodType    `db:"blood_type" json:"blood_type"`
	MovementType   MovementType `db:"movement_type" json:"movement_type"`
	QuantityChange int          `db:"quantity_change" json:"quantity_change"`
	QuantityBefore int          `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int          `db:"quantity_after" json:"quantity_after"`
	ReferenceType  *string      `db:"reference_type" json:"reference_type,omitempty"`
	ReferenceID    *string      `db:"reference_id" json:"reference_id,omitempty"`
	Notes          string       `db:"notes" json:"notes"`
	CreatedBy      *string      `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`

	// Batch details, recorded on manual additions only.
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	IsSafe    *bool      `db:"is_safe" json:"is_safe,omitempty"`
}

// InventorySummary aggregates the ledger across locations.
type InventorySummary struct {
	UnitsByBloodType map[BloodType]int     `json:"units_by_blood_type"`
	RequestsByStatus map[RequestStatus]int `json:"requests_by_status"`
	TotalUnits       int                   `json:"total_units"`
}
