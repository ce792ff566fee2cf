package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "Pending"
	RequestFulfilled RequestStatus = "Fulfilled"
	RequestRejected  RequestStatus = "Rejected"
)

func (s RequestStatus) Value() (driver.Value, error) { return string(s), nil }

func (s RequestStatus) Terminal() bool {
	return s == RequestFulfilled || s == RequestRejected
}

type RequesterType string

const (
	RequesterHospital RequesterType = "Hospital"
	RequesterPatient  RequesterType = "Patient"
)

func (r RequesterType) Value() (driver.Value, error) { return string(r), nil }

func ParseRequesterType(s string) (RequesterType, error) {
	switch RequesterType(s) {
	case RequesterHospital, RequesterPatient:
		return RequesterType(s), nil
	case "":
		return RequesterHospital, nil
	}
	return "", fmt.Errorf("%w: unknown requester type %q", ErrValidation, s)
}

type RequestRecord struct {
	ID             string        `db:"id" json:"id"`
	LocationID     string        `db:"location_id" json:"location_id"`
	BloodType      BloodType     `db:"blood_type" json:"blood_type"`
	UnitsRequested int           `db:"units_requested" json:"units_requested"`
	RequesterType  RequesterType `db:"requester_type" json:"requester_type"`
	RequestedBy    *string       `db:"requested_by" json:"requested_by,omitempty"`
	Status         RequestStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	ResolvedAt     *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
}
