package dto

import (
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
)

type RecordDonationInput struct {
	DonorID    string
	LocationID string
	BloodType  model.BloodType
	Units      int
	DonatedAt  *time.Time // defaults to now
	RecordedBy string
	Source     string // "manual" or "blood_drive"
}

type SubmitRequestInput struct {
	LocationID    string
	BloodType     model.BloodType
	Units         int
	RequesterType model.RequesterType
	RequestedBy   string
}

type AdjustInventoryInput struct {
	LocationID     string
	BloodType      model.BloodType
	QuantityChange int
	Reason         string
	UserID         string

	// Optional batch details for additions.
	ExpiresAt *time.Time
	IsSafe    *bool
}
