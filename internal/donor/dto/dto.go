package dto

import (
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
)

type DonorFilters struct {
	Query       string // matches first name, last name or email
	BloodType   model.BloodType
	Eligibility model.EligibilityStatus
	Page        int
	PageSize    int
}

type RegisterDonorInput struct {
	AccountID   string
	FirstName   string
	LastName    string
	Email       string
	BloodType   model.BloodType
	Eligibility model.EligibilityStatus
}

type UpdateEligibilityInput struct {
	DonorID      string
	Status       model.EligibilityStatus
	LastDonation *time.Time
}
