package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

type EligibilityStatus string

const (
	Eligible   EligibilityStatus = "Eligible"
	Ineligible EligibilityStatus = "Ineligible"
)

func (e EligibilityStatus) Value() (driver.Value, error) { return string(e), nil }

func ParseEligibility(s string) (EligibilityStatus, error) {
	switch EligibilityStatus(s) {
	case Eligible, Ineligible:
		return EligibilityStatus(s), nil
	case "":
		return Eligible, nil
	}
	return "", fmt.Errorf("%w: unknown eligibility status %q", ErrValidation, s)
}

type Donor struct {
	ID                string            `db:"id" json:"id"`
	AccountID         *string           `db:"account_id" json:"account_id,omitempty"`
	FirstName         string            `db:"first_name" json:"first_name"`
	LastName          string            `db:"last_name" json:"last_name"`
	Email             string            `db:"email" json:"email"`
	BloodType         BloodType         `db:"blood_type" json:"blood_type"`
	LastDonation      *time.Time        `db:"last_donation" json:"last_donation,omitempty"`
	EligibilityStatus EligibilityStatus `db:"eligibility_status" json:"eligibility_status"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}
