package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type BloodType string

const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"
)

var AllBloodTypes = []BloodType{
	BloodTypeAPos, BloodTypeANeg,
	BloodTypeBPos, BloodTypeBNeg,
	BloodTypeABPos, BloodTypeABNeg,
	BloodTypeOPos, BloodTypeONeg,
}

func (b BloodType) Valid() bool {
	for _, t := range AllBloodTypes {
		if b == t {
			return true
		}
	}
	return false
}

func (b BloodType) Value() (driver.Value, error) { return string(b), nil }

// ParseBloodType accepts the canonical spelling, case-insensitively.
func ParseBloodType(s string) (BloodType, error) {
	b := BloodType(strings.ToUpper(strings.TrimSpace(s)))
	if !b.Valid() {
		return "", fmt.Errorf("%w: unknown blood type %q", ErrValidation, s)
	}
	return b, nil
}
