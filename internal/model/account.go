package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

type Role string

const (
	RoleDonor               Role = "Donor"
	RoleBloodBankStaff      Role = "BloodBankStaff"
	RoleMedicalProfessional Role = "MedicalProfessional"
	RoleHospitalStaff       Role = "HospitalStaff"
	RoleAdmin               Role = "Admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleBloodBankStaff, RoleMedicalProfessional, RoleHospitalStaff, RoleAdmin:
		return true
	}
	return false
}

func (r Role) Value() (driver.Value, error) { return string(r), nil }

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
	return r, nil
}

type Account struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
