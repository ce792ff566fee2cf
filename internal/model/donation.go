package model

import "time"

type DonationRecord struct {
	ID           string    `db:"id" json:"id"`
	DonorID      string    `db:"donor_id" json:"donor_id"`
	LocationID   string    `db:"location_id" json:"location_id"`
	BloodType    BloodType `db:"blood_type" json:"blood_type"`
	UnitsDonated int       `db:"units_donated" json:"units_donated"`
	DonatedAt    time.Time `db:"donated_at" json:"donated_at"`
}
