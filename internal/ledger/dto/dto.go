package dto

import "github.com/fekuna/omnipos-bloodbank-service/internal/model"

type InventoryFilters struct {
	LocationID string
	BloodType  model.BloodType
	Page       int
	PageSize   int
}

type RequestFilters struct {
	LocationID string
	BloodType  model.BloodType
	Status     model.RequestStatus
	Page       int
	PageSize   int
}

type DonationFilters struct {
	DonorID    string
	LocationID string
	Page       int
	PageSize   int
}

type MovementFilters struct {
	LocationID   string
	BloodType    model.BloodType
	MovementType model.MovementType
	Page         int
	PageSize     int
}
