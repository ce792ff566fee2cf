package ledger

import (
	"context"

	"github.com/fekuna/omnipos-bloodbank-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
)

type UseCase interface {
	RecordDonation(ctx context.Context, input *dto.RecordDonationInput) (*model.DonationRecord, error)
	SubmitRequest(ctx context.Context, input *dto.SubmitRequestInput) (*model.RequestRecord, error)
	AdjustInventory(ctx context.Context, input *dto.AdjustInventoryInput) (*model.InventoryEntry, error)

	GetLocationInventory(ctx context.Context, locationID string) ([]model.InventoryEntry, error)
	ListInventory(ctx context.Context, filters *dto.InventoryFilters) ([]model.InventoryEntry, int, error)
	GetRequest(ctx context.Context, id string) (*model.RequestRecord, error)
	ListRequests(ctx context.Context, filters *dto.RequestFilters) ([]model.RequestRecord, int, error)
	ListDonations(ctx context.Context, filters *dto.DonationFilters) ([]model.DonationRecord, int, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
	Summary(ctx context.Context) (*model.InventorySummary, error)
}

// EventPublisher receives ledger events after their transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, key string, v interface{}) error
}

// DonorSync refreshes derived donor views once a donation has changed the
// donor's last donation date.
type DonorSync interface {
	ReindexDonor(ctx context.Context, donorID string) error
}
