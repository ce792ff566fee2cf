package ledger

import (
	"context"

	"github.com/fekuna/omnipos-bloodbank-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
)

type Repository interface {
	// Mutation transactions. Each runs in its own database transaction and
	// either commits every write or none of them.
	RecordDonation(ctx context.Context, donation *model.DonationRecord, movement *model.InventoryMovement) (*model.InventoryEntry, error)
	SubmitRequestAndReserve(ctx context.Context, req *model.RequestRecord, movement *model.InventoryMovement) (*model.RequestRecord, error)
	AdjustStock(ctx context.Context, movement *model.InventoryMovement) (*model.InventoryEntry, error)

	// Reads
	GetEntry(ctx context.Context, locationID string, bloodType model.BloodType) (*model.InventoryEntry, error)
	ListEntries(ctx context.Context, filters *dto.InventoryFilters) ([]model.InventoryEntry, int, error)
	GetRequest(ctx context.Context, id string) (*model.RequestRecord, error)
	ListRequests(ctx context.Context, filters *dto.RequestFilters) ([]model.RequestRecord, int, error)
	ListDonations(ctx context.Context, filters *dto.DonationFilters) ([]model.DonationRecord, int, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
	Summary(ctx context.Context) (*model.InventorySummary, error)
}
