package donor

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/donor/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
)

type Repository interface {
	// Create inserts d unless its email is taken, reporting whether it did.
	Create(ctx context.Context, d *model.Donor) (bool, error)
	FindByID(ctx context.Context, id string) (*model.Donor, error)
	FindAll(ctx context.Context, filters *dto.DonorFilters) ([]model.Donor, int, error)
	UpdateEligibility(ctx context.Context, id string, status model.EligibilityStatus, lastDonation *time.Time, updatedAt time.Time) (bool, error)
	// Delete removes a donor with no donation history. It fails with
	// ErrDonorHasDonations otherwise and reports false when id is unknown.
	Delete(ctx context.Context, id string) (bool, error)
}
