package donor

import (
	"context"

	"github.com/fekuna/omnipos-bloodbank-service/internal/donor/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/search"
)

type UseCase interface {
	RegisterDonor(ctx context.Context, input *dto.RegisterDonorInput) (*model.Donor, error)
	GetDonor(ctx context.Context, id string) (*model.Donor, error)
	SearchDonors(ctx context.Context, filters *dto.DonorFilters) ([]model.Donor, int, error)
	UpdateEligibility(ctx context.Context, input *dto.UpdateEligibilityInput) (*model.Donor, error)
	DeleteDonor(ctx context.Context, id string) error

	// ReindexDonor reloads the donor and writes it to the search index.
	ReindexDonor(ctx context.Context, id string) error
}

// SearchIndex is satisfied by *search.Client.
type SearchIndex interface {
	Index(ctx context.Context, index, id string, doc interface{}) error
	Search(ctx context.Context, index string, query map[string]interface{}) (*search.SearchResponse, error)
	Delete(ctx context.Context, index, id string) error
}

// IndexMapping is the Elasticsearch mapping for the donor index.
const IndexMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"first_name": { "type": "text" },
			"last_name": { "type": "text" },
			"email": { "type": "keyword" },
			"blood_type": { "type": "keyword" },
			"eligibility_status": { "type": "keyword" },
			"last_donation": { "type": "date" },
			"created_at": { "type": "date" },
			"updated_at": { "type": "date" }
		}
	}
}`
