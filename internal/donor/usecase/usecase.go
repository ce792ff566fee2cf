package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/donor"
	"github.com/fekuna/omnipos-bloodbank-service/internal/donor/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type donorUseCase struct {
	repo      donor.Repository
	index     donor.SearchIndex
	indexName string
	logger    logger.ZapLogger
}

// NewDonorUseCase builds the donor use case. index may be nil, in which case
// search runs against the database only.
func NewDonorUseCase(repo donor.Repository, index donor.SearchIndex, indexName string, log logger.ZapLogger) donor.UseCase {
	if indexName == "" {
		indexName = "donors"
	}
	return &donorUseCase{
		repo:      repo,
		index:     index,
		indexName: indexName,
		logger:    log,
	}
}

func (uc *donorUseCase) RegisterDonor(ctx context.Context, input *dto.RegisterDonorInput) (*model.Donor, error) {
	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if first == "" || last == "" {
		return nil, fmt.Errorf("%w: first and last name are required", model.ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email %q", model.ErrValidation, input.Email)
	}
	if !input.BloodType.Valid() {
		return nil, fmt.Errorf("%w: unknown blood type %q", model.ErrValidation, input.BloodType)
	}
	status := input.Eligibility
	if status == "" {
		status = model.Eligible
	}

	now := time.Now().UTC()
	d := &model.Donor{
		ID:                uuid.New().String(),
		FirstName:         first,
		LastName:          last,
		Email:             email,
		BloodType:         input.BloodType,
		EligibilityStatus: status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if input.AccountID != "" {
		accountID := input.AccountID
		d.AccountID = &accountID
	}

	created, err := uc.repo.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, model.ErrDuplicateDonor
	}

	uc.logger.Info("Donor registered", zap.String("donor_id", d.ID), zap.String("blood_type", string(d.BloodType)))
	uc.syncToIndex(ctx, d)
	return d, nil
}

func (uc *donorUseCase) GetDonor(ctx context.Context, id string) (*model.Donor, error) {
	d, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, model.ErrDonorNotFound
	}
	return d, nil
}

// SearchDonors prefers the search index for free-text queries and falls back
// to the database when the index is absent or failing.
func (uc *donorUseCase) SearchDonors(ctx context.Context, filters *dto.DonorFilters) ([]model.Donor, int, error) {
	if strings.TrimSpace(filters.Query) != "" && uc.index != nil {
		donors, total, err := uc.searchIndex(ctx, filters)
		if err == nil {
			return donors, total, nil
		}
		uc.logger.Error("Donor search failed, falling back to DB", zap.Error(err))
	}
	return uc.repo.FindAll(ctx, filters)
}

func (uc *donorUseCase) UpdateEligibility(ctx context.Context, input *dto.UpdateEligibilityInput) (*model.Donor, error) {
	if input.Status != model.Eligible && input.Status != model.Ineligible {
		return nil, fmt.Errorf("%w: unknown eligibility status %q", model.ErrValidation, input.Status)
	}
	var lastDonation *time.Time
	if input.LastDonation != nil {
		t := input.LastDonation.UTC()
		if t.After(time.Now().UTC()) {
			return nil, fmt.Errorf("%w: last donation is in the future", model.ErrValidation)
		}
		lastDonation = &t
	}

	ok, err := uc.repo.UpdateEligibility(ctx, input.DonorID, input.Status, lastDonation, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrDonorNotFound
	}

	d, err := uc.GetDonor(ctx, input.DonorID)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("Donor eligibility updated", zap.String("donor_id", d.ID), zap.String("status", string(d.EligibilityStatus)))
	uc.syncToIndex(ctx, d)
	return d, nil
}

func (uc *donorUseCase) DeleteDonor(ctx context.Context, id string) error {
	deleted, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrDonorNotFound
	}

	uc.logger.Info("Donor deleted", zap.String("donor_id", id))
	if uc.index != nil {
		if err := uc.index.Delete(ctx, uc.indexName, id); err != nil {
			uc.logger.Error("Failed to remove donor from index", zap.String("donor_id", id), zap.Error(err))
		}
	}
	return nil
}

func (uc *donorUseCase) ReindexDonor(ctx context.Context, id string) error {
	if uc.index == nil {
		return nil
	}
	d, err := uc.GetDonor(ctx, id)
	if err != nil {
		return err
	}
	return uc.index.Index(ctx, uc.indexName, d.ID, d)
}

func (uc *donorUseCase) searchIndex(ctx context.Context, f *dto.DonorFilters) ([]model.Donor, int, error) {
	must := []map[string]interface{}{
		{
			"multi_match": map[string]interface{}{
				"query":  f.Query,
				"fields": []string{"first_name^2", "last_name^2", "email"},
				"type":   "bool_prefix",
			},
		},
	}
	if f.BloodType != "" {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"blood_type": string(f.BloodType)}})
	}
	if f.Eligibility != "" {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"eligibility_status": string(f.Eligibility)}})
	}

	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
	}
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		q["from"] = (page - 1) * f.PageSize
		q["size"] = f.PageSize
	}

	res, err := uc.index.Search(ctx, uc.indexName, q)
	if err != nil {
		return nil, 0, err
	}
	donors := make([]model.Donor, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var d model.Donor
		if err := json.Unmarshal(hit.Source, &d); err != nil {
			return nil, 0, fmt.Errorf("decode donor %s: %w", hit.ID, err)
		}
		donors = append(donors, d)
	}
	return donors, res.Hits.Total.Value, nil
}

func (uc *donorUseCase) syncToIndex(ctx context.Context, d *model.Donor) {
	if uc.index == nil {
		return
	}
	if err := uc.index.Index(ctx, uc.indexName, d.ID, d); err != nil {
		uc.logger.Error("Failed to index donor", zap.String("donor_id", d.ID), zap.Error(err))
	}
}
