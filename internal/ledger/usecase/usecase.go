package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/ledger"
	"github.com/fekuna/omnipos-bloodbank-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/cache"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	locationCacheKeyPrefix = "inventory:location:"
	summaryCacheKey        = "inventory:summary"
	defaultCacheTTL        = 5 * time.Minute
)

type ledgerUseCase struct {
	repo     ledger.Repository
	cache    *cache.RedisClient
	cacheTTL time.Duration
	events   ledger.EventPublisher
	donors   ledger.DonorSync
	logger   logger.ZapLogger
}

// NewLedgerUseCase builds the ledger use case. cache, events and donors are optional.
func NewLedgerUseCase(repo ledger.Repository, cache *cache.RedisClient, cacheTTL time.Duration, events ledger.EventPublisher, donors ledger.DonorSync, log logger.ZapLogger) ledger.UseCase {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &ledgerUseCase{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		events:   events,
		donors:   donors,
		logger:   log,
	}
}

func (uc *ledgerUseCase) RecordDonation(ctx context.Context, input *dto.RecordDonationInput) (*model.DonationRecord, error) {
	if strings.TrimSpace(input.DonorID) == "" {
		return nil, fmt.Errorf("%w: donor_id is required", model.ErrValidation)
	}
	if err := validateTarget(input.LocationID, input.BloodType); err != nil {
		return nil, err
	}
	if input.Units <= 0 {
		return nil, fmt.Errorf("%w: units must be positive", model.ErrValidation)
	}

	now := time.Now().UTC()
	donatedAt := now
	if input.DonatedAt != nil {
		donatedAt = input.DonatedAt.UTC()
		if donatedAt.After(now) {
			return nil, fmt.Errorf("%w: donated_at is in the future", model.ErrValidation)
		}
	}

	d := &model.DonationRecord{
		ID:           uuid.New().String(),
		DonorID:      input.DonorID,
		LocationID:   input.LocationID,
		BloodType:    input.BloodType,
		UnitsDonated: input.Units,
		DonatedAt:    donatedAt,
	}

	source := input.Source
	if source == "" {
		source = "manual"
	}
	refType := "donation"
	m := &model.InventoryMovement{
		ID:            uuid.New().String(),
		LocationID:    d.LocationID,
		BloodType:     d.BloodType,
		MovementType:  model.MovementDonation,
		ReferenceType: &refType,
		ReferenceID:   &d.ID,
		Notes:         source,
		CreatedBy:     optional(input.RecordedBy),
		CreatedAt:     now,
	}

	entry, err := uc.repo.RecordDonation(ctx, d, m)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Donation recorded",
		zap.String("donation_id", d.ID),
		zap.String("donor_id", d.DonorID),
		zap.String("location_id", d.LocationID),
		zap.String("blood_type", string(d.BloodType)),
		zap.Int("units", d.UnitsDonated),
		zap.Int("units_available", entry.UnitsAvailable),
	)

	uc.afterCommit(ctx, d.LocationID, ledger.Event{
		Type:           ledger.EventDonationRecorded,
		ReferenceID:    d.ID,
		LocationID:     d.LocationID,
		BloodType:      d.BloodType,
		Units:          d.UnitsDonated,
		UnitsAvailable: &entry.UnitsAvailable,
		OccurredAt:     now,
	})
	if uc.donors != nil {
		if err := uc.donors.ReindexDonor(ctx, d.DonorID); err != nil {
			uc.logger.Error("Failed to refresh donor after donation", zap.String("donor_id", d.DonorID), zap.Error(err))
		}
	}
	return d, nil
}

func (uc *ledgerUseCase) SubmitRequest(ctx context.Context, input *dto.SubmitRequestInput) (*model.RequestRecord, error) {
	if err := validateTarget(input.LocationID, input.BloodType); err != nil {
		return nil, err
	}
	if input.Units <= 0 {
		return nil, fmt.Errorf("%w: units must be positive", model.ErrValidation)
	}
	requesterType := input.RequesterType
	if requesterType == "" {
		requesterType = model.RequesterHospital
	}

	now := time.Now().UTC()
	req := &model.RequestRecord{
		ID:             uuid.New().String(),
		LocationID:     input.LocationID,
		BloodType:      input.BloodType,
		UnitsRequested: input.Units,
		RequesterType:  requesterType,
		RequestedBy:    optional(input.RequestedBy),
		Status:         model.RequestPending,
		CreatedAt:      now,
	}

	refType := "request"
	m := &model.InventoryMovement{
		ID:            uuid.New().String(),
		LocationID:    req.LocationID,
		BloodType:     req.BloodType,
		MovementType:  model.MovementReservation,
		ReferenceType: &refType,
		ReferenceID:   &req.ID,
		Notes:         string(requesterType),
		CreatedBy:     req.RequestedBy,
		CreatedAt:     now,
	}

	resolved, err := uc.repo.SubmitRequestAndReserve(ctx, req, m)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Blood request resolved",
		zap.String("request_id", resolved.ID),
		zap.String("location_id", resolved.LocationID),
		zap.String("blood_type", string(resolved.BloodType)),
		zap.Int("units", resolved.UnitsRequested),
		zap.String("status", string(resolved.Status)),
	)

	event := ledger.Event{
		Type:        ledger.EventRequestResolved,
		ReferenceID: resolved.ID,
		LocationID:  resolved.LocationID,
		BloodType:   resolved.BloodType,
		Units:       resolved.UnitsRequested,
		Status:      resolved.Status,
		OccurredAt:  now,
	}
	if resolved.Status == model.RequestFulfilled {
		event.UnitsAvailable = &m.QuantityAfter
	}
	uc.afterCommit(ctx, resolved.LocationID, event)
	return resolved, nil
}

func (uc *ledgerUseCase) AdjustInventory(ctx context.Context, input *dto.AdjustInventoryInput) (*model.InventoryEntry, error) {
	if err := validateTarget(input.LocationID, input.BloodType); err != nil {
		return nil, err
	}
	if input.QuantityChange == 0 {
		return nil, fmt.Errorf("%w: quantity_change must not be zero", model.ErrValidation)
	}

	now := time.Now().UTC()
	var expiresAt *time.Time
	if input.ExpiresAt != nil || input.IsSafe != nil {
		if input.QuantityChange < 0 {
			return nil, fmt.Errorf("%w: batch details apply to additions only", model.ErrValidation)
		}
		if input.IsSafe != nil && !*input.IsSafe {
			return nil, fmt.Errorf("%w: units that failed screening cannot be stocked", model.ErrValidation)
		}
		if input.ExpiresAt != nil {
			t := input.ExpiresAt.UTC()
			if !t.After(now) {
				return nil, fmt.Errorf("%w: batch has already expired", model.ErrValidation)
			}
			expiresAt = &t
		}
	}

	refType := "manual"
	m := &model.InventoryMovement{
		ID:             uuid.New().String(),
		LocationID:     input.LocationID,
		BloodType:      input.BloodType,
		MovementType:   model.MovementAdjustment,
		QuantityChange: input.QuantityChange,
		ReferenceType:  &refType,
		Notes:          input.Reason,
		CreatedBy:      optional(input.UserID),
		CreatedAt:      now,
		ExpiresAt:      expiresAt,
		IsSafe:         input.IsSafe,
	}

	entry, err := uc.repo.AdjustStock(ctx, m)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Inventory adjusted",
		zap.String("location_id", entry.LocationID),
		zap.String("blood_type", string(entry.BloodType)),
		zap.Int("quantity_change", input.QuantityChange),
		zap.Int("units_available", entry.UnitsAvailable),
	)

	uc.afterCommit(ctx, entry.LocationID, ledger.Event{
		Type:           ledger.EventInventoryAdjusted,
		ReferenceID:    m.ID,
		LocationID:     entry.LocationID,
		BloodType:      entry.BloodType,
		Units:          input.QuantityChange,
		UnitsAvailable: &entry.UnitsAvailable,
		OccurredAt:     now,
	})
	return entry, nil
}

// GetLocationInventory returns one entry per blood type, zero-filled for
// types the location has never stocked.
func (uc *ledgerUseCase) GetLocationInventory(ctx context.Context, locationID string) ([]model.InventoryEntry, error) {
	if strings.TrimSpace(locationID) == "" {
		return nil, fmt.Errorf("%w: location_id is required", model.ErrValidation)
	}

	key := locationCacheKeyPrefix + locationID
	if uc.cache != nil {
		var cached []model.InventoryEntry
		err := uc.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			uc.logger.Warn("Failed to read inventory cache", zap.String("key", key), zap.Error(err))
		}
	}

	entries, _, err := uc.repo.ListEntries(ctx, &dto.InventoryFilters{LocationID: locationID})
	if err != nil {
		return nil, err
	}

	byType := make(map[model.BloodType]model.InventoryEntry, len(entries))
	for _, e := range entries {
		byType[e.BloodType] = e
	}
	result := make([]model.InventoryEntry, 0, len(model.AllBloodTypes))
	for _, bt := range model.AllBloodTypes {
		e, ok := byType[bt]
		if !ok {
			e = model.InventoryEntry{LocationID: locationID, BloodType: bt}
		}
		result = append(result, e)
	}

	if uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, key, result, uc.cacheTTL); err != nil {
			uc.logger.Warn("Failed to write inventory cache", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

func (uc *ledgerUseCase) ListInventory(ctx context.Context, filters *dto.InventoryFilters) ([]model.InventoryEntry, int, error) {
	return uc.repo.ListEntries(ctx, filters)
}

func (uc *ledgerUseCase) GetRequest(ctx context.Context, id string) (*model.RequestRecord, error) {
	req, err := uc.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("request %w", model.ErrNotFound)
	}
	return req, nil
}

func (uc *ledgerUseCase) ListRequests(ctx context.Context, filters *dto.RequestFilters) ([]model.RequestRecord, int, error) {
	return uc.repo.ListRequests(ctx, filters)
}

func (uc *ledgerUseCase) ListDonations(ctx context.Context, filters *dto.DonationFilters) ([]model.DonationRecord, int, error) {
	return uc.repo.ListDonations(ctx, filters)
}

func (uc *ledgerUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}

func (uc *ledgerUseCase) Summary(ctx context.Context) (*model.InventorySummary, error) {
	if uc.cache != nil {
		var cached model.InventorySummary
		if err := uc.cache.GetJSON(ctx, summaryCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	s, err := uc.repo.Summary(ctx)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, summaryCacheKey, s, uc.cacheTTL); err != nil {
			uc.logger.Warn("Failed to write summary cache", zap.Error(err))
		}
	}
	return s, nil
}

// afterCommit drops cached views of the location and publishes the event.
// Neither step can undo the committed transaction, so failures are logged only.
func (uc *ledgerUseCase) afterCommit(ctx context.Context, locationID string, event ledger.Event) {
	if uc.cache != nil {
		if err := uc.cache.Delete(ctx, locationCacheKeyPrefix+locationID, summaryCacheKey); err != nil {
			uc.logger.Error("Failed to invalidate inventory cache", zap.String("location_id", locationID), zap.Error(err))
		}
	}
	if uc.events != nil {
		if err := uc.events.Publish(ctx, event.Key(), event); err != nil {
			uc.logger.Error("Failed to publish ledger event",
				zap.String("type", event.Type),
				zap.String("reference_id", event.ReferenceID),
				zap.Error(err),
			)
		}
	}
}

func validateTarget(locationID string, bt model.BloodType) error {
	if strings.TrimSpace(locationID) == "" {
		return fmt.Errorf("%w: location_id is required", model.ErrValidation)
	}
	if !bt.Valid() {
		return fmt.Errorf("%w: unknown blood type %q", model.ErrValidation, bt)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
