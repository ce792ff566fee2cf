package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/donor"
	"github.com/fekuna/omnipos-bloodbank-service/internal/donor/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/donor/repository"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/fekuna/omnipos-bloodbank-service/internal/testutil"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	docs      map[string]interface{}
	deleted   []string
	queries   []map[string]interface{}
	response  string
	searchErr error
}

func (f *fakeIndex) Index(_ context.Context, _ string, id string, doc interface{}) error {
	if f.docs == nil {
		f.docs = map[string]interface{}{}
	}
	f.docs[id] = doc
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, _ string, id string) error {
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, query map[string]interface{}) (*search.SearchResponse, error) {
	f.queries = append(f.queries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var res search.SearchResponse
	if err := json.Unmarshal([]byte(f.response), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func newUseCase(t *testing.T, idx donor.SearchIndex) donor.UseCase {
	return NewDonorUseCase(repository.NewSQLRepository(testutil.NewDB(t)), idx, "donors", logger.NewNop())
}

func TestRegisterDonor(t *testing.T) {
	idx := &fakeIndex{}
	uc := newUseCase(t, idx)
	ctx := context.Background()

	d, err := uc.RegisterDonor(ctx, &dto.RegisterDonorInput{FirstName: " Ada ", LastName: "Lovelace", Email: "ADA@example.org", BloodType: model.BloodTypeONeg})
	require.NoError(t, err)
	assert.Equal(t, "Ada", d.FirstName)
	assert.Equal(t, "ada@example.org", d.Email)
	assert.Equal(t, model.Eligible, d.EligibilityStatus)
	assert.Contains(t, idx.docs, d.ID)

	_, err = uc.RegisterDonor(ctx, &dto.RegisterDonorInput{FirstName: "Ada", LastName: "Again", Email: "ada@example.org", BloodType: model.BloodTypeAPos})
	assert.ErrorIs(t, err, model.ErrDuplicateDonor)

	got, err := uc.GetDonor(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Email, got.Email)
}

func TestRegisterDonor_Validation(t *testing.T) {
	uc := newUseCase(t, nil)

	cases := []dto.RegisterDonorInput{
		{LastName: "L", Email: "a@b.c", BloodType: model.BloodTypeAPos},
		{FirstName: "F", LastName: "L", Email: "nope", BloodType: model.BloodTypeAPos},
		{FirstName: "F", LastName: "L", Email: "a@b.c", BloodType: "A"},
	}
	for _, input := range cases {
		input := input
		_, err := uc.RegisterDonor(context.Background(), &input)
		assert.ErrorIs(t, err, model.ErrValidation)
	}
}

func TestGetDonor_NotFound(t *testing.T) {
	uc := newUseCase(t, nil)

	_, err := uc.GetDonor(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrDonorNotFound)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSearchDonors_UsesIndex(t *testing.T) {
	idx := &fakeIndex{response: `{"hits":{"total":{"value":7},"hits":[{"_id":"d1","_source":{"id":"d1","first_name":"Ada","blood_type":"O-"}}]}}`}
	uc := newUseCase(t, idx)

	got, total, err := uc.SearchDonors(context.Background(), &dto.DonorFilters{Query: "ad", BloodType: model.BloodTypeONeg, Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, got, 1)
	assert.Equal(t, "Ada", got[0].FirstName)

	require.Len(t, idx.queries, 1)
	assert.Equal(t, 5, idx.queries[0]["from"])
	assert.Equal(t, 5, idx.queries[0]["size"])
}

func TestSearchDonors_FallsBackToDatabase(t *testing.T) {
	idx := &fakeIndex{searchErr: errors.New("cluster red")}
	uc := newUseCase(t, idx)
	ctx := context.Background()

	_, err := uc.RegisterDonor(ctx, &dto.RegisterDonorInput{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.org", BloodType: model.BloodTypeBPos})
	require.NoError(t, err)

	got, total, err := uc.SearchDonors(ctx, &dto.DonorFilters{Query: "hop"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Grace", got[0].FirstName)
}

func TestSearchDonors_NoQuerySkipsIndex(t *testing.T) {
	idx := &fakeIndex{}
	uc := newUseCase(t, idx)

	_, _, err := uc.SearchDonors(context.Background(), &dto.DonorFilters{BloodType: model.BloodTypeAPos})
	require.NoError(t, err)
	assert.Empty(t, idx.queries)
}

func TestUpdateEligibility(t *testing.T) {
	idx := &fakeIndex{}
	uc := newUseCase(t, idx)
	ctx := context.Background()

	d, err := uc.RegisterDonor(ctx, &dto.RegisterDonorInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.org", BloodType: model.BloodTypeONeg})
	require.NoError(t, err)

	when := time.Now().UTC().Add(-24 * time.Hour).Truncate(time.Second)
	got, err := uc.UpdateEligibility(ctx, &dto.UpdateEligibilityInput{DonorID: d.ID, Status: model.Ineligible, LastDonation: &when})
	require.NoError(t, err)
	assert.Equal(t, model.Ineligible, got.EligibilityStatus)
	require.NotNil(t, got.LastDonation)
	assert.True(t, when.Equal(*got.LastDonation))
	assert.Equal(t, got, idx.docs[d.ID])

	future := time.Now().Add(time.Hour)
	_, err = uc.UpdateEligibility(ctx, &dto.UpdateEligibilityInput{DonorID: d.ID, Status: model.Eligible, LastDonation: &future})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = uc.UpdateEligibility(ctx, &dto.UpdateEligibilityInput{DonorID: d.ID, Status: "Maybe"})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = uc.UpdateEligibility(ctx, &dto.UpdateEligibilityInput{DonorID: "missing", Status: model.Eligible})
	assert.ErrorIs(t, err, model.ErrDonorNotFound)
}

func TestDeleteDonor(t *testing.T) {
	idx := &fakeIndex{}
	uc := newUseCase(t, idx)
	ctx := context.Background()

	d, err := uc.RegisterDonor(ctx, &dto.RegisterDonorInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.org", BloodType: model.BloodTypeONeg})
	require.NoError(t, err)

	require.NoError(t, uc.DeleteDonor(ctx, d.ID))
	assert.Equal(t, []string{d.ID}, idx.deleted)
	assert.NotContains(t, idx.docs, d.ID)

	_, err = uc.GetDonor(ctx, d.ID)
	assert.ErrorIs(t, err, model.ErrDonorNotFound)

	err = uc.DeleteDonor(ctx, d.ID)
	assert.ErrorIs(t, err, model.ErrDonorNotFound)
}

func TestReindexDonor(t *testing.T) {
	idx := &fakeIndex{}
	uc := newUseCase(t, idx)
	ctx := context.Background()

	d, err := uc.RegisterDonor(ctx, &dto.RegisterDonorInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.org", BloodType: model.BloodTypeONeg})
	require.NoError(t, err)
	delete(idx.docs, d.ID)

	require.NoError(t, uc.ReindexDonor(ctx, d.ID))
	assert.Contains(t, idx.docs, d.ID)

	assert.ErrorIs(t, uc.ReindexDonor(ctx, "missing"), model.ErrDonorNotFound)
	assert.NoError(t, newUseCase(t, nil).ReindexDonor(ctx, "missing"))
}
