package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBloodType(t *testing.T) {
	for _, in := range []string{"A+", "a-", " ab+ ", "O-"} {
		b, err := ParseBloodType(in)
		require.NoError(t, err, in)
		assert.True(t, b.Valid())
	}

	_, err := ParseBloodType("C+")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, AllBloodTypes, 8)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("HospitalStaff")
	require.NoError(t, err)
	assert.Equal(t, RoleHospitalStaff, r)

	_, err = ParseRole("Blood Bank Staff")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseRequesterAndEligibilityDefaults(t *testing.T) {
	rt, err := ParseRequesterType("")
	require.NoError(t, err)
	assert.Equal(t, RequesterHospital, rt)

	e, err := ParseEligibility("")
	require.NoError(t, err)
	assert.Equal(t, Eligible, e)

	_, err = ParseEligibility("Maybe")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStorageError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStorageError("record donation", cause)

	assert.True(t, IsStorageError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage error: record donation: connection reset", err.Error())

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Same(t, wrapped, NewStorageError("again", wrapped))
	assert.Nil(t, NewStorageError("noop", nil))
	assert.False(t, IsStorageError(ErrInvalidCredentials))
}

func TestRequestStatusTerminal(t *testing.T) {
	assert.False(t, RequestPending.Terminal())
	assert.True(t, RequestFulfilled.Terminal())
	assert.True(t, RequestRejected.Terminal())
}
