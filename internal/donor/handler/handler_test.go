package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/auth"
	"github.com/fekuna/omnipos-bloodbank-service/internal/donor/repository"
	"github.com/fekuna/omnipos-bloodbank-service/internal/donor/usecase"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/fekuna/omnipos-bloodbank-service/internal/testutil"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, *auth.TokenManager) {
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	uc := usecase.NewDonorUseCase(repository.NewSQLRepository(testutil.NewDB(t)), nil, "", log)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	router := gin.New()
	NewDonorHandler(uc, log).RegisterRoutes(router.Group("/api/v1", auth.RequireAuth(tokens)))
	return router, tokens
}

func call(t *testing.T, router *gin.Engine, tokens *auth.TokenManager, role model.Role, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	token, _, err := tokens.Issue(&model.Account{ID: "acc-1", Username: "u", Role: role})
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDonorLifecycle(t *testing.T) {
	router, tokens := newRouter(t)

	w := call(t, router, tokens, model.RoleBloodBankStaff, http.MethodPost, "/api/v1/donors", gin.H{
		"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.org", "blood_type": "o-",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var d model.Donor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, model.BloodTypeONeg, d.BloodType)
	assert.Nil(t, d.AccountID)

	w = call(t, router, tokens, model.RoleAdmin, http.MethodPost, "/api/v1/donors", gin.H{
		"first_name": "Ada", "last_name": "L", "email": "ada@example.org", "blood_type": "A+",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(t, router, tokens, model.RoleMedicalProfessional, http.MethodGet, "/api/v1/donors?q=love&blood_type=O-", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []model.Donor `json:"items"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	w = call(t, router, tokens, model.RoleBloodBankStaff, http.MethodPut, "/api/v1/donors/"+d.ID+"/eligibility", gin.H{"eligibility_status": "Ineligible"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, model.Ineligible, d.EligibilityStatus)

	w = call(t, router, tokens, model.RoleBloodBankStaff, http.MethodGet, "/api/v1/donors/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDonorRoutes_Guards(t *testing.T) {
	router, tokens := newRouter(t)

	assert.Equal(t, http.StatusForbidden, call(t, router, tokens, model.RoleDonor, http.MethodGet, "/api/v1/donors", nil).Code)
	assert.Equal(t, http.StatusForbidden, call(t, router, tokens, model.RoleHospitalStaff, http.MethodPost, "/api/v1/donors", gin.H{}).Code)
	assert.Equal(t, http.StatusForbidden, call(t, router, tokens, model.RoleMedicalProfessional, http.MethodPut, "/api/v1/donors/x/eligibility", gin.H{}).Code)
	assert.Equal(t, http.StatusBadRequest, call(t, router, tokens, model.RoleAdmin, http.MethodPost, "/api/v1/donors", gin.H{"first_name": "A", "last_name": "B", "email": "not-an-email", "blood_type": "A+"}).Code)
}

func TestDeleteDonor(t *testing.T) {
	router, tokens := newRouter(t)

	w := call(t, router, tokens, model.RoleBloodBankStaff, http.MethodPost, "/api/v1/donors", gin.H{
		"first_name": "Grace", "last_name": "Hopper", "email": "grace@example.org", "blood_type": "B+",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var d model.Donor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))

	assert.Equal(t, http.StatusForbidden, call(t, router, tokens, model.RoleBloodBankStaff, http.MethodDelete, "/api/v1/donors/"+d.ID, nil).Code)
	assert.Equal(t, http.StatusNoContent, call(t, router, tokens, model.RoleAdmin, http.MethodDelete, "/api/v1/donors/"+d.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, router, tokens, model.RoleAdmin, http.MethodDelete, "/api/v1/donors/"+d.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, router, tokens, model.RoleAdmin, http.MethodGet, "/api/v1/donors/"+d.ID, nil).Code)
}

func TestSearchDonors_PageBounds(t *testing.T) {
	router, tokens := newRouter(t)

	w := call(t, router, tokens, model.RoleAdmin, http.MethodGet, "/api/v1/donors?page_size=1000000", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list struct {
		Page     int `json:"page"`
		PageSize int `json:"page_size"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 100, list.PageSize)

	assert.Equal(t, http.StatusBadRequest, call(t, router, tokens, model.RoleAdmin, http.MethodGet, "/api/v1/donors?page=9223372036854775807&page_size=100", nil).Code)
	assert.Equal(t, http.StatusBadRequest, call(t, router, tokens, model.RoleAdmin, http.MethodGet, "/api/v1/donors?page=-1", nil).Code)
}
