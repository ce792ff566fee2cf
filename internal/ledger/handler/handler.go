package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/auth"
	"github.com/fekuna/omnipos-bloodbank-service/internal/httperr"
	"github.com/fekuna/omnipos-bloodbank-service/internal/ledger"
	"github.com/fekuna/omnipos-bloodbank-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type LedgerHandler struct {
	uc     ledger.UseCase
	logger logger.ZapLogger
}

func NewLedgerHandler(uc ledger.UseCase, log logger.ZapLogger) *LedgerHandler {
	return &LedgerHandler{
		uc:     uc,
		logger: log,
	}
}

// RegisterRoutes mounts the ledger on an authenticated group.
func (h *LedgerHandler) RegisterRoutes(r *gin.RouterGroup) {
	staff := auth.RequireRole(model.RoleBloodBankStaff, model.RoleAdmin)
	requesters := auth.RequireRole(model.RoleMedicalProfessional, model.RoleHospitalStaff, model.RoleAdmin)

	readers := auth.RequireRole(model.RoleBloodBankStaff, model.RoleAdmin, model.RoleMedicalProfessional)
	requestReaders := auth.RequireRole(model.RoleBloodBankStaff, model.RoleAdmin, model.RoleMedicalProfessional, model.RoleHospitalStaff)

	r.GET("/inventory", h.ListInventory)
	r.GET("/inventory/summary", h.Summary)
	r.GET("/inventory/movements", h.ListMovements)
	r.POST("/inventory/adjust", staff, h.AdjustInventory)

	r.POST("/donations", staff, h.RecordDonation)
	r.GET("/donations", readers, h.ListDonations)

	r.POST("/requests", requesters, h.SubmitRequest)
	r.GET("/requests", requestReaders, h.ListRequests)
	r.GET("/requests/:id", requestReaders, h.GetRequest)
}

const maxPageSize = 100

type pageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1,max=100000"`
	PageSize int `form:"page_size" binding:"omitempty,min=1"`
}

// bind reads ?page= and ?page_size=, defaulting to the first page and
// clamping page_size to maxPageSize.
func (q *pageQuery) bind(c *gin.Context) bool {
	if err := c.ShouldBindQuery(q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 || q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return true
}

type listResponse struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

type recordDonationRequest struct {
	DonorID    string     `json:"donor_id" binding:"required"`
	LocationID string     `json:"location_id" binding:"required"`
	BloodType  string     `json:"blood_type" binding:"required"`
	Units      int        `json:"units" binding:"required"`
	DonatedAt  *time.Time `json:"donated_at"`
}

type submitRequestRequest struct {
	LocationID    string `json:"location_id" binding:"required"`
	BloodType     string `json:"blood_type" binding:"required"`
	Units         int    `json:"units" binding:"required"`
	RequesterType string `json:"requester_type"`
}

type adjustInventoryRequest struct {
	LocationID     string     `json:"location_id" binding:"required"`
	BloodType      string     `json:"blood_type" binding:"required"`
	QuantityChange int        `json:"quantity_change" binding:"required"`
	Reason         string     `json:"reason"`
	ExpiresAt      *time.Time `json:"expires_at"`
	IsSafe         *bool      `json:"is_safe"`
}

func (h *LedgerHandler) RecordDonation(c *gin.Context) {
	var req recordDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bt, err := model.ParseBloodType(req.BloodType)
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}

	d, err := h.uc.RecordDonation(c.Request.Context(), &dto.RecordDonationInput{
		DonorID:    req.DonorID,
		LocationID: req.LocationID,
		BloodType:  bt,
		Units:      req.Units,
		DonatedAt:  req.DonatedAt,
		RecordedBy: auth.GetAccountID(c.Request.Context()),
		Source:     "manual",
	})
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// SubmitRequest answers 201 for both outcomes; a Rejected status is a
// resolved request, not a failure.
func (h *LedgerHandler) SubmitRequest(c *gin.Context) {
	var req submitRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bt, err := model.ParseBloodType(req.BloodType)
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	rt, err := model.ParseRequesterType(req.RequesterType)
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}

	rec, err := h.uc.SubmitRequest(c.Request.Context(), &dto.SubmitRequestInput{
		LocationID:    req.LocationID,
		BloodType:     bt,
		Units:         req.Units,
		RequesterType: rt,
		RequestedBy:   auth.GetAccountID(c.Request.Context()),
	})
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *LedgerHandler) AdjustInventory(c *gin.Context) {
	var req adjustInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bt, err := model.ParseBloodType(req.BloodType)
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}

	entry, err := h.uc.AdjustInventory(c.Request.Context(), &dto.AdjustInventoryInput{
		LocationID:     req.LocationID,
		BloodType:      bt,
		QuantityChange: req.QuantityChange,
		Reason:         req.Reason,
		UserID:         auth.GetAccountID(c.Request.Context()),
		ExpiresAt:      req.ExpiresAt,
		IsSafe:         req.IsSafe,
	})
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ListInventory returns the full per-type view for ?location_id= and a
// paginated list of stocked rows otherwise.
func (h *LedgerHandler) ListInventory(c *gin.Context) {
	bt, ok := h.bloodTypeQuery(c)
	if !ok {
		return
	}
	locationID := c.Query("location_id")

	if locationID != "" && bt == "" {
		entries, err := h.uc.GetLocationInventory(c.Request.Context(), locationID)
		if err != nil {
			httperr.Respond(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, listResponse{Items: entries, Total: len(entries), Page: 1, PageSize: len(entries)})
		return
	}

	var pq pageQuery
	if !pq.bind(c) {
		return
	}
	items, total, err := h.uc.ListInventory(c.Request.Context(), &dto.InventoryFilters{
		LocationID: locationID,
		BloodType:  bt,
		Page:       pq.Page,
		PageSize:   pq.PageSize,
	})
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: emptyIfNil(items), Total: total, Page: pq.Page, PageSize: pq.PageSize})
}

func (h *LedgerHandler) Summary(c *gin.Context) {
	s, err := h.uc.Summary(c.Request.Context())
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *LedgerHandler) ListMovements(c *gin.Context) {
	bt, ok := h.bloodTypeQuery(c)
	if !ok {
		return
	}
	var pq pageQuery
	if !pq.bind(c) {
		return
	}

	items, total, err := h.uc.ListMovements(c.Request.Context(), &dto.MovementFilters{
		LocationID:   c.Query("location_id"),
		BloodType:    bt,
		MovementType: model.MovementType(c.Query("movement_type")),
		Page:         pq.Page,
		PageSize:     pq.PageSize,
	})
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: emptyIfNil(items), Total: total, Page: pq.Page, PageSize: pq.PageSize})
}

func (h *LedgerHandler) ListDonations(c *gin.Context) {
	var pq pageQuery
	if !pq.bind(c) {
		return
	}

	items, total, err := h.uc.ListDonations(c.Request.Context(), &dto.DonationFilters{
		DonorID:    c.Query("donor_id"),
		LocationID: c.Query("location_id"),
		Page:       pq.Page,
		PageSize:   pq.PageSize,
	})
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: emptyIfNil(items), Total: total, Page: pq.Page, PageSize: pq.PageSize})
}

func (h *LedgerHandler) ListRequests(c *gin.Context) {
	bt, ok := h.bloodTypeQuery(c)
	if !ok {
		return
	}
	var pq pageQuery
	if !pq.bind(c) {
		return
	}

	items, total, err := h.uc.ListRequests(c.Request.Context(), &dto.RequestFilters{
		LocationID: c.Query("location_id"),
		BloodType:  bt,
		Status:     model.RequestStatus(c.Query("status")),
		Page:       pq.Page,
		PageSize:   pq.PageSize,
	})
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: emptyIfNil(items), Total: total, Page: pq.Page, PageSize: pq.PageSize})
}

func (h *LedgerHandler) GetRequest(c *gin.Context) {
	rec, err := h.uc.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// bloodTypeQuery parses ?blood_type=. An unescaped '+' arrives as a space.
func (h *LedgerHandler) bloodTypeQuery(c *gin.Context) (model.BloodType, bool) {
	raw := c.Query("blood_type")
	if raw == "" {
		return "", true
	}
	bt, err := model.ParseBloodType(strings.ReplaceAll(raw, " ", "+"))
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return "", false
	}
	return bt, true
}

func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
