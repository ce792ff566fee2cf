package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/auth"
	"github.com/fekuna/omnipos-bloodbank-service/internal/donor"
	"github.com/fekuna/omnipos-bloodbank-service/internal/donor/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/httperr"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type DonorHandler struct {
	uc     donor.UseCase
	logger logger.ZapLogger
}

func NewDonorHandler(uc donor.UseCase, log logger.ZapLogger) *DonorHandler {
	return &DonorHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *DonorHandler) RegisterRoutes(r *gin.RouterGroup) {
	staff := auth.RequireRole(model.RoleBloodBankStaff, model.RoleAdmin)
	readers := auth.RequireRole(model.RoleBloodBankStaff, model.RoleAdmin, model.RoleMedicalProfessional)

	r.POST("/donors", auth.RequireRole(model.RoleDonor, model.RoleBloodBankStaff, model.RoleAdmin), h.RegisterDonor)
	r.GET("/donors", readers, h.SearchDonors)
	r.GET("/donors/:id", readers, h.GetDonor)
	r.PUT("/donors/:id/eligibility", staff, h.UpdateEligibility)
	r.DELETE("/donors/:id", auth.RequireRole(model.RoleAdmin), h.DeleteDonor)
}

type registerDonorRequest struct {
	FirstName         string `json:"first_name" binding:"required"`
	LastName          string `json:"last_name" binding:"required"`
	Email             string `json:"email" binding:"required,email"`
	BloodType         string `json:"blood_type" binding:"required"`
	EligibilityStatus string `json:"eligibility_status"`
}

type updateEligibilityRequest struct {
	EligibilityStatus string     `json:"eligibility_status" binding:"required"`
	LastDonation      *time.Time `json:"last_donation"`
}

type searchQuery struct {
	Query       string `form:"q"`
	BloodType   string `form:"blood_type"`
	Eligibility string `form:"eligibility_status"`
	Page        int    `form:"page" binding:"omitempty,min=1,max=100000"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1"`
}

const maxPageSize = 100

// RegisterDonor links the profile to the caller's account when a donor
// registers themselves.
func (h *DonorHandler) RegisterDonor(c *gin.Context) {
	var req registerDonorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bt, err := model.ParseBloodType(req.BloodType)
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	status, err := model.ParseEligibility(req.EligibilityStatus)
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}

	input := &dto.RegisterDonorInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		BloodType:   bt,
		Eligibility: status,
	}
	if user, ok := auth.UserFromContext(c.Request.Context()); ok && user.Role == model.RoleDonor {
		input.AccountID = user.AccountID
	}

	d, err := h.uc.RegisterDonor(c.Request.Context(), input)
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DonorHandler) GetDonor(c *gin.Context) {
	d, err := h.uc.GetDonor(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DonorHandler) SearchDonors(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 || q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	filters := &dto.DonorFilters{Query: q.Query, Page: q.Page, PageSize: q.PageSize}
	if q.BloodType != "" {
		bt, err := model.ParseBloodType(strings.ReplaceAll(q.BloodType, " ", "+"))
		if err != nil {
			httperr.Respond(c, h.logger, err)
			return
		}
		filters.BloodType = bt
	}
	if q.Eligibility != "" {
		status, err := model.ParseEligibility(q.Eligibility)
		if err != nil {
			httperr.Respond(c, h.logger, err)
			return
		}
		filters.Eligibility = status
	}

	donors, total, err := h.uc.SearchDonors(c.Request.Context(), filters)
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	if donors == nil {
		donors = []model.Donor{}
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     donors,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

func (h *DonorHandler) UpdateEligibility(c *gin.Context) {
	var req updateEligibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.uc.UpdateEligibility(c.Request.Context(), &dto.UpdateEligibilityInput{
		DonorID:      c.Param("id"),
		Status:       model.EligibilityStatus(req.EligibilityStatus),
		LastDonation: req.LastDonation,
	})
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DonorHandler) DeleteDonor(c *gin.Context) {
	if err := h.uc.DeleteDonor(c.Request.Context(), c.Param("id")); err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
