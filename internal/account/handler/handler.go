package handler

import (
	"net/http"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/account"
	"github.com/fekuna/omnipos-bloodbank-service/internal/account/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/auth"
	"github.com/fekuna/omnipos-bloodbank-service/internal/httperr"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	uc     account.UseCase
	tokens *auth.TokenManager
	logger logger.ZapLogger
}

func NewAccountHandler(uc account.UseCase, tokens *auth.TokenManager, log logger.ZapLogger) *AccountHandler {
	return &AccountHandler{
		uc:     uc,
		tokens: tokens,
		logger: log,
	}
}

// RegisterRoutes mounts public routes on public and token-guarded ones on private.
func (h *AccountHandler) RegisterRoutes(public, private *gin.RouterGroup) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)
	private.GET("/auth/me", h.Me)
	private.DELETE("/accounts/:id", auth.RequireRole(model.RoleAdmin), h.DeleteAccount)
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Account     *model.Account `json:"account"`
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}

	id, err := h.uc.Register(c.Request.Context(), &dto.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.uc.Login(c.Request.Context(), &dto.LoginInput{Username: req.Username, Password: req.Password})
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}

	token, exp, err := h.tokens.Issue(acc)
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Account: acc, AccessToken: token, ExpiresAt: exp})
}

func (h *AccountHandler) Me(c *gin.Context) {
	acc, err := h.uc.GetAccount(c.Request.Context(), auth.GetAccountID(c.Request.Context()))
	if err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.uc.DeleteAccount(ctx, c.Param("id"), auth.GetAccountID(ctx)); err != nil {
		httperr.Respond(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
