package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/stonefin/ledger-engine/internal/core/ports/services"
	"github.com/stonefin/ledger-engine/internal/dto"
	"github.com/stonefin/ledger-engine/internal/middleware"
)

// accountHandler handles HTTP requests related to accounts.
type accountHandler struct {
	accountService portssvc.AccountService
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountService) {
	h := &accountHandler{accountService: accountService}

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("/:id", h.getAccount)
		accounts.GET("", h.listAccounts)
		accounts.POST("/:id/close", h.closeAccount)
	}
}

// createAccount godoc
// @Summary Create a new account
// @Description Registers a new account under the calling tenant
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   X-Tenant-ID header string true "Tenant identifier"
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Missing tenant identifier"
// @Failure 409 {object} map[string]string "Account code already exists"
// @Failure 500 {object} map[string]string "Failed to create account"
// @Router /accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), tenant, req)
	if err != nil {
		respondError(c, logger, err, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// getAccount godoc
// @Summary Get an account by ID
// @Description Retrieves an account with its current derived balance
// @Tags accounts
// @Produce  json
// @Param   X-Tenant-ID header string true "Tenant identifier"
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} map[string]string "Missing tenant identifier"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to retrieve account"
// @Router /accounts/{id} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	accountID := c.Param("id")

	account, balance, err := h.accountService.GetAccount(c.Request.Context(), tenant, accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve account")
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountWithBalanceResponse(account, balance))
}

// listAccounts godoc
// @Summary List accounts
// @Description Retrieves a page of the tenant's accounts in creation order
// @Tags accounts
// @Produce  json
// @Param   X-Tenant-ID header string true "Tenant identifier"
// @Param   accountType query string false "Filter by account type"
// @Param   currency query string false "Filter by currency"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Cursor from a previous page"
// @Success 200 {object} dto.ListAccountsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Missing tenant identifier"
// @Failure 500 {object} map[string]string "Failed to list accounts"
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	var params dto.ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListAccounts", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.accountService.ListAccounts(c.Request.Context(), tenant, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list accounts")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// closeAccount godoc
// @Summary Close an account
// @Description Soft-closes an account so it accepts no further postings. Fails for a nonzero balance unless force is set.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   X-Tenant-ID header string true "Tenant identifier"
// @Param   id path string true "Account ID"
// @Param   close body dto.CloseAccountRequest false "Close options"
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} map[string]string "Missing tenant identifier"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 422 {object} map[string]string "Account already closed or carries a balance"
// @Failure 500 {object} map[string]string "Failed to close account"
// @Router /accounts/{id}/close [post]
func (h *accountHandler) closeAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	accountID := c.Param("id")

	// Body is optional; absence means force=false.
	var req dto.CloseAccountRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for CloseAccount", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	account, err := h.accountService.CloseAccount(c.Request.Context(), tenant, accountID, req.Force)
	if err != nil {
		respondError(c, logger, err, "Failed to close account")
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}
