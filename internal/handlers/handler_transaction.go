package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/stonefin/ledger-engine/internal/core/ports/services"
	"github.com/stonefin/ledger-engine/internal/dto"
	"github.com/stonefin/ledger-engine/internal/middleware"
)

// transactionHandler handles HTTP requests related to journal posting and
// queries.
type transactionHandler struct {
	postingService portssvc.PostingService
}

// registerTransactionRoutes registers routes related to transactions.
func registerTransactionRoutes(rg *gin.RouterGroup, postingService portssvc.PostingService) {
	h := &transactionHandler{postingService: postingService}

	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.postTransaction)
		transactions.GET("/:id", h.getTransaction)
		transactions.GET("", h.listTransactions)
		transactions.POST("/:id/reverse", h.reverseTransaction)
	}
}

// postTransaction godoc
// @Summary Post a transaction
// @Description Atomically commits a balanced set of entry lines as one journal. With an idempotency key, a retry returns the originally committed journal.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   X-Tenant-ID header string true "Tenant identifier"
// @Param   transaction body dto.PostTransactionRequest true "Transaction details"
// @Success 201 {object} dto.JournalResponse
// @Failure 400 {object} map[string]string "Unbalanced journal or validation error"
// @Failure 401 {object} map[string]string "Missing tenant identifier"
// @Failure 404 {object} map[string]string "Referenced account not found"
// @Failure 422 {object} map[string]string "Closed account or negative-balance violation"
// @Failure 500 {object} map[string]string "Failed to post transaction"
// @Router /transactions [post]
func (h *transactionHandler) postTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	var req dto.PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	journal, err := h.postingService.PostTransaction(c.Request.Context(), tenant, req)
	if err != nil {
		respondError(c, logger, err, "Failed to post transaction")
		return
	}

	c.JSON(http.StatusCreated, dto.ToJournalResponse(journal))
}

// getTransaction godoc
// @Summary Get a transaction by journal ID
// @Description Retrieves all entries committed together under one journal ID
// @Tags transactions
// @Produce  json
// @Param   X-Tenant-ID header string true "Tenant identifier"
// @Param   id path string true "Journal ID"
// @Success 200 {object} dto.JournalResponse
// @Failure 401 {object} map[string]string "Missing tenant identifier"
// @Failure 404 {object} map[string]string "Journal not found"
// @Failure 500 {object} map[string]string "Failed to retrieve transaction"
// @Router /transactions/{id} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	journalID := c.Param("id")

	journal, err := h.postingService.GetTransaction(c.Request.Context(), tenant, journalID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve transaction")
		return
	}

	c.JSON(http.StatusOK, dto.ToJournalResponse(journal))
}

// listTransactions godoc
// @Summary List transactions
// @Description Retrieves a page of journals, newest effective date first, optionally filtered by account and date range
// @Tags transactions
// @Produce  json
// @Param   X-Tenant-ID header string true "Tenant identifier"
// @Param   accountID query string false "Only journals touching this account"
// @Param   startDate query string false "Inclusive effective-date lower bound (YYYY-MM-DD)"
// @Param   endDate query string false "Inclusive effective-date upper bound (YYYY-MM-DD)"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Cursor from a previous page"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Missing tenant identifier"
// @Failure 500 {object} map[string]string "Failed to list transactions"
// @Router /transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.postingService.ListTransactions(c.Request.Context(), tenant, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// reverseTransaction godoc
// @Summary Reverse a transaction
// @Description Posts a new journal mirroring the original with flipped directions. The original journal is never mutated.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   X-Tenant-ID header string true "Tenant identifier"
// @Param   id path string true "Journal ID to reverse"
// @Param   reversal body dto.ReverseTransactionRequest false "Reversal options"
// @Success 201 {object} dto.JournalResponse
// @Failure 401 {object} map[string]string "Missing tenant identifier"
// @Failure 404 {object} map[string]string "Journal not found"
// @Failure 409 {object} map[string]string "Journal is itself a reversal"
// @Failure 422 {object} map[string]string "Referenced account is closed"
// @Failure 500 {object} map[string]string "Failed to reverse transaction"
// @Router /transactions/{id}/reverse [post]
func (h *transactionHandler) reverseTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	journalID := c.Param("id")

	var req dto.ReverseTransactionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for ReverseTransaction", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	journal, err := h.postingService.ReverseTransaction(c.Request.Context(), tenant, journalID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to reverse transaction")
		return
	}

	c.JSON(http.StatusCreated, dto.ToJournalResponse(journal))
}
