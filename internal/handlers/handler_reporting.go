package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/stonefin/ledger-engine/internal/core/ports/services"
	"github.com/stonefin/ledger-engine/internal/dto"
	"github.com/stonefin/ledger-engine/internal/middleware"
)

// reportingHandler handles HTTP requests for derived balances and statements.
type reportingHandler struct {
	reportingService portssvc.ReportingService
}

// registerReportingRoutes registers balance and statement routes.
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingService) {
	h := &reportingHandler{reportingService: reportingService}

	accounts := rg.Group("/accounts")
	{
		accounts.GET("/:id/balance", h.getBalance)
		accounts.GET("/:id/statement", h.getStatement)
	}
}

// getBalance godoc
// @Summary Get an account balance
// @Description Derives the account balance from committed entries, optionally as of a date
// @Tags reporting
// @Produce  json
// @Param   X-Tenant-ID header string true "Tenant identifier"
// @Param   id path string true "Account ID"
// @Param   asOf query string false "Include entries with effective date up to this date (YYYY-MM-DD)"
// @Success 200 {object} dto.BalanceResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Missing tenant identifier"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to derive balance"
// @Router /accounts/{id}/balance [get]
func (h *reportingHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	accountID := c.Param("id")

	var params dto.BalanceParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for GetBalance", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	var asOf *time.Time
	if params.AsOf != nil {
		parsed, err := time.ParseInLocation(dto.DateLayout, *params.AsOf, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asOf date: " + err.Error()})
			return
		}
		asOf = &parsed
	}

	resp, err := h.reportingService.GetBalance(c.Request.Context(), tenant, accountID, asOf)
	if err != nil {
		respondError(c, logger, err, "Failed to derive balance")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getStatement godoc
// @Summary Get an account statement
// @Description Returns the account's entries in a date window with opening, running and closing balances
// @Tags reporting
// @Produce  json
// @Param   X-Tenant-ID header string true "Tenant identifier"
// @Param   id path string true "Account ID"
// @Param   startDate query string true "Inclusive start date (YYYY-MM-DD)"
// @Param   endDate query string true "Inclusive end date (YYYY-MM-DD)"
// @Success 200 {object} dto.StatementResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Missing tenant identifier"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to generate statement"
// @Router /accounts/{id}/statement [get]
func (h *reportingHandler) getStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	accountID := c.Param("id")

	var params dto.StatementParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for GetStatement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	start, err := time.ParseInLocation(dto.DateLayout, params.StartDate, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startDate: " + err.Error()})
		return
	}
	end, err := time.ParseInLocation(dto.DateLayout, params.EndDate, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endDate: " + err.Error()})
		return
	}

	statement, err := h.reportingService.GetStatement(c.Request.Context(), tenant, accountID, start, end)
	if err != nil {
		respondError(c, logger, err, "Failed to generate statement")
		return
	}

	c.JSON(http.StatusOK, dto.ToStatementResponse(statement))
}
