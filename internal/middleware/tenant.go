package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// TenantHeader carries the tenant identifier injected by the upstream auth
// layer. The value arrives already authenticated and authorized; the ledger
// trusts it verbatim and uses it purely for data partitioning.
const TenantHeader = "X-Tenant-ID"

const tenantIDKey = contextKey("tenantID")

// TenantMiddleware extracts the tenant identifier and rejects requests that
// reach the service without one (a routing misconfiguration upstream).
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(TenantHeader)
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing tenant identifier"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), tenantIDKey, tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetTenantIDFromCtx retrieves the tenant identifier from the context.
func GetTenantIDFromCtx(ctx context.Context) (string, bool) {
	tenantID, ok := ctx.Value(tenantIDKey).(string)
	return tenantID, ok && tenantID != ""
}
