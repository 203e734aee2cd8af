package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
)

const tenantHeader = "X-Tenant-ID"

// RequireTenant rejects requests without a tenant header. Translating
// authenticated principals into tenant ids happens upstream; this core
// only insists one is present.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := c.GetHeader(tenantHeader)
		if tenant == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "missing_tenant",
					"message": tenantHeader + " header is required",
				},
			})
			return
		}
		c.Set("tenant_id", tenant)
		c.Next()
	}
}

func tenantID(c *gin.Context) string {
	return c.GetString("tenant_id")
}
