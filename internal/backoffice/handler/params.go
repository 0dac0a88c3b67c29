package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/branchday-backoffice/internal/domain/shared"
)

// requestBusinessDate resolves the business date an operation targets.
// Defaults to today's UTC date; an explicit business_date query
// parameter selects another day for reads and late reconciliation.
func requestBusinessDate(c *gin.Context) (time.Time, bool) {
	raw := c.Query("business_date")
	if raw == "" {
		return shared.BusinessDate(time.Now()), true
	}
	parsed, err := time.ParseInLocation(shared.BusinessDateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
