package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	CalendarApp "innkeep/internal/app/handlers/calendar"
	"innkeep/internal/app/queries"
)

type CalendarHandler struct {
	Queries       queries.Bus
	MaxWindowDays int
}

func (h CalendarHandler) Ranges(c *gin.Context) {
	fromRaw := c.Query("from")
	toRaw := c.Query("to")
	if fromRaw == "" || toRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "validation_error", "message": "from and to query parameters are required"}})
		return
	}
	from, err := parseDate(fromRaw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "validation_error", "message": "from must be a date"}})
		return
	}
	to, err := parseDate(toRaw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "validation_error", "message": "to must be a date"}})
		return
	}
	q := CalendarApp.GetRangesQuery{
		Tenant:     tenantID(c),
		PropertyID: c.Param("id"),
		From:       from,
		To:         to,
	}
	result, err := queries.Ask[CalendarApp.GetRangesQuery, *CalendarApp.GetRangesResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CalendarHTTP = CalendarHandler{}
