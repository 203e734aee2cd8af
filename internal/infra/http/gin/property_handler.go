package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"innkeep/internal/app/commands"
	BookingApp "innkeep/internal/app/handlers/booking"
	PropertyApp "innkeep/internal/app/handlers/properties"
	"innkeep/internal/app/queries"
)

type PropertyHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createPropertyRequest struct {
	Name string `json:"name"`
}

func (h PropertyHandler) Create(c *gin.Context) {
	var req createPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "malformed_body", "message": err.Error()}})
		return
	}
	cmd := PropertyApp.CreatePropertyCommand{
		CommandID: generateCommandID(),
		Tenant:    tenantID(c),
		Name:      req.Name,
	}
	result, err := commands.Dispatch[PropertyApp.CreatePropertyCommand, *PropertyApp.PropertyResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PropertyHandler) ListBookings(c *gin.Context) {
	q := BookingApp.ListBookingsQuery{
		Tenant:     tenantID(c),
		PropertyID: c.Param("id"),
	}
	result, err := queries.Ask[BookingApp.ListBookingsQuery, []*BookingApp.BookingResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": result})
}

var _ PropertyHTTP = PropertyHandler{}
