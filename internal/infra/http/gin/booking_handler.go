package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"innkeep/internal/app/commands"
	BookingApp "innkeep/internal/app/handlers/booking"
	"innkeep/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
	PropertyID string `json:"property_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	GuestID    string `json:"guest_id"`
	GuestEmail string `json:"guest_email"`
	GuestName  string `json:"guest_name"`
	Inquiry    bool   `json:"inquiry"`
	Notes      string `json:"notes"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "malformed_body", "message": err.Error()}})
		return
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gin.H{"code": "validation_error", "message": "check_in must be a date"}})
		return
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gin.H{"code": "validation_error", "message": "check_out must be a date"}})
		return
	}
	cmd := BookingApp.CreateBookingCommand{
		CommandID:  generateCommandID(),
		Tenant:     tenantID(c),
		PropertyID: req.PropertyID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		GuestID:    req.GuestID,
		GuestEmail: req.GuestEmail,
		GuestName:  req.GuestName,
		Inquiry:    req.Inquiry,
		Notes:      req.Notes,
		IdemKey:    c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.CreateBookingCommand, *BookingApp.BookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	q := BookingApp.GetBookingQuery{
		Tenant:    tenantID(c),
		BookingID: c.Param("id"),
	}
	result, err := queries.Ask[BookingApp.GetBookingQuery, *BookingApp.BookingResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Submit(c *gin.Context) {
	cmd := BookingApp.SubmitBookingCommand{
		Tenant:    tenantID(c),
		BookingID: c.Param("id"),
	}
	result, err := commands.Dispatch[BookingApp.SubmitBookingCommand, *BookingApp.BookingResult](c.Request.Context(), h.Commands, cmd)
	h.respond(c, result, err)
}

type approveRequest struct {
	Note string `json:"note"`
}

func (h BookingHandler) Approve(c *gin.Context) {
	var req approveRequest
	_ = c.ShouldBindJSON(&req)
	cmd := BookingApp.ApproveBookingCommand{
		Tenant:    tenantID(c),
		BookingID: c.Param("id"),
		Note:      req.Note,
		IdemKey:   c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.ApproveBookingCommand, *BookingApp.BookingResult](c.Request.Context(), h.Commands, cmd)
	h.respond(c, result, err)
}

type declineRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

func (h BookingHandler) Decline(c *gin.Context) {
	var req declineRequest
	_ = c.ShouldBindJSON(&req)
	cmd := BookingApp.DeclineBookingCommand{
		Tenant:    tenantID(c),
		BookingID: c.Param("id"),
		Actor:     req.Actor,
		Reason:    req.Reason,
		IdemKey:   c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.DeclineBookingCommand, *BookingApp.BookingResult](c.Request.Context(), h.Commands, cmd)
	h.respond(c, result, err)
}

type cancelRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	_ = c.ShouldBindJSON(&req)
	cmd := BookingApp.CancelBookingCommand{
		Tenant:    tenantID(c),
		BookingID: c.Param("id"),
		Actor:     req.Actor,
		Reason:    req.Reason,
		IdemKey:   c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.CancelBookingCommand, *BookingApp.BookingResult](c.Request.Context(), h.Commands, cmd)
	h.respond(c, result, err)
}

func (h BookingHandler) CheckIn(c *gin.Context) {
	cmd := BookingApp.CheckInBookingCommand{
		Tenant:    tenantID(c),
		BookingID: c.Param("id"),
	}
	result, err := commands.Dispatch[BookingApp.CheckInBookingCommand, *BookingApp.BookingResult](c.Request.Context(), h.Commands, cmd)
	h.respond(c, result, err)
}

func (h BookingHandler) CheckOut(c *gin.Context) {
	cmd := BookingApp.CheckOutBookingCommand{
		Tenant:    tenantID(c),
		BookingID: c.Param("id"),
	}
	result, err := commands.Dispatch[BookingApp.CheckOutBookingCommand, *BookingApp.BookingResult](c.Request.Context(), h.Commands, cmd)
	h.respond(c, result, err)
}

func (h BookingHandler) NoShow(c *gin.Context) {
	cmd := BookingApp.NoShowBookingCommand{
		Tenant:    tenantID(c),
		BookingID: c.Param("id"),
	}
	result, err := commands.Dispatch[BookingApp.NoShowBookingCommand, *BookingApp.BookingResult](c.Request.Context(), h.Commands, cmd)
	h.respond(c, result, err)
}

func (h BookingHandler) respond(c *gin.Context, result *BookingApp.BookingResult, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
