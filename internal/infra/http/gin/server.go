package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"innkeep/internal/infra/config"
	"innkeep/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Submit(c *gin.Context)
	Approve(c *gin.Context)
	Decline(c *gin.Context)
	Cancel(c *gin.Context)
	CheckIn(c *gin.Context)
	CheckOut(c *gin.Context)
	NoShow(c *gin.Context)
}

type CalendarHTTP interface {
	Ranges(c *gin.Context)
}

type PropertyHTTP interface {
	Create(c *gin.Context)
	ListBookings(c *gin.Context)
}

type BlockHTTP interface {
	Create(c *gin.Context)
	Delete(c *gin.Context)
}

type Handlers struct {
	Booking  BookingHTTP
	Calendar CalendarHTTP
	Property PropertyHTTP
	Block    BlockHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Tenant-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	api.Use(RequireTenant())
	if h.Property != nil {
		api.POST("/properties", h.Property.Create)
		api.GET("/properties/:id/bookings", h.Property.ListBookings)
	}
	if h.Calendar != nil {
		api.GET("/properties/:id/calendar", h.Calendar.Ranges)
	}
	if h.Block != nil {
		api.POST("/properties/:id/blocks", h.Block.Create)
		api.DELETE("/properties/:id/blocks/:block_id", h.Block.Delete)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.POST("/bookings/:id/submit", h.Booking.Submit)
		api.POST("/bookings/:id/approve", h.Booking.Approve)
		api.POST("/bookings/:id/decline", h.Booking.Decline)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.POST("/bookings/:id/check-in", h.Booking.CheckIn)
		api.POST("/bookings/:id/check-out", h.Booking.CheckOut)
		api.POST("/bookings/:id/no-show", h.Booking.NoShow)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
