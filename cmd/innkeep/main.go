package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"innkeep/internal/app/commands"
	blockapp "innkeep/internal/app/handlers/blocks"
	bookingapp "innkeep/internal/app/handlers/booking"
	calendarapp "innkeep/internal/app/handlers/calendar"
	propertyapp "innkeep/internal/app/handlers/properties"
	"innkeep/internal/app/middleware"
	appoutbox "innkeep/internal/app/outbox"
	"innkeep/internal/app/queries"
	"innkeep/internal/app/uow"
	"innkeep/internal/infra/broker/kafka"
	"innkeep/internal/infra/config"
	"innkeep/internal/infra/db/gormstore"
	ginserver "innkeep/internal/infra/http/gin"
	"innkeep/internal/infra/obs"
	outboxrelay "innkeep/internal/infra/outbox"
	"innkeep/internal/infra/pricing"
	"innkeep/internal/infra/validation"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	db, err := gormstore.Open(postgres.Open(cfg.DatabaseURL))
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := gormstore.Migrate(db); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		logger.Error("kafka producer init failed", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	factory := gormstore.NewFactory(db)
	app := buildApplication(cfg, factory, logger)

	relay := &outboxrelay.Worker{
		Store:       &gormstore.OutboxStore{DB: db},
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Source:      "app://innkeep",
		Backoff:     cfg.RetryBackoff,
	}
	go func() {
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox relay stopped", "error", err)
		}
	}()
	go purgeIdempotencyLoop(ctx, db, logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		},
	}, app)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func buildApplication(cfg config.Config, factory uow.UoWFactory, logger *slog.Logger) ginserver.Handlers {
	encoder := appoutbox.JSONEventEncoder{}
	quoter := pricing.NewFlatRate(cfg.NightlyRateCents)

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory: factory,
		Pricing:    quoter,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.ApproveBookingCommand{}.Key(), &bookingapp.ApproveBookingHandler{
		UoWFactory: factory,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.DeclineBookingCommand{}.Key(), &bookingapp.DeclineBookingHandler{
		UoWFactory: factory,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: factory,
		Encoder:    encoder,
	})
	stays := &bookingapp.StayTransitionHandler{UoWFactory: factory, Encoder: encoder}
	commands.RegisterHandler(commandBus, bookingapp.SubmitBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.SubmitBookingCommand, *bookingapp.BookingResult](stays.HandleSubmit))
	commands.RegisterHandler(commandBus, bookingapp.CheckInBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.CheckInBookingCommand, *bookingapp.BookingResult](stays.HandleCheckIn))
	commands.RegisterHandler(commandBus, bookingapp.CheckOutBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.CheckOutBookingCommand, *bookingapp.BookingResult](stays.HandleCheckOut))
	commands.RegisterHandler(commandBus, bookingapp.NoShowBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.NoShowBookingCommand, *bookingapp.BookingResult](stays.HandleNoShow))
	commands.RegisterHandler(commandBus, blockapp.CreateBlockCommand{}.Key(), &blockapp.CreateBlockHandler{
		UoWFactory: factory,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, blockapp.DeleteBlockCommand{}.Key(), &blockapp.DeleteBlockHandler{
		UoWFactory: factory,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, propertyapp.CreatePropertyCommand{}.Key(), &propertyapp.CreatePropertyHandler{
		UoWFactory: factory,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, bookingapp.ListBookingsQuery{}.Key(), &bookingapp.ListBookingsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, calendarapp.GetRangesQuery{}.Key(), &calendarapp.GetRangesHandler{
		UoWFactory:    factory,
		MaxWindowDays: cfg.CalendarWindowMax,
	})

	v := validation.New()
	txOpts := func(cmd commands.Command) uow.TxOptions {
		return uow.TxOptions{Timeout: cfg.TxTimeout}
	}
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(v),
		middleware.Transaction(factory, txOpts),
		middleware.Idempotency(cfg.IdempotencyTTL),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(v),
	)

	return ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Calendar: ginserver.CalendarHandler{
			Queries:       queryBusWithMiddleware,
			MaxWindowDays: cfg.CalendarWindowMax,
		},
		Property: ginserver.PropertyHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Block: ginserver.BlockHandler{
			Commands: commandBusWithMiddleware,
		},
	}
}

// purgeIdempotencyLoop sweeps expired idempotency records hourly.
func purgeIdempotencyLoop(ctx context.Context, db *gorm.DB, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := gormstore.PurgeExpiredIdempotency(ctx, db)
			if err != nil {
				logger.Warn("idempotency purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("idempotency records purged", "count", n)
			}
		}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
