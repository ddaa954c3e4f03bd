package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"turfbook/internal/admin"
	"turfbook/internal/admin/admin_api"
	admindb "turfbook/internal/admin/db"
	"turfbook/internal/analytics"
	analytics_api "turfbook/internal/analytics/api"
	"turfbook/internal/auth"
	"turfbook/internal/booking"
	"turfbook/internal/booking/booking_api"
	bookingdb "turfbook/internal/booking/db"
	bookingredis "turfbook/internal/booking/redis"
	"turfbook/internal/config"
	"turfbook/internal/coupon"
	"turfbook/internal/coupon/coupon_api"
	coupondb "turfbook/internal/coupon/db"
	"turfbook/internal/database/migrations"
	"turfbook/internal/kafka"
	"turfbook/internal/logger"
	"turfbook/internal/models"
	"turfbook/internal/notification"
	"turfbook/internal/pass"
	"turfbook/internal/pass/pass_api"
	handlers "turfbook/internal/payment/handler"
	"turfbook/internal/payment/services"
	"turfbook/internal/payment/storage"
	"turfbook/internal/pricing"
)

// subscribeSlotUnlocks listens for Redis key-expiry events and releases the
// corresponding slot hold. A hold that expires without payment puts the
// booking back through the cancellation path so the slots free up for
// other customers.
func subscribeSlotUnlocks(rdb *redis.Client, bookings *booking.Service, log *logger.Logger) {
	ctx := context.Background()

	val, err := rdb.ConfigGet(ctx, "notify-keyspace-events").Result()
	if err != nil {
		log.Error("REDIS", fmt.Sprintf("Failed to get keyspace config: %v", err))
	} else {
		log.Info("REDIS", fmt.Sprintf("Current keyspace notifications setting: %v", val))
		if len(val) < 2 || !strings.Contains(val[1].(string), "x") || !strings.Contains(val[1].(string), "E") {
			log.Warn("REDIS", "Keyspace notifications not properly configured for expiry events!")
		}
	}

	pubsub := rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	log.Info("REDIS", fmt.Sprintf("Subscribed to Redis keyevent expired notifications (DB %d)", rdb.Options().DB))

	go func() {
		for msg := range pubsub.Channel() {
			groundID, date, slot, ok := bookingredis.ParseLockKey(msg.Payload)
			if !ok {
				continue
			}
			log.Info("SLOT_UNLOCK", fmt.Sprintf("Slot hold expired: ground=%s date=%s slot=%s", groundID, date, slot))
			if err := bookings.HandleExpiredHold(ctx, groundID, date, slot); err != nil {
				log.Error("SLOT_UNLOCK", fmt.Sprintf("Failed to handle expired hold for %s %s %s: %v", groundID, date, slot, err))
			}
		}
	}()
}

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Database.Username, cfg.Database.Password,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}

	if _, err := redisClient.ConfigSet(ctx, "notify-keyspace-events", "Ex").Result(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Failed to enable keyspace notifications: %v", err))
	} else {
		log.Info("REDIS", "Keyspace notifications enabled for expired events")
	}

	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Redis.Addr, redisClient.Options().DB))
	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting TurfBook service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	migrateOpts := migrations.DefaultOptions()
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		migrateOpts.MigrationsDir = dir
	}
	if migrateOpts.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrateOpts, log)
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("MIGRATE", fmt.Sprintf("Failed to run migrations: %v", err))
		}
	}

	log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
	requiredTopics := []string{
		cfg.Kafka.Topics.BookingCreated,
		cfg.Kafka.Topics.BookingConfirmed,
		cfg.Kafka.Topics.BookingCancelled,
		cfg.Kafka.Topics.PaymentSucceeded,
		cfg.Kafka.Topics.PaymentFailed,
	}
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, kafka.Topics{
		BookingCreated:   cfg.Kafka.Topics.BookingCreated,
		BookingConfirmed: cfg.Kafka.Topics.BookingConfirmed,
		BookingCancelled: cfg.Kafka.Topics.BookingCancelled,
	}, log)
	defer producer.Close()

	paymentProducer := kafka.NewPaymentProducer(cfg.Kafka.Brokers, kafka.PaymentTopics{
		PaymentSucceeded: cfg.Kafka.Topics.PaymentSucceeded,
		PaymentFailed:    cfg.Kafka.Topics.PaymentFailed,
	}, log)
	defer paymentProducer.Close()
	log.Info("KAFKA", "Kafka producers initialized successfully")

	couponService := coupon.NewService(&coupondb.DB{Bun: bunDB}, log)
	adminService := admin.NewService(&admindb.DB{Bun: bunDB}, log)
	analyticsService := analytics.NewService(bunDB)

	bookingService := booking.NewService(
		&bookingdb.DB{Bun: bunDB},
		bookingredis.NewRedis(redisClient, cfg.Redis.SlotLockTTL, log),
		producer,
		couponService,
		adminService,
		pricing.NewEngine(),
		log,
	)

	passSecret := os.Getenv("PASS_SECRET")
	if passSecret == "" {
		log.Fatal("CONFIG", "PASS_SECRET not set")
	}
	passGenerator := pass.NewGenerator(passSecret)

	cacheClient, err := auth.InitializeTokenCache(cfg.Redis.Addr, log)
	if err != nil {
		log.Warn("AUTH", fmt.Sprintf("Dedicated token cache unavailable, sharing main Redis client: %v", err))
		cacheClient = redisClient
	} else {
		defer cacheClient.Close()
	}
	tokenCache := auth.NewRedisTokenCache(cacheClient)
	mailer := notification.NewMailer(cfg.Email, log)
	smsSender := notification.NewSMSSender(cfg.SMS, cfg.Auth.OIDCIssuer, tokenCache, log)
	notifier := notification.NewService(mailer, smsSender, log)

	bookingHandler := booking_api.NewHandler(bookingService)
	sseHandler := booking_api.NewSSEHandler(log, bookingService)
	couponHandler := coupon_api.NewHandler(couponService)
	adminHandler := admin_api.NewHandler(adminService)
	passHandler := pass_api.NewHandler(bookingService, passGenerator)
	analyticsHandler := analytics_api.NewHandler(analyticsService, log)

	var paymentHandler *handlers.StripeHandler
	if cfg.Payments.StripeSecretKey != "" {
		stripeService, err := services.NewStripeService(cfg.Payments, log)
		if err != nil {
			log.Fatal("PAYMENT", fmt.Sprintf("Failed to initialize Stripe: %v", err))
		}
		paymentStore, err := storage.NewPostgreSQLStoreWithDB(bunDB.DB, log)
		if err != nil {
			log.Fatal("PAYMENT", fmt.Sprintf("Failed to initialize payment storage: %v", err))
		}
		defer paymentStore.Close()
		paymentHandler = handlers.NewStripeHandler(stripeService, paymentStore, paymentProducer, bookingService, log)
		log.Info("PAYMENT", "Stripe payment handler initialized")
	} else {
		log.Warn("PAYMENT", "STRIPE_SECRET_KEY not set, payment routes disabled")
	}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes ---
		r.Get("/availability", bookingHandler.GetAvailability)
		r.Get("/grounds/{groundId}/stream", sseHandler.HandleGroundDayStream)
		r.Post("/passes/verify", passHandler.VerifyPass)

		r.Route("/bookings", func(r chi.Router) {
			// EventSource cannot set headers, the stream handler checks the
			// token itself.
			r.Get("/{bookingId}/stream", sseHandler.HandleBookingStream)

			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(cfg.Auth.OIDCIssuer))
				r.Post("/", bookingHandler.PlaceBooking)
				r.Get("/{bookingId}", bookingHandler.GetBooking)
				r.Delete("/{bookingId}", bookingHandler.CancelBooking)
				r.Get("/{bookingId}/pass", passHandler.GetPass)
			})
		})

		// --- Customer Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Auth.OIDCIssuer))

			r.Post("/quote", bookingHandler.Quote)
			r.Post("/coupons/validate", couponHandler.Validate)
			r.Get("/my/bookings", bookingHandler.MyBookings)

			if paymentHandler != nil {
				r.Post("/payments", paymentHandler.ProcessPaymentChi)
				r.Get("/payments/{bookingId}", paymentHandler.GetPaymentStatusChi)
			}
		})

		// --- Admin Routes ---
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.AdminMiddleware(cfg.Auth.AdminJWTSecret))

			r.With(adminHandler.RequirePerm(models.PermManageBookings)).Get("/bookings", bookingHandler.DayBookings)

			r.Get("/permissions", adminHandler.GetPermissions)
			r.With(admin_api.RequireSuperadmin).Put("/permissions", adminHandler.UpdatePermissions)

			r.Group(func(r chi.Router) {
				r.Use(adminHandler.RequirePerm(models.PermManagePayments))
				r.Get("/payments/settings", adminHandler.GetPaymentSettings)
				r.Put("/payments/settings", adminHandler.SetPaymentSettings)
			})

			r.Route("/freezes", func(r chi.Router) {
				r.Use(adminHandler.RequirePerm(models.PermFreezeSlots))
				r.Get("/", adminHandler.ListFreezes)
				r.Post("/", adminHandler.FreezeSlot)
				r.Delete("/", adminHandler.UnfreezeSlot)
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Use(adminHandler.RequirePerm(models.PermManageCoupons))
				r.Get("/", couponHandler.ListCoupons)
				r.Post("/", couponHandler.CreateCoupon)
				r.Put("/{code}", couponHandler.UpdateCoupon)
				r.Delete("/{code}", couponHandler.DeleteCoupon)
			})

			r.Group(func(r chi.Router) {
				r.Use(adminHandler.RequirePerm(models.PermViewAnalytics))
				analyticsHandler.RegisterRoutes(r)
			})
		})
	})
	log.Info("ROUTER", "Routes registered under /api")

	// No WriteTimeout: SSE streams stay open past any fixed deadline.
	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	log.Info("REDIS", "Starting slot unlock subscription")
	subscribeSlotUnlocks(redisClient, bookingService, log)

	consumerCtx, stopConsumers := context.WithCancel(ctx)
	defer stopConsumers()
	if cfg.Kafka.Enabled {
		bookingTopics := []string{
			cfg.Kafka.Topics.BookingCreated,
			cfg.Kafka.Topics.BookingConfirmed,
			cfg.Kafka.Topics.BookingCancelled,
		}
		for _, topic := range bookingTopics {
			consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topic, cfg.Kafka.GroupID, log)
			defer consumer.Close()
			go consumer.Start(consumerCtx, func(event models.BookingEvent) {
				notifier.HandleBookingEvent(event)
				sseHandler.EventEmitter.Emit(event)
			})
		}
		log.Info("KAFKA", "Booking event consumers started")
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 TurfBook service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	stopConsumers()
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ TurfBook service shutdown complete")
	}
}
