package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"turfbook/internal/admin"
	admindb "turfbook/internal/admin/db"
	"turfbook/internal/booking"
	bookingdb "turfbook/internal/booking/db"
	bookingredis "turfbook/internal/booking/redis"
	"turfbook/internal/config"
	"turfbook/internal/coupon"
	coupondb "turfbook/internal/coupon/db"
	"turfbook/internal/kafka"
	"turfbook/internal/logger"
	handlers "turfbook/internal/payment/handler"
	"turfbook/internal/payment/services"
	"turfbook/internal/payment/storage"
	"turfbook/internal/pricing"
)

// Standalone payment service. Shares the database and Kafka topics with the
// main booking service so either deployment shape works: routes mounted on
// the monolith, or this binary scaled on its own.
func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting payment service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Database.Username, cfg.Database.Password,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	defer redisClient.Close()

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

	couponService := coupon.NewService(&coupondb.DB{Bun: bunDB}, log)
	adminService := admin.NewService(&admindb.DB{Bun: bunDB}, log)
	bookingService := booking.NewService(
		&bookingdb.DB{Bun: bunDB},
		bookingredis.NewRedis(redisClient, cfg.Redis.SlotLockTTL, log),
		producer,
		couponService,
		adminService,
		pricing.NewEngine(),
		log,
	)

	stripeService, err := services.NewStripeService(cfg.Payments, log)
	if err != nil {
		log.Fatal("PAYMENT", fmt.Sprintf("Failed to initialize Stripe: %v", err))
	}

	paymentStore, err := storage.NewPostgreSQLStoreWithDB(bunDB.DB, log)
	if err != nil {
		log.Fatal("PAYMENT", fmt.Sprintf("Failed to initialize payment storage: %v", err))
	}
	defer paymentStore.Close()

	paymentHandler := handlers.NewStripeHandler(stripeService, paymentStore, paymentProducer, bookingService, log)

	router := gin.Default()
	api := router.Group("/api/payment")
	{
		api.POST("/validate-card", paymentHandler.ValidateCard)
		api.POST("/process", paymentHandler.ProcessPayment)
		api.GET("/status/:bookingId", paymentHandler.GetPaymentStatus)
	}

	port := os.Getenv("PAYMENT_SERVICE_PORT")
	if port == "" {
		port = ":8085"
	}

	server := &http.Server{
		Addr:         port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Payment service running on %s", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Payment service shutdown complete")
	}
}
