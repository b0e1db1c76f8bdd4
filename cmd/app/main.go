package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/festivo/vendorbooking/config"
	"github.com/festivo/vendorbooking/internal/bootstrap"
	"github.com/festivo/vendorbooking/internal/cache"
	"github.com/festivo/vendorbooking/internal/kafka"
	"github.com/festivo/vendorbooking/internal/repository"
	"github.com/festivo/vendorbooking/internal/service/booking"
	"github.com/festivo/vendorbooking/internal/service/ledger"
	"github.com/festivo/vendorbooking/internal/service/otp"
	"github.com/festivo/vendorbooking/internal/service/review"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Ledger.AvailabilityTTL())
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	holdRepo := repository.NewHoldRepository(pool)
	challengeRepo := repository.NewChallengeRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)

	otpManager := otp.NewManager(challengeRepo, cfg.OTP.TTL(), cfg.OTP.Attempts, cfg.OTP.ResendWindow(), cfg.OTP.BcryptCost)
	bookingService := booking.NewBookingService(
		bookingRepo,
		redisCache,
		producer,
		otpManager,
		cfg.Kafka.BookingTopic,
		cfg.Ledger.SlotLockTTL(),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	ledgerService := ledger.NewLedgerService(holdRepo, redisCache, cfg.Ledger.SlotLockTTL())
	reviewService := review.NewReviewService(reviewRepo, bookingRepo, producer, cfg.Kafka.NotificationsTopic, cfg.Review.AllowFromCompleted)

	if err := bootstrap.Run(ctx, cfg, bookingService, ledgerService, reviewService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
