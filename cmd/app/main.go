package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/vaxbooking/config"
	"github.com/Domenick1991/vaxbooking/internal/bootstrap"
	"github.com/Domenick1991/vaxbooking/internal/cache"
	"github.com/Domenick1991/vaxbooking/internal/catalog"
	"github.com/Domenick1991/vaxbooking/internal/kafka"
	"github.com/Domenick1991/vaxbooking/internal/repository"
	"github.com/Domenick1991/vaxbooking/internal/service/booking"
	"github.com/Domenick1991/vaxbooking/internal/service/clinical"
	"github.com/Domenick1991/vaxbooking/internal/service/payment"
	"github.com/Domenick1991/vaxbooking/internal/service/staffing"
	"github.com/Domenick1991/vaxbooking/internal/statemachine"
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

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Catalog.CacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	intentRepo := repository.NewPaymentIntentRepository(pool)
	staffRepo := repository.NewStaffAssignmentRepository(pool)
	recordRepo := repository.NewClinicalRecordRepository(pool)

	machine := statemachine.NewMachine(bookingRepo, producer, cfg.Kafka.BookingEventsTopic)
	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, redisCache)

	bookingService := booking.NewBookingService(
		bookingRepo,
		orderRepo,
		catalogClient,
		machine,
		producer,
		cfg.Kafka.BookingEventsTopic,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	paymentService := payment.NewPaymentService(
		orderRepo,
		intentRepo,
		bookingRepo,
		machine,
		producer,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Payment.IntentTTLMinutes)*time.Minute,
		payment.WithConfirmationCache(redisCache, time.Duration(cfg.Payment.ConfirmationTTLMinutes)*time.Minute),
	)
	staffingService := staffing.NewStaffingService(bookingRepo, staffRepo, machine)
	clinicalService := clinical.NewClinicalService(bookingRepo, orderRepo, staffRepo, recordRepo, machine)

	err = bootstrap.Run(ctx, cfg, bootstrap.Services{
		Bookings: bookingService,
		Payments: paymentService,
		Staffing: staffingService,
		Clinical: clinicalService,
	})
	if err != nil {
		log.Fatalf("server error: %v", err)
	}
}
