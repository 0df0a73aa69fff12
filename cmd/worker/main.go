package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/vaxbooking/config"
	"github.com/Domenick1991/vaxbooking/internal/email"
	"github.com/Domenick1991/vaxbooking/internal/kafka"
	"github.com/Domenick1991/vaxbooking/internal/repository"
	"github.com/Domenick1991/vaxbooking/internal/service/payment"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	intentRepo := repository.NewPaymentIntentRepository(pool)

	machine := statemachine.NewMachine(bookingRepo, producer, cfg.Kafka.BookingEventsTopic)
	paymentService := payment.NewPaymentService(
		orderRepo,
		intentRepo,
		bookingRepo,
		machine,
		producer,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Payment.IntentTTLMinutes)*time.Minute,
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, emailSender.Send); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	sweepTicker := time.NewTicker(time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute)
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			expired, err := paymentService.ExpireStaleIntents(ctx)
			if err != nil {
				log.Printf("expire intents error: %v", err)
				continue
			}
			if len(expired) > 0 {
				log.Printf("expired %d payment intents", len(expired))
			}
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}
