package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/festivo/vendorbooking/config"
	"github.com/festivo/vendorbooking/internal/kafka"
	"github.com/festivo/vendorbooking/internal/notify"
	"github.com/joho/godotenv"
)

// The worker drains the notifications topic and hands each event to the
// delivery edge. Notification delivery is fire-and-forget from the core's
// point of view; a failed send never touches booking state.
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

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := notify.NewSender()

	if err := consumer.Consume(ctx, func(ctx context.Context, event kafka.BookingEvent) error {
		if err := sender.Send(ctx, event); err != nil {
			log.Printf("send notification for booking %s: %v", event.BookingID, err)
		}
		return nil
	}); err != nil && ctx.Err() == nil {
		log.Printf("consumer stopped: %v", err)
	}
}
