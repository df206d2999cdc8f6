// Command notifier materializes notification.created events from Kafka into
// the notification feed.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campuschat/internal/infra/broker/kafka"
	"campuschat/internal/infra/config"
	mongostore "campuschat/internal/infra/db/mongo"
	"campuschat/internal/infra/inbox"
	"campuschat/internal/infra/obs"
)

const (
	consumerName      = "notification-feed"
	inboxRetention    = 7 * 24 * time.Hour
	notificationTopic = "notification.events.v1"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Getenv("APP_ENV")).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env).With("component", "notifier")
	if cfg.MongoURI == "" || len(cfg.KafkaBrokers) == 0 {
		logger.Error("notifier requires MONGO_URI and KAFKA_BROKERS")
		os.Exit(1)
	}

	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connect failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Close(closeCtx)
	}()

	feed, err := mongostore.NewNotificationFeed(ctx, client.DB)
	if err != nil {
		logger.Error("notification feed init failed", "error", err)
		os.Exit(1)
	}
	store, err := inbox.NewStore(ctx, client.DB, consumerName, inboxRetention)
	if err != nil {
		logger.Error("inbox init failed", "error", err)
		os.Exit(1)
	}

	processor := &inbox.NotificationProcessor{Inbox: store, Feed: feed, Logger: logger}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, processor)
	if err != nil {
		logger.Error("kafka consumer init failed", "error", err)
		os.Exit(1)
	}
	consumer.Backoff = cfg.RetryBackoff
	consumer.Logger = logger
	defer consumer.Close()

	topic := cfg.KafkaTopicPrefix + notificationTopic
	logger.Info("notifier consuming", "topic", topic, "group", cfg.KafkaGroupID)
	if err := consumer.Run(ctx, []string{topic}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("notifier stopped")
}
