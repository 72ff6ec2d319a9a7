package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tunelab-ai/studio/pkg/common/config"
	"github.com/tunelab-ai/studio/pkg/common/kafka"
	"github.com/tunelab-ai/studio/pkg/common/logger"
	"github.com/tunelab-ai/studio/pkg/common/models"
)

// The audit worker tails the studio event topic and writes a structured
// audit line per session lifecycle event.
func main() {
	logger.Init()
	cfg := config.Load()

	consumer := kafka.NewConsumer(cfg.StudioEventTopic, cfg.KafkaGroupID+"-audit")
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info("Shutting down audit worker...")
		cancel()
	}()

	logger.Log.WithField("topic", cfg.StudioEventTopic).Info("Audit worker started")

	err := consumer.Consume(ctx, func(ctx context.Context, event models.Event) error {
		logger.Log.WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
			"source":     event.Source,
			"data":       event.Data,
			"timestamp":  event.Timestamp,
		}).Info("Studio event")
		return nil
	})
	if err != nil && err != context.Canceled {
		logger.Log.WithError(err).Error("Audit worker stopped with error")
	}

	logger.Log.Info("Audit worker stopped")
}
