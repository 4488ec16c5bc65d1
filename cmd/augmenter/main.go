package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ds124wfegd/randaug/config"
	"github.com/ds124wfegd/randaug/internal/appServer"
	"github.com/ds124wfegd/randaug/internal/database"
	"github.com/ds124wfegd/randaug/internal/pkg/kafka"
	"github.com/ds124wfegd/randaug/internal/pkg/metrics"
	"github.com/ds124wfegd/randaug/internal/pkg/processor"
	"github.com/ds124wfegd/randaug/internal/pkg/storage"
	"github.com/ds124wfegd/randaug/internal/pkg/transforms"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	v, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %s", err.Error())
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		logrus.Fatalf("failed to parse config: %s", err.Error())
	}

	table, err := appServer.PolicyTable(cfg.Augment)
	if err != nil {
		logrus.Fatalf("failed to load policy file: %s", err.Error())
	}

	var m *metrics.AugmentMetrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
		addr := config.GetEnv("METRICS_ADDR", ":9100")
		go func() {
			if err := http.ListenAndServe(addr, m.Handler()); err != nil {
				logrus.WithError(err).Error("metrics endpoint stopped")
			}
		}()
	}

	brokers := strings.Split(config.GetEnv("KAFKA_BROKERS", strings.Join(cfg.Kafka.Brokers, ",")), ",")
	consumer := kafka.NewConsumer(
		brokers,
		config.GetEnv("KAFKA_TOPIC", cfg.Kafka.Topic),
		config.GetEnv("KAFKA_GROUP_ID", cfg.Kafka.GroupID),
	)
	defer consumer.Close()

	repo := database.NewImageRepository(storage.NewFileStorage(cfg.Storage.BasePath))
	proc := processor.NewAugmentProcessor(repo, transforms.Library(), table, m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logrus.WithFields(logrus.Fields{"brokers": brokers, "workers": cfg.Augment.Workers}).Info("augmenter consumer started")
	if err := processor.Run(ctx, consumer, proc, cfg.Augment.Workers); err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Error("augmenter stopped")
	}
	logrus.Info("augmenter shut down")
}
