// launching the server, storage, kafka producer and metrics
package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/randaug/config"
	"github.com/ds124wfegd/randaug/internal/augment"
	"github.com/ds124wfegd/randaug/internal/database"
	"github.com/ds124wfegd/randaug/internal/entity"
	"github.com/ds124wfegd/randaug/internal/pkg/kafka"
	"github.com/ds124wfegd/randaug/internal/pkg/metrics"
	"github.com/ds124wfegd/randaug/internal/pkg/storage"
	"github.com/ds124wfegd/randaug/internal/pkg/transforms"
	"github.com/ds124wfegd/randaug/internal/service"
	"github.com/ds124wfegd/randaug/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// PolicyTable loads the configured policy file, or returns nil so every
// variant keeps its built-in table.
func PolicyTable(cfg config.AugmentConfig) (*augment.Table, error) {
	if cfg.PolicyFile == "" {
		return nil, nil
	}
	table, err := cfg.Table()
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// DefaultParams turns the augment config into the parameters uploads start from.
func DefaultParams(cfg config.AugmentConfig) entity.Params {
	params := entity.Params{
		Variant:   cfg.Variant,
		N:         cfg.N,
		M:         cfg.M,
		FillColor: cfg.FillColor,
		Copies:    cfg.Copies,
	}
	if cfg.Seed != 0 {
		seed := cfg.Seed
		params.Seed = &seed
	}
	return params
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(new(logrus.JSONFormatter))

	table, err := PolicyTable(cfg.Augment)
	if err != nil {
		logrus.Fatalf("failed to load policy file: %s", err.Error())
	}

	var m *metrics.AugmentMetrics
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
		metricsHandler = m.Handler()
	}

	fileStorage := storage.NewFileStorage(cfg.Storage.BasePath)
	imgRepo := database.NewImageRepository(fileStorage)
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()
	limits := entity.Limits{MaxN: cfg.Augment.MaxN, MaxCopies: cfg.Augment.MaxCopies}
	augService := service.NewAugmentService(imgRepo, producer, transforms.Library(), table, DefaultParams(cfg.Augment), limits, m)
	imgHandler := transport.NewImageHandler(augService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(imgHandler, metricsHandler)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}

}
