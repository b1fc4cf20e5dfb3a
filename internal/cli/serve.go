package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"example.com/exercisetracker/internal/api"
	"example.com/exercisetracker/internal/config"
	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/events"
	"example.com/exercisetracker/internal/store"
	httptransport "example.com/exercisetracker/internal/transport/http"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.WithError(err).Warn("close store")
		}
	}()

	publisher := newPublisher(cfg)
	defer publisher.Close()

	logger := log.StandardLogger()
	service := domain.NewService(st, domain.WithPublisher(publisher), domain.WithLogger(logger))
	router := api.NewRouter(api.NewHandler(service, logger), api.RouterConfig{
		CORSOrigin: cfg.CORSOrigin,
		Metrics:    cfg.MetricsEnabled,
		Logger:     logger,
	})

	serverCfg := httptransport.DefaultServerConfig(cfg.Address())
	serverCfg.ShutdownTimeout = cfg.ShutdownTimeout
	if err := httptransport.Run(ctx, serverCfg, router); err != nil {
		return err
	}
	log.Info("exercise tracker stopped")
	return nil
}

func newPublisher(cfg config.Config) events.Publisher {
	if !cfg.EventsEnabled() {
		log.Debug("KAFKA_BROKERS not set, events disabled")
		return events.NoopPublisher{}
	}
	log.WithFields(log.Fields{
		"brokers": cfg.KafkaBrokers,
		"topic":   cfg.EventsTopic,
	}).Info("publishing tracker events")
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventsTopic)
}
