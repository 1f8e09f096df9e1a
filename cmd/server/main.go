package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/example/delivery-dispatch/internal/assignment"
	"github.com/example/delivery-dispatch/internal/clock"
	"github.com/example/delivery-dispatch/internal/config"
	"github.com/example/delivery-dispatch/internal/dispatch"
	"github.com/example/delivery-dispatch/internal/eta"
	"github.com/example/delivery-dispatch/internal/geo"
	httpapi "github.com/example/delivery-dispatch/internal/http"
	"github.com/example/delivery-dispatch/internal/ingest"
	"github.com/example/delivery-dispatch/internal/logging"
	"github.com/example/delivery-dispatch/internal/matcher"
	"github.com/example/delivery-dispatch/internal/notify"
	"github.com/example/delivery-dispatch/internal/observability"
	"github.com/example/delivery-dispatch/internal/payments"
	"github.com/example/delivery-dispatch/internal/registry"
	"github.com/example/delivery-dispatch/internal/storage"
	"github.com/example/delivery-dispatch/internal/zone"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.ServerConfig, logger *logrus.Logger) error {
	clk := clock.NewSystem()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var (
		readyChecks []func(context.Context) error
		nearby      httpapi.NearbyRiders
	)

	regOpts := []registry.Option{
		registry.WithClock(clk),
		registry.WithLogger(logger),
		registry.WithStaleAfter(cfg.StaleAfter),
	}
	if cfg.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rc.Close()
		mirror := geo.NewRedisMirror(rc, cfg.RedisGeoKey, cfg.StaleAfter)
		regOpts = append(regOpts, registry.WithMirror(mirror))
		nearby = mirror
		readyChecks = append(readyChecks, func(ctx context.Context) error { return rc.Ping(ctx).Err() })
		logger.WithField("addr", cfg.RedisAddr).Info("mirroring rider locations to redis")
	}
	riders := registry.New(store, regOpts...)
	observability.RegisterRidersOnline(riders.OnlineCount)

	policy := matcher.Policy{
		MaxDistanceM:        cfg.MaxDistanceM,
		PrioritizeProximity: cfg.PrioritizeProximity,
		PrioritizeRating:    cfg.PrioritizeRating,
	}
	selector := matcher.NewSelector(riders, store, policy, logger)

	estimator := &eta.Routed{Cache: eta.NewCache(cfg.ETACacheTTL), Fallback: eta.Straight{SpeedMps: cfg.ETASpeedMps}}
	if cfg.OSRMURL != "" {
		estimator.Client = eta.NewOSRMClient(cfg.OSRMURL)
	}

	hub := notify.NewHub(logger)
	defer hub.Close()

	sinks := []notify.Sink{{Name: "ws", Notifier: hub}}
	if len(cfg.KafkaBrokers) > 0 {
		pub := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic)
		defer pub.Close()
		sinks = append(sinks, notify.Sink{Name: "kafka", Notifier: pub})
	}
	if cfg.StripeAPIKey != "" {
		sinks = append(sinks, notify.Sink{Name: "stripe", Notifier: payments.NewSettler(payments.NewStripeClient(cfg.StripeAPIKey), logger)})
	}
	events := notify.NewFanout(cfg.EventQueueSize, 0, logger, sinks...)

	coord := assignment.NewCoordinator(riders, selector,
		assignment.WithClock(clk),
		assignment.WithLogger(logger),
		assignment.WithOfferTimeout(cfg.OfferTimeout),
		assignment.WithMaxAttempts(cfg.MaxAttempts),
		assignment.WithStore(store),
		assignment.WithNotifier(events),
		assignment.WithOfferSender(hub),
		assignment.WithETA(estimator),
		assignment.WithRequeue(dispatch.RequeueNotifier(events, clk, logger)),
	)
	defer coord.Close()

	zones := zone.NewCatalog(store, clk, logger)
	if err := zones.Refresh(ctx); err != nil {
		return err
	}
	go zones.Run(ctx, cfg.ZoneRefreshInterval)

	svc := dispatch.NewService(zones, riders, coord, clk, logger,
		dispatch.WithDefaultDeliveryFee(cfg.DefaultDeliveryFee),
		dispatch.WithAutoAssign(cfg.AssignmentEnabled),
		dispatch.WithPolicySource(selector),
	)
	if !cfg.AssignmentEnabled {
		logger.Warn("auto-assignment disabled, orders will wait in CREATED")
	}
	hub.Bind(svc)
	go svc.RunRequeue(ctx, cfg.RequeueInterval, cfg.OrderRetention)

	if len(cfg.KafkaBrokers) > 0 {
		consumer := ingest.NewConsumer(ingest.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaLocationTopic, cfg.KafkaGroup), svc, logger)
		defer consumer.Close()
		go consumer.Run(ctx)
		logger.WithFields(logrus.Fields{"topic": cfg.KafkaLocationTopic, "group": cfg.KafkaGroup}).Info("consuming rider locations")
	}

	api := httpapi.NewServer(httpapi.Deps{
		Dispatch:  svc,
		Zones:     zones,
		Records:   store,
		Sockets:   hub,
		Nearby:    nearby,
		AdminKeys: cfg.AdminAPIKeys,
		Ready: func(ctx context.Context) error {
			var errs []error
			for _, check := range readyChecks {
				errs = append(errs, check(ctx))
			}
			return errors.Join(errs...)
		},
	}, logger)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("delivery-dispatch listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	if err := events.Close(shutdownCtx); err != nil {
		logger.WithError(err).Warn("event queue not drained")
	}
	return nil
}

func openStore(ctx context.Context, cfg config.ServerConfig, logger *logrus.Logger) (storage.Store, error) {
	if cfg.PGDSN == "" {
		logger.Warn("PG_DSN not set, using in-memory store")
		return storage.NewMemoryStore(), nil
	}
	pg, err := storage.NewPostgresStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := storage.Migrate(pg.DB(), logger); err != nil {
			_ = pg.Close()
			return nil, err
		}
	}
	return pg, nil
}
