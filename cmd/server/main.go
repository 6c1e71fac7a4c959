// Command server runs the clinic license verification and registry sync
// service. main wires dependencies and owns process lifecycle; business logic
// lives in the internal packages.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"sijil/internal/clinic/cache"
	clinicmetrics "sijil/internal/clinic/metrics"
	clinicstore "sijil/internal/clinic/store"
	"sijil/internal/feed"
	"sijil/internal/feed/kafkafeed"
	feedmetrics "sijil/internal/feed/metrics"
	"sijil/internal/feed/pgfeed"
	"sijil/internal/feed/redisfeed"
	"sijil/internal/notify"
	"sijil/internal/platform/config"
	"sijil/internal/platform/httpserver"
	"sijil/internal/platform/logger"
	"sijil/internal/platform/postgres"
	platformredis "sijil/internal/platform/redis"
	httptransport "sijil/internal/transport/http"
	"sijil/internal/verify"
	verifymetrics "sijil/internal/verify/metrics"
	verifystore "sijil/internal/verify/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sijil: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	clinics := clinicstore.NewPostgres(db)
	attempts := verifystore.NewPostgres(db)

	registry := cache.New(clinics, log,
		cache.WithMetrics(clinicmetrics.New()),
		cache.WithBaseContext(ctx),
		cache.WithRefreshTimeout(cfg.RefreshTimeout),
	)

	changeFeed, closeFeed, err := buildFeed(cfg, log)
	if err != nil {
		return err
	}
	defer closeFeed()

	reconciler := feed.NewReconciler(
		changeFeed,
		registry,
		notify.Log{Logger: log},
		log,
		[]string{"clinics"},
		feed.WithMetrics(feedmetrics.New()),
	)

	verifier := verify.NewService(clinics, attempts, log,
		verify.WithMetrics(verifymetrics.New()),
	)

	handler := httptransport.NewHandler(verifier, registry, attempts, reconciler, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	// Warm the snapshot before serving; a cold store is not fatal, the first
	// change event or manual sync fills it in.
	if err := registry.Refresh(ctx); err != nil {
		log.Warn("initial registry refresh failed", "error", err)
	}

	if err := reconciler.Subscribe(ctx); err != nil {
		log.Warn("change feed unavailable at startup", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting sijil", "addr", cfg.Addr, "feed_driver", cfg.FeedDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		supervise(ctx, reconciler, cfg.ResubscribeDelay, log)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		reconciler.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// supervise re-subscribes the reconciler after subscription failures. The
// reconciler itself never reconnects; whether to retry is an ownership
// decision, and this process chooses a fixed delay.
func supervise(ctx context.Context, r *feed.Reconciler, delay time.Duration, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-r.Err():
			log.Error("change feed disconnected", "error", err)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			if err := r.Subscribe(ctx); err != nil {
				log.Warn("change feed re-subscribe failed", "error", err)
				continue
			}
			log.Info("change feed re-subscribed")
			break
		}
	}
}

func buildFeed(cfg config.Server, log *slog.Logger) (feed.Feed, func(), error) {
	switch cfg.FeedDriver {
	case config.FeedPostgres:
		return pgfeed.New(cfg.DatabaseURL, log), func() {}, nil
	case config.FeedRedis:
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, fmt.Errorf("redis feed driver requires SIJIL_REDIS_URL")
		}
		return redisfeed.New(client.Client, log), func() { _ = client.Close() }, nil
	case config.FeedKafka:
		return kafkafeed.New(kafkafeed.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			Group:   cfg.Kafka.Group,
		}, log), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown feed driver %q", cfg.FeedDriver)
	}
}
