package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"golang.org/x/sync/errgroup"

	"github.com/davidbz/linguist/internal/admission"
	"github.com/davidbz/linguist/internal/chat"
	"github.com/davidbz/linguist/internal/config"
	"github.com/davidbz/linguist/internal/domain"
	"github.com/davidbz/linguist/internal/http"
	"github.com/davidbz/linguist/internal/http/middleware"
	loggermessenger "github.com/davidbz/linguist/internal/messenger/logger"
	redismessenger "github.com/davidbz/linguist/internal/messenger/redis"
	"github.com/davidbz/linguist/internal/observability"
	"github.com/davidbz/linguist/internal/provider"
	"github.com/davidbz/linguist/internal/provider/registry"
	"github.com/davidbz/linguist/internal/report"
	"github.com/davidbz/linguist/internal/resources"
	"github.com/davidbz/linguist/internal/routing"
)

const shutdownTimeout = 30 * time.Second

func main() {
	container := buildContainer()

	err := container.Invoke(run)
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func run(server *http.Server, service *chat.Service, redisClient *goredis.Client) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)

		drained := make(chan struct{})
		go func() {
			service.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-shutdownCtx.Done():
			observability.FromContext(shutdownCtx).Warn("analyses still running at shutdown")
		}

		if redisClient != nil {
			err = errors.Join(err, redisClient.Close())
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Invoke(func() error {
		_, err := observability.InitLogger()
		return err
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	if err := container.Provide(observability.NewMetrics); err != nil {
		log.Fatalf("Failed to provide metrics: %v", err)
	}

	// Static resources
	if err := container.Provide(func(cfg *config.ResourcesConfig) *resources.Bundle {
		return resources.Load(context.Background(), cfg.Dir)
	}); err != nil {
		log.Fatalf("Failed to provide resources: %v", err)
	}

	// Provider Registry
	if err := container.Provide(func() domain.ProviderRegistry {
		return registry.NewRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}

	// Register catalog providers (invoked for side effects)
	if err := container.Invoke(func(reg domain.ProviderRegistry, bundle *resources.Bundle) {
		// Unbuildable providers are logged and later count as failures.
		_ = provider.RegisterCatalog(context.Background(), reg, bundle.Catalog, bundle.Endpoints)
	}); err != nil {
		log.Fatalf("Failed to register providers: %v", err)
	}

	// Routing
	if err := container.Provide(func(cfg *config.DispatchConfig, metrics *observability.Metrics) *routing.FailureTracker {
		return routing.NewFailureTracker(cfg.Cooldown, metrics)
	}); err != nil {
		log.Fatalf("Failed to provide failure tracker: %v", err)
	}
	if err := container.Provide(func(cfg *config.DispatchConfig) *routing.RandomPolicy {
		return routing.NewRandomPolicy(cfg.Seed)
	}); err != nil {
		log.Fatalf("Failed to provide selection policy: %v", err)
	}

	// Domain Services
	if err := container.Provide(func(bundle *resources.Bundle, cfg *config.DenialConfig) (*domain.DenialClassifier, error) {
		script, ok := unicode.Scripts[cfg.Script]
		if !ok {
			return nil, fmt.Errorf("unknown script %q", cfg.Script)
		}
		return domain.NewDenialClassifier(bundle.Denials, script), nil
	}); err != nil {
		log.Fatalf("Failed to provide denial classifier: %v", err)
	}
	if err := container.Provide(func(
		bundle *resources.Bundle,
		reg domain.ProviderRegistry,
		tracker *routing.FailureTracker,
		policy *routing.RandomPolicy,
		denials *domain.DenialClassifier,
		cfg *config.DispatchConfig,
		metrics *observability.Metrics,
	) *domain.Dispatcher {
		return domain.NewDispatcher(bundle.Catalog, reg, tracker, policy, denials, domain.DispatchPolicy{
			MaxAttempts:    cfg.MaxAttempts,
			AttemptTimeout: cfg.AttemptTimeout,
			FastThreshold:  cfg.FastThreshold,
		}, metrics)
	}); err != nil {
		log.Fatalf("Failed to provide dispatcher: %v", err)
	}
	if err := container.Provide(func(d *domain.Dispatcher) *domain.RuleEvaluator {
		return domain.NewRuleEvaluator(d)
	}); err != nil {
		log.Fatalf("Failed to provide rule evaluator: %v", err)
	}
	if err := container.Provide(func(cfg *config.ReportsConfig) (domain.ReportStore, error) {
		store, err := report.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	}); err != nil {
		log.Fatalf("Failed to provide report store: %v", err)
	}
	if err := container.Provide(func(
		bundle *resources.Bundle,
		evaluator *domain.RuleEvaluator,
		d *domain.Dispatcher,
		store domain.ReportStore,
	) *domain.Aggregator {
		return domain.NewAggregator(bundle.Rules, bundle.Synthesis, evaluator, d, store)
	}); err != nil {
		log.Fatalf("Failed to provide aggregator: %v", err)
	}
	if err := container.Provide(admission.NewQueue); err != nil {
		log.Fatalf("Failed to provide admission queue: %v", err)
	}

	// Outbound messenger
	if err := container.Provide(func(cfg *config.RedisConfig) (*goredis.Client, error) {
		if cfg.URL == "" {
			return nil, nil
		}
		return redismessenger.NewClient(context.Background(), cfg.URL)
	}); err != nil {
		log.Fatalf("Failed to provide redis client: %v", err)
	}
	if err := container.Provide(func(cfg *config.RedisConfig, client *goredis.Client) domain.Messenger {
		if client == nil {
			observability.FromContext(context.Background()).Warn("REDIS_URL is empty, outbound messages are only logged")
			return loggermessenger.NewMessenger()
		}
		return redismessenger.NewMessenger(client, cfg.StreamPrefix, cfg.MaxLen)
	}); err != nil {
		log.Fatalf("Failed to provide messenger: %v", err)
	}

	// Chat
	if err := container.Provide(chat.NewService); err != nil {
		log.Fatalf("Failed to provide chat service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(func(s *chat.Service) http.ChatService { return s }); err != nil {
		log.Fatalf("Failed to provide chat binding: %v", err)
	}
	if err := container.Provide(func(t *routing.FailureTracker) http.FailureSnapshot { return t }); err != nil {
		log.Fatalf("Failed to provide health binding: %v", err)
	}
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
