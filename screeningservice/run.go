// Package screeningservice wires the screening service together and runs its
// HTTP server.
package screeningservice

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/complyline/screening/internal/api"
	"github.com/complyline/screening/internal/api/recovery"
	"github.com/complyline/screening/internal/blobstore"
	"github.com/complyline/screening/internal/capture"
	"github.com/complyline/screening/internal/config"
	"github.com/complyline/screening/internal/health"
	"github.com/complyline/screening/internal/logger"
	"github.com/complyline/screening/internal/risk"
	"github.com/complyline/screening/internal/sanctionsmap"
	"github.com/complyline/screening/internal/screening"
	"github.com/complyline/screening/internal/watchlist"
)

// Run starts the screening service HTTP server and blocks until shutdown or
// error.
func Run() error {
	log := logger.New("screening-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	ctx, stop := newServerContext()
	defer stop()

	deps := initDependencies(cfg, log)

	// Warm the watchlist cache at startup; a failure is non-fatal because
	// screening degrades that source per request.
	go func() {
		if _, err := deps.watchlist.EnsureFresh(ctx); err != nil {
			log.Warn().Err(err).Msg("watchlist warm-up failed; first request will retry")
		} else {
			log.Info().Msg("watchlist ready for screening")
		}
	}()

	svcHealth := startHealthCheckers(ctx, cfg, log, deps)
	router := buildRouter(deps, svcHealth)

	server := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// Screenings carry two browser captures; write generously.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}
}

// dependencies bundles the orchestrator's collaborators for wiring.
type dependencies struct {
	registry     *sanctionsmap.Client
	watchlist    *watchlist.Manager
	orchestrator *screening.Orchestrator
	store        *blobstore.SpacesStore
}

// initDependencies constructs collaborators. A missing artifact-store
// configuration leaves evidence persistence degraded rather than failing
// startup; everything else always constructs.
func initDependencies(cfg *config.Config, log zerolog.Logger) *dependencies {
	registry := sanctionsmap.New(cfg.SanctionsMapBaseURL, cfg.RegistryTimeout(), log)

	var store *blobstore.SpacesStore
	var mirror watchlist.Mirror
	if cfg.SpacesEndpoint != "" {
		s, err := blobstore.NewSpacesStore(cfg.SpacesEndpoint, cfg.SpacesRegion, cfg.SpacesKey, cfg.SpacesSecret, cfg.SpacesBucket)
		if err != nil {
			log.Warn().Err(err).Msg("artifact store unavailable; evidence persistence degraded")
		} else {
			store = s
			mirror = s
		}
	} else {
		log.Warn().Msg("artifact store not configured; evidence persistence degraded")
	}

	wl := watchlist.NewManager(cfg.ConsolidatedURL, cfg.CacheDir, cfg.FetchTimeout(), mirror, log)
	scorer := risk.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, log)
	renderer := capture.NewChromeRenderer(cfg.CaptureTimeout())
	settle := time.Duration(cfg.CaptureSettleMillis) * time.Millisecond

	var artifactStore screening.ArtifactStore
	if store != nil {
		artifactStore = store
	}
	orch := screening.New(registry, wl, scorer, artifactStore, renderer, cfg.PresignTTL(), settle, log)

	return &dependencies{registry: registry, watchlist: wl, orchestrator: orch, store: store}
}

// buildRouter wires HTTP routes to handlers.
func buildRouter(deps *dependencies, svcHealth *health.ServiceHealthChecker) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	screeningHandler := api.NewScreeningHandler(deps.orchestrator)
	root.HandleFunc("/api/screenings", screeningHandler.CreateScreening).Methods("POST")

	healthHandler := api.NewHealthHandler(deps.watchlist, svcHealth.IsHealthy)
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	root.HandleFunc("/", api.ServiceInfo).Methods("GET")

	return root
}

// startHealthCheckers starts component checkers and the aggregate whose flag
// backs the health endpoint.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, deps *dependencies) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	var checkers []health.HealthChecker
	registryChecker := health.NewComponentChecker("sanctionsmap", deps.registry, probeTimeout, log)
	go registryChecker.Start(ctx, interval)
	checkers = append(checkers, registryChecker)

	if deps.store != nil {
		storeChecker := health.NewComponentChecker("blobstore", deps.store, probeTimeout, log)
		go storeChecker.Start(ctx, interval)
		checkers = append(checkers, storeChecker)
	}

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// newServerContext returns a context cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
