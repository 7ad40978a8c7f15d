package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "modernc.org/sqlite"

	"github.com/manzanit0/storefront/cmd/storefront/api"
	"github.com/manzanit0/storefront/pkg/account"
	"github.com/manzanit0/storefront/pkg/config"
	"github.com/manzanit0/storefront/pkg/diagnostics"
	"github.com/manzanit0/storefront/pkg/dummyjson"
	"github.com/manzanit0/storefront/pkg/geocode"
	"github.com/manzanit0/storefront/pkg/location"
	"github.com/manzanit0/storefront/pkg/logger"
	"github.com/manzanit0/storefront/pkg/metrics"
	"github.com/manzanit0/storefront/pkg/viewer"
	"github.com/manzanit0/storefront/pkg/whttp"
)

const ServiceName = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	logger.InitGlobalSlog(ServiceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recorder, failures, closeDB, err := newRecorder(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer closeDB()

	m := metrics.New(prometheus.DefaultRegisterer)
	httpClient := whttp.NewLoggingClient(cfg.Debug)
	policy := whttp.Policy{Timeout: cfg.CallTimeout}
	shop := dummyjson.NewClient(httpClient, cfg.DummyJSONURL)

	resolver, err := newResolver(cfg, httpClient, policy, m)
	if err != nil {
		panic(err)
	}

	viewers := api.NewViewerController(func() *viewer.Viewer {
		return viewer.New(shop, resolver,
			viewer.WithRecorder(recorder),
			viewer.WithPolicy(policy),
			viewer.WithMetrics(m),
			viewer.WithDefaultLabel(cfg.DefaultLocationLabel))
	}, nil, cfg.ViewerIdleTimeout)
	defer viewers.CloseAll()

	go viewers.RunSweeper(ctx)

	r := newRouter(controllers{
		viewers:     viewers,
		location:    api.NewLocationController(resolver, cfg.DefaultLocationLabel),
		accounts:    api.NewAccountController(account.NewService(shop, policy, cfg.LoginExpiresInMins)),
		diagnostics: api.NewDiagnosticsController(failures),
	}, promhttp.Handler(), cfg.Debug)

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: r}
	go func() {
		slog.Info(fmt.Sprintf("serving HTTP on :%s", cfg.Port))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server shutdown abruptly", "error", err.Error())
		} else {
			slog.Info("server shutdown gracefully")
		}

		stop()
	}()

	// Listen for OS interrupt
	<-ctx.Done()
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err.Error())
	}

	slog.Info("server exited")
}

func newResolver(cfg *config.Config, h *http.Client, policy whttp.Policy, m *metrics.Metrics) (*location.Resolver, error) {
	var permissions location.Permissions
	switch cfg.LocationPermission {
	case config.PermissionPrompt:
		return nil, fmt.Errorf("LOCATION_PERMISSION=prompt needs a terminal, use granted or denied for the server")
	default:
		permissions = location.StaticPermissions(location.PermissionStatus(cfg.LocationPermission))
	}

	var positioner location.Positioner
	switch cfg.PositionSource {
	case config.PositionStatic:
		positioner = location.StaticPositioner(geocode.Coordinate{Latitude: cfg.StaticLatitude, Longitude: cfg.StaticLongitude})
	default:
		positioner = location.NewIPAPIPositioner(h, cfg.IPAPIURL)
	}

	geocoder := geocode.NewOpenstreetmapClient(cfg.NominatimURL)

	return location.NewResolver(permissions, positioner, geocoder,
		location.WithPolicy(policy),
		location.WithMetrics(m)), nil
}

// newRecorder returns a nil lister when failures are only logged.
func newRecorder(ctx context.Context, cfg *config.Config) (diagnostics.Recorder, api.FailureLister, func(), error) {
	if cfg.DiagnosticsDriver == "" {
		return diagnostics.LogRecorder{}, nil, func() {}, nil
	}

	db, err := sql.Open(cfg.DiagnosticsDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unable to open db conn: %w", err)
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing db connection", "error", err.Error())
		}
	}

	if err := db.PingContext(ctx); err != nil {
		closeDB()
		return nil, nil, nil, fmt.Errorf("unable to ping database: %w", err)
	}

	slog.Info("connected to the database successfully", "driver", cfg.DiagnosticsDriver)

	recorder := diagnostics.NewSQLRecorder(db, cfg.DiagnosticsDriver, nil)
	if err := recorder.Migrate(ctx); err != nil {
		closeDB()
		return nil, nil, nil, err
	}

	return recorder, recorder, closeDB, nil
}
