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

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/drblury/mongoweaver/config"
	"github.com/drblury/mongoweaver/document"
	"github.com/drblury/mongoweaver/info"
	"github.com/drblury/mongoweaver/openapi"
	"github.com/drblury/mongoweaver/probe"
	"github.com/drblury/mongoweaver/resource"
	"github.com/drblury/mongoweaver/responder"
	"github.com/drblury/mongoweaver/router"
	"github.com/drblury/mongoweaver/store"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 20 * time.Second
	infoPrefix      = "/info"
)

// backend is the store behind the resources plus the probes describing it.
type backend struct {
	store     store.Store
	readiness []info.ProbeFunc
	close     func(context.Context) error
}

func connect(ctx context.Context, cfg *config.Config, collections []string, inMemory bool) (*backend, error) {
	if inMemory {
		return &backend{
			store: store.NewMemory(),
			close: func(context.Context) error { return nil },
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	db := client.Database(cfg.Mongo.Database)

	readiness := []info.ProbeFunc{probe.NewMongoPingProbe(client, nil)}
	if cfg.Mongo.RequireCollections {
		readiness = append(readiness, probe.NewCollectionsProbe(db, collections...))
	}
	return &backend{
		store:     store.NewMongo(db),
		readiness: readiness,
		close:     client.Disconnect,
	}, nil
}

func serve(c *cli.Context, cfg *config.Config, logger *slog.Logger, inMemory bool) error {
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	collections, err := cfg.Collections(reg)
	if err != nil {
		return err
	}

	be, err := connect(context.Background(), cfg, collections, inMemory)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := be.close(ctx); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	resources, err := cfg.Build(document.NewDatabase(reg, be.store), resource.WithLogger(logger))
	if err != nil {
		return err
	}
	hr := httprouter.New()
	resource.Mount(hr, resources...)

	doc, err := openapi.Build(resources,
		openapi.WithTitle(cfg.Server.Title),
		openapi.WithVersion(version),
	)
	if err != nil {
		return fmt.Errorf("build openapi document: %w", err)
	}

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := router.NewMetrics(metricsRegistry)
	if err != nil {
		return err
	}

	infoHandler := info.NewInfoHandler(
		info.WithInfoResponder(responder.NewResponder(responder.WithLogger(logger))),
		info.WithBaseURL(infoPrefix),
		info.WithTitle(cfg.Server.Title),
		info.WithOpenAPIDocument(doc),
		info.WithResources(resources...),
		info.WithReadinessChecks(be.readiness...),
		info.WithInfoProvider(func() any {
			return map[string]string{"name": c.App.Name, "version": version, "commit": commit}
		}),
	)

	routerOpts := []router.Option{
		router.WithLogger(logger),
		router.WithConfig(cfg.Server.Router),
		router.WithMetrics(metrics),
		router.WithHandle("/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{})),
		router.WithHandle(infoPrefix+"/", infoHandler.Handler(infoPrefix)),
	}
	if cfg.Server.ValidateRequests {
		routerOpts = append(routerOpts, router.WithSwagger(doc))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router.New(hr, routerOpts...),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return run(srv, logger)
}

// run serves until SIGINT or SIGTERM, then drains in-flight requests.
func run(srv *http.Server, logger *slog.Logger) error {
	shutdownErr := make(chan error, 1)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit
		logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(ctx)
	}()

	logger.Info("starting server", "address", srv.Addr, "version", version)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdownErr; err != nil {
		return err
	}
	logger.Info("server stopped", "address", srv.Addr)
	return nil
}
