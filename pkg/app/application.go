package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bookline/pkg/config"
	"bookline/pkg/contracts"
	"bookline/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

// Worker is a background task with explicit lifecycle, started before the
// server accepts traffic and stopped during graceful shutdown.
type Worker interface {
	Start()
	Stop()
}

// Closer is a resource flushed and released during graceful shutdown,
// once the server has drained and the workers are stopped.
type Closer interface {
	Close() error
}

type Application struct {
	cfg     *config.Config
	server  *http.Server
	workers []Worker
	closers []Closer
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

func (a *Application) AddWorker(w Worker) {
	a.workers = append(a.workers, w)
}

func (a *Application) AddCloser(c Closer) {
	a.closers = append(a.closers, c)
}

// SetApp wires the routers. Health endpoints carry only recovery and
// logging; everything else spends an admission token before any request
// shaping, so a drained bucket answers before validation gets a look.
func (a *Application) SetApp(appHandler, healthHandler contracts.Handler, bucket middleware.TokenConsumer) {
	healthRouter := httprouter.New()
	healthHandler.RegisterRoutes(healthRouter)

	var healthHTTP http.Handler = healthRouter
	healthHTTP = middleware.RequestLogging(a.cfg.Log)(healthHTTP)
	healthHTTP = middleware.Recovery(a.cfg.Log)(healthHTTP)

	appRouter := httprouter.New()
	appHandler.RegisterRoutes(appRouter)

	var appHTTP http.Handler = appRouter
	appHTTP = middleware.ContentTypeValidation(a.cfg.Log)(appHTTP)
	appHTTP = middleware.Admission(bucket, a.cfg.RetryAfter, a.cfg.Log)(appHTTP)
	appHTTP = middleware.RequestLogging(a.cfg.Log)(appHTTP)
	appHTTP = middleware.Recovery(a.cfg.Log)(appHTTP)

	mux := http.NewServeMux()
	mux.Handle("/health", healthHTTP)
	mux.Handle("/ready", healthHTTP)
	mux.Handle("/", appHTTP)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      http.MaxBytesHandler(mux, int64(a.cfg.MaxRequestSize)),
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	for _, w := range a.workers {
		w.Start()
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	for _, w := range a.workers {
		w.Stop()
	}
	a.cfg.Log.Info("Background workers stopped")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.cfg.Log.Error("Failed to close resource", "error", err)
		}
	}

	a.cfg.GracefulShutdown()
	a.cfg.Log.Info("Server stopped gracefully")
}
