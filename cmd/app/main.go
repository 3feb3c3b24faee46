package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gym-service/internal/auth"
	"gym-service/internal/config"
	authLogin "gym-service/internal/http-server/handlers/auth/login"
	bookingCancel "gym-service/internal/http-server/handlers/bookings/cancel"
	bookingExport "gym-service/internal/http-server/handlers/bookings/export"
	bookingGet "gym-service/internal/http-server/handlers/bookings/get"
	detailDismiss "gym-service/internal/http-server/handlers/details/dismiss"
	sessionExport "gym-service/internal/http-server/handlers/sessions/export"
	sessionGet "gym-service/internal/http-server/handlers/sessions/get"
	"gym-service/internal/http-server/middleware/authn"
	"gym-service/internal/metrics"
	svc "gym-service/internal/service"
	"gym-service/internal/storage/postgres"
	slogpretty "gym-service/pkg/handlers/slogPretty"
	"gym-service/pkg/middleware/mwLogger"
	"gym-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath, cfg.StorageConn)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	authenticator, err := auth.New(cfg.RedisAddr, storage, cfg.Auth.TokenTTL)
	if err != nil {
		log.Error("Failed to init authenticator", sl.Err(err))
		os.Exit(1)
	}

	service := svc.NewService(storage)

	metrics.Register()

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	router.Post("/auth/login", authLogin.New(log, authenticator))
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(authn.New(log, authenticator))

		// Bookings
		r.Get("/bookings/export/xml/history", bookingExport.New(log, service))
		r.Get("/bookings/{id}", bookingGet.New(log, service))
		r.Put("/bookings/{id}/cancel", bookingCancel.New(log, service))

		// Sessions
		r.Get("/sessions/export/xml/weekly", sessionExport.New(log, service))
		r.Get("/sessions/{id}", sessionGet.New(log, service))

		// Detail views
		r.Post("/details/dismiss", detailDismiss.New(log, service))
	})

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	}

	if authenticator != nil {
		if err := authenticator.Close(); err != nil {
			log.Error("Failed to close authenticator", sl.Err(err))
		} else {
			log.Info("Authenticator closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
