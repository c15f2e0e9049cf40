package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/wassimhassan/backend/internal/auth"
	"github.com/wassimhassan/backend/internal/chat"
	"github.com/wassimhassan/backend/internal/config"
	availGet "github.com/wassimhassan/backend/internal/http-server/handlers/availability/get"
	availRemove "github.com/wassimhassan/backend/internal/http-server/handlers/availability/remove"
	availSet "github.com/wassimhassan/backend/internal/http-server/handlers/availability/set"
	authLogin "github.com/wassimhassan/backend/internal/http-server/handlers/auth/login"
	authSignup "github.com/wassimhassan/backend/internal/http-server/handlers/auth/signup"
	bookingCancel "github.com/wassimhassan/backend/internal/http-server/handlers/bookings/cancel"
	bookingConfirm "github.com/wassimhassan/backend/internal/http-server/handlers/bookings/confirm"
	bookingCreate "github.com/wassimhassan/backend/internal/http-server/handlers/bookings/create"
	bookingGet "github.com/wassimhassan/backend/internal/http-server/handlers/bookings/get"
	chatHistory "github.com/wassimhassan/backend/internal/http-server/handlers/chat/history"
	chatSend "github.com/wassimhassan/backend/internal/http-server/handlers/chat/send"
	chatWs "github.com/wassimhassan/backend/internal/http-server/handlers/chat/ws"
	subCreate "github.com/wassimhassan/backend/internal/http-server/handlers/subscriptions/create"
	subGet "github.com/wassimhassan/backend/internal/http-server/handlers/subscriptions/get"
	"github.com/wassimhassan/backend/internal/lock"
	svc "github.com/wassimhassan/backend/internal/service"
	"github.com/wassimhassan/backend/internal/storage/postgres"
	slogpretty "github.com/wassimhassan/backend/pkg/handlers/slogPretty"
	"github.com/wassimhassan/backend/pkg/middleware/mwAuth"
	"github.com/wassimhassan/backend/pkg/middleware/mwLogger"
	"github.com/wassimhassan/backend/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
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

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	service := svc.NewService(storage, locker, tokens)
	chatService := chat.NewService(storage)
	hub := chat.NewHub()

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Public
	router.Post("/auth/signup", authSignup.New(log, service))
	router.Post("/auth/login", authLogin.New(log, service))
	router.Get("/availability/{trainerId}", availGet.New(log, service))
	router.Get("/ws", chatWs.New(log, tokens, hub, chatService))

	// Authenticated
	router.Group(func(r chi.Router) {
		r.Use(mwAuth.New(tokens))

		// Bookings
		r.Post("/book-session", bookingCreate.New(log, service))
		r.Get("/bookings", bookingGet.New(log, service))
		r.Post("/bookings/{id}/confirm", bookingConfirm.New(log, service))
		r.Delete("/bookings/{id}", bookingCancel.New(log, service))

		// Availability
		r.Post("/availability", availSet.New(log, service))
		r.Delete("/availability/{trainerId}/{day}", availRemove.New(log, service))

		// Subscriptions
		r.Post("/subscriptions", subCreate.New(log, service))
		r.Get("/subscriptions/me", subGet.New(log, service))

		// Chat
		r.Get("/chat/{userA}/{userB}", chatHistory.New(log, chatService))
		r.Post("/chat/send", chatSend.New(log, chatService))
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

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
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
