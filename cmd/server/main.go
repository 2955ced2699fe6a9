// cmd/server is the application entry point. It wires together all
// layers and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusevents/internal/audit"
	"campusevents/internal/auth"
	"campusevents/internal/config"
	"campusevents/internal/database"
	"campusevents/internal/handler"
	"campusevents/internal/notify"
	"campusevents/internal/repository"
	"campusevents/internal/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	initDB := flag.Bool("init-db", false, "create database tables and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := newLogger(cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.DSN(), log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer pool.Close()
	log.Info("connected to postgres")

	if *initDB {
		if err := database.InitSchema(ctx, pool); err != nil {
			log.Fatal("init schema", zap.Error(err))
		}
		log.Info("database initialised")
		return
	}

	mongoClient, err := database.NewMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal("mongo", zap.Error(err))
	}
	defer func() { _ = mongoClient.Disconnect(ctx) }()
	log.Info("connected to mongo")

	redisClient, err := database.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to redis")

	// Wire up layers.
	userRepo := repository.NewUserRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	recorder := audit.NewMongoRecorder(mongoClient, cfg.MongoDB, "server", log)
	tokens := auth.NewTokenManager(cfg.JWTSecret)
	refreshStore := auth.NewRedisRefreshStore(redisClient)
	mailer := notify.NewTicketMailer(
		cfg.QRFunctionURL, cfg.QRFunctionSecret,
		cfg.EmailFunctionURL, cfg.EmailFunctionSecret,
		log,
	)

	authSvc := service.NewAuthService(userRepo, tokens, refreshStore, recorder, log)
	eventSvc := service.NewEventService(eventRepo, recorder, log)
	bookingSvc := service.NewBookingService(bookingRepo, eventRepo, userRepo, recorder, mailer, log)

	authHandler := handler.NewAuthHandler(authSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)

	// Build the router.
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.RequestLogger(log))

	r.Get("/health", handler.HealthCheck)
	r.Get("/config", handler.ClientConfig(cfg.MapsAPIKey))

	authLimiter := handler.NewRateLimiter(1, 5) // per-IP, 1/s with burst 5
	r.Route("/auth", func(r chi.Router) {
		r.Use(authLimiter.Limit)
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.With(auth.RequireAuth(tokens)).Post("/logout", authHandler.Logout)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.List)
		r.Get("/{id}", eventHandler.Get)
		r.With(auth.RequireAuth(tokens)).Post("/", eventHandler.Create)
		r.With(auth.RequireAuth(tokens)).Post("/{id}/book", bookingHandler.Book)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/", bookingHandler.Mine)
		r.Get("/{id}/ticket.pdf", bookingHandler.Ticket)
	})

	corsHandler := handler.CORS()(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	// Run in a background goroutine so we can listen for the shutdown
	// signal.
	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("graceful shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}

func newLogger(env string) *zap.Logger {
	var log *zap.Logger
	var err error
	if env == "production" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return log
}
