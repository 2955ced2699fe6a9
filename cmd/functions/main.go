// cmd/functions serves the auxiliary HTTP functions (ticket QR,
// booking email, check-in validation) as one small binary. In cloud
// deployments each route maps to an HTTP-triggered function.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusevents/internal/audit"
	"campusevents/internal/config"
	"campusevents/internal/database"
	"campusevents/internal/functions"
	"campusevents/internal/repository"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
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

	mongoClient, err := database.NewMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal("mongo", zap.Error(err))
	}
	defer func() { _ = mongoClient.Disconnect(ctx) }()

	recorder := audit.NewMongoRecorder(mongoClient, cfg.MongoDB, "functions", log)
	bookingRepo := repository.NewBookingRepository(pool)

	qr := functions.NewQRHandler(cfg.QRFunctionSecret)
	email := functions.NewEmailHandler(cfg.EmailFunctionSecret, cfg.SendGridAPIKey, cfg.SendGridFrom, log)
	checkin := functions.NewCheckinHandler(cfg.CheckinSecret, bookingRepo, recorder)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Post("/qr", qr.ServeHTTP)
	r.Post("/email", email.ServeHTTP)
	r.Post("/checkin", checkin.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("functions listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("graceful shutdown failed", zap.Error(err))
	}
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
