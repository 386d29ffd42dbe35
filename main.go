package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"
	"github.com/livrarias/backend/config"
	"github.com/livrarias/backend/handlers"
	"github.com/livrarias/backend/middleware"
	"github.com/livrarias/backend/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("config")
	}

	logger := newLogger(cfg)

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		logger.Fatal().Err(err).Msg("mongodb connect")
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("mongodb disconnect")
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		logger.Fatal().Err(err).Msg("mongodb indexes")
	}
	if err := db.SyncCounters(ctx); err != nil {
		logger.Fatal().Err(err).Msg("mongodb counters")
	}
	logger.Info().Str("db", cfg.DBName).Msg("connected to MongoDB")

	booksHandler := &handlers.BooksHandler{Store: db, Log: logger}
	usersHandler := &handlers.UsersHandler{Store: db, Log: logger}
	commentsHandler := &handlers.CommentsHandler{Store: db, Log: logger}
	livrariasHandler := &handlers.LivrariasHandler{Store: db, Log: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(chimw.RealIP)
	r.Use(middleware.AllowAll())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics())
	r.Use(chimw.Recoverer)
	r.Use(httprate.LimitByIP(cfg.RateLimitRPM, time.Minute))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"welcome to livrarias."}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/books", func(r chi.Router) {
		r.Get("/", booksHandler.List)
		r.Post("/", booksHandler.Create)
		r.Get("/top/{limit}", booksHandler.TopByScore)
		r.Get("/star", booksHandler.FiveStar)
		r.Get("/comments", booksHandler.WithComments)
		r.Get("/job", booksHandler.ReviewsByJob)
		r.Get("/ratings/{order}", booksHandler.ByReviewVolume)
		r.Get("/year/{year}", booksHandler.ByYear)
		r.Get("/filter/by", booksHandler.Filter)
		r.Get("/{id}", booksHandler.Get)
		r.Put("/{id}", booksHandler.Update)
		r.Delete("/{id}", booksHandler.Delete)
	})
	r.Route("/users", func(r chi.Router) {
		r.Get("/", usersHandler.List)
		r.Post("/", usersHandler.Create)
		r.Get("/{id}", usersHandler.Get)
		r.Put("/{id}", usersHandler.Update)
		r.Delete("/{id}", usersHandler.Delete)
	})
	r.Route("/comments", func(r chi.Router) {
		r.Post("/", commentsHandler.Create)
		r.Delete("/{id}", commentsHandler.Delete)
	})
	r.Route("/livrarias", func(r chi.Router) {
		r.Get("/near", livrariasHandler.Near)
		r.Get("/count-near", livrariasHandler.CountNear)
		r.Post("/route", livrariasHandler.Route)
		r.Get("/verify-feira", livrariasHandler.VerifyFeira)
		r.Post("/{id}/books", livrariasHandler.AddBooks)
		r.Get("/{id}/books", livrariasHandler.ListBooks)
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	out := zerolog.New(os.Stdout)
	if cfg.LogFormat == "console" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return out.Level(level).With().Timestamp().Logger()
}
