package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/phrasedash/go-socket-phrasedash/internal/db"
	"github.com/phrasedash/go-socket-phrasedash/internal/game"
	"github.com/phrasedash/go-socket-phrasedash/internal/handlers"
	"github.com/phrasedash/go-socket-phrasedash/internal/store"
)

func init() {
	godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if os.Getenv("DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func enableCORS(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := os.Getenv("CORS_ORIGIN")
		if origin == "" {
			origin = "http://localhost:3000"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := game.Config{}

	// Both external collaborators are advisory: a missing or failing redis
	// or mongo never changes observable coordinator behavior.
	var roomStore *store.RedisStore
	if url := os.Getenv("REDIS_URL"); url != "" {
		var err error
		roomStore, err = store.NewRedisStore(url)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing without advisory persistence")
		} else if err := roomStore.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, continuing without advisory persistence")
			roomStore = nil
		}
	}
	if roomStore != nil {
		cfg.Store = roomStore
	}

	if uri := os.Getenv("MONGO_URI"); uri != "" {
		if err := db.Connect(uri); err != nil {
			log.Warn().Err(err).Msg("mongo unavailable, using built-in phrase corpus")
		} else {
			cfg.Phrase = db.NewPhraseBuffer(ctx, 4).Next
		}
	}

	server := handlers.NewServer(cfg)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: enableCORS(server.Routes()),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-stop
		log.Info().Msg("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		httpServer.Shutdown(shutdownCtx)
		if roomStore != nil {
			roomStore.Close()
		}
		db.Disconnect(shutdownCtx)
		cancel()
	}()

	log.Info().Str("port", port).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}
