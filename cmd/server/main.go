package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Andes-Streaming/cartwall/internal/azuracast"
	"github.com/Andes-Streaming/cartwall/internal/config"
	"github.com/Andes-Streaming/cartwall/internal/db"
	"github.com/Andes-Streaming/cartwall/internal/dispatch"
	"github.com/Andes-Streaming/cartwall/internal/events"
	"github.com/Andes-Streaming/cartwall/internal/redisx"
	"github.com/Andes-Streaming/cartwall/internal/schedule"
	"github.com/Andes-Streaming/cartwall/internal/storage"
	"github.com/Andes-Streaming/cartwall/internal/trigger"
	"github.com/Andes-Streaming/cartwall/internal/tts"
)

const cycleLockKey = "cartwall:cycle_lock"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve station timezone")
	}

	conn, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("db open")
	}
	if err := db.RunMigrations(conn, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	store := db.NewStore(conn)

	var storageSystem storage.Storage
	if cfg.UseSpaces {
		storageSystem, err = storage.NewSpacesStorage(
			cfg.SpacesEndpoint, cfg.SpacesRegion, cfg.SpacesBucket,
			cfg.SpacesCDNURL, cfg.SpacesAccessKey, cfg.SpacesSecretKey,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Spaces storage")
		}
	} else {
		storageSystem = storage.NewLocalStorage(cfg.UploadDir, cfg.PublicBaseURL)
	}

	station := azuracast.New(cfg.AzuraCastURL, cfg.AzuraCastAPIKey, cfg.AzuraCastStationID)
	synthesizer := tts.New(cfg.TTSBaseURL, cfg.TTSAPIKey)

	// Redis backs the replica cycle lock and the now-playing cache; without
	// it the server runs single-instance and polls the station directly.
	var (
		cycleLock trigger.Locker
		cache     *redisx.Cache
	)
	if cfg.RedisAddress != "" {
		client := redisx.NewClient(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		cycleLock = redisx.NewCycleLocker(client, cycleLockKey)
		cache = redisx.NewCache(client)
	}

	var publisher *events.Publisher
	if cfg.MQTTBrokerURL != "" {
		publisher, err = events.NewPublisher(cfg.MQTTBrokerURL, "cartwall-server", cfg.AzuraCastStationID)
		if err != nil {
			log.Warn().Err(err).Msg("event publishing disabled")
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	dispatcher := dispatch.New(station, store, publisher)
	evaluator := schedule.NewEvaluator(loc)
	trig := trigger.New(store, evaluator, dispatcher, cycleLock)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go trig.Run(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, cfg, store, storageSystem, station, synthesizer, cache, publisher)

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}
	go func() {
		log.Info().Str("address", cfg.ServerAddress).Str("timezone", cfg.StationTimezone).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
