package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Andes-Streaming/cartwall/internal/azuracast"
	"github.com/Andes-Streaming/cartwall/internal/config"
	"github.com/Andes-Streaming/cartwall/internal/db"
	"github.com/Andes-Streaming/cartwall/internal/events"
	"github.com/Andes-Streaming/cartwall/internal/http/api"
	adminapi "github.com/Andes-Streaming/cartwall/internal/http/api/admin/endpoints"
	"github.com/Andes-Streaming/cartwall/internal/redisx"
	"github.com/Andes-Streaming/cartwall/internal/storage"
	"github.com/Andes-Streaming/cartwall/internal/tts"
)

// RegisterRoutes sets up all application routes.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	store db.Store,
	storageSystem storage.Storage,
	station *azuracast.Client,
	synthesizer *tts.Client,
	cache *redisx.Cache,
	publisher *events.Publisher,
) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Auth:   false,
	},
		adminapi.AuthPublicModule(cfg.JWTSecret, store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
		Store:     store,
	},
		adminapi.AnnouncementModule(store, storageSystem, station, synthesizer, cfg.TTSVoice),
		adminapi.ScheduleModule(store, station),
		adminapi.StatusModule(station, cache, publisher),
		// session endpoints that require auth
		adminapi.AuthSessionModule(cfg.JWTSecret, store),
	)

	// Static announcement audio when storing locally.
	if !cfg.UseSpaces {
		r.Static("/uploads", cfg.UploadDir)
	}
}
