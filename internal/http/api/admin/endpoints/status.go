package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Andes-Streaming/cartwall/internal/azuracast"
	"github.com/Andes-Streaming/cartwall/internal/events"
	"github.com/Andes-Streaming/cartwall/internal/http/api"
	"github.com/Andes-Streaming/cartwall/internal/model"
	"github.com/Andes-Streaming/cartwall/internal/redisx"
)

const nowPlayingTTL = 15 * time.Second

// StationStatus reports what the station is currently playing.
type StationStatus interface {
	NowPlaying(ctx context.Context) (*azuracast.NowPlaying, error)
}

type StatusController struct {
	station StationStatus
	cache   *redisx.Cache
	events  *events.Publisher
}

func NewStatusController(station StationStatus, cache *redisx.Cache, publisher *events.Publisher) *StatusController {
	return &StatusController{station: station, cache: cache, events: publisher}
}

// StatusModule mounts the station status endpoint.
func StatusModule(station StationStatus, cache *redisx.Cache, publisher *events.Publisher) api.Module {
	ctl := NewStatusController(station, cache, publisher)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/status/now_playing", ctl.nowPlaying)
	})
}

// nowPlaying serves from the redis cache when fresh and only then asks the
// station, so dashboard polling does not hammer the AzuraCast API.
func (c *StatusController) nowPlaying(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	reqCtx := ctx.Request.Context()

	if c.cache != nil {
		if raw := c.cache.GetNowPlaying(reqCtx); raw != nil {
			var cached azuracast.NowPlaying
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	np, err := c.station.NowPlaying(reqCtx)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "station status unavailable"}
	}

	if payload, err := json.Marshal(np); err == nil {
		if c.cache != nil {
			c.cache.SetNowPlaying(reqCtx, payload, nowPlayingTTL)
		}
		c.events.PublishNowPlaying(payload)
	}
	return np, nil
}
