package endpoints

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Andes-Streaming/cartwall/internal/db"
	"github.com/Andes-Streaming/cartwall/internal/dispatch"
	"github.com/Andes-Streaming/cartwall/internal/http/api"
	"github.com/Andes-Streaming/cartwall/internal/http/api/admin/packets"
	"github.com/Andes-Streaming/cartwall/internal/model"
)

type ScheduleController struct {
	store    db.Store
	playback dispatch.Playback
}

func NewScheduleController(store db.Store, playback dispatch.Playback) *ScheduleController {
	return &ScheduleController{store: store, playback: playback}
}

// ScheduleModule mounts all authenticated /schedules endpoints.
func ScheduleModule(store db.Store, playback dispatch.Playback) api.Module {
	ctl := NewScheduleController(store, playback)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/schedules", ctl.listSchedules)
		c.GET("/schedules/:id", ctl.getSchedule)
		c.POST("/schedules", ctl.createSchedule)
		c.PUT("/schedules/:id", ctl.updateSchedule)
		c.PATCH("/schedules/:id/active", ctl.setActive)
		c.DELETE("/schedules/:id", ctl.deleteSchedule)
		c.GET("/schedules/:id/executions", ctl.listExecutions)
		c.POST("/schedules/:id/play", ctl.playNow)
	})
}

func (c *ScheduleController) listSchedules(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	all, err := c.store.ListSchedules(ctx.Request.Context())
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list schedules"}
	}

	out := make([]packets.ScheduleResponse, 0, len(all))
	for _, rec := range all {
		out = append(out, packets.NewScheduleResponse(rec))
	}
	return out, nil
}

func (c *ScheduleController) getSchedule(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	rec, err := c.store.GetSchedule(ctx.Request.Context(), id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
	}
	return packets.NewScheduleResponse(rec), nil
}

func (c *ScheduleController) createSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.ScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	rec, err := request.ToModel()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	announcement, err := c.store.GetAnnouncementByID(ctx.Request.Context(), request.AnnouncementID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "announcement not found"}
	}
	rec.Filename = announcement.Filename
	rec.CreatedBy = user.ID

	if err := c.store.CreateSchedule(ctx.Request.Context(), &rec); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create schedule"}
	}
	return packets.NewScheduleResponse(rec), nil
}

func (c *ScheduleController) updateSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.ScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	rec, err := request.ToModel()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	existing, err := c.store.GetSchedule(ctx.Request.Context(), id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
	}

	announcement, err := c.store.GetAnnouncementByID(ctx.Request.Context(), request.AnnouncementID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "announcement not found"}
	}

	rec.ID = id
	rec.Filename = announcement.Filename
	rec.CreatedBy = existing.CreatedBy

	if err := c.store.UpdateSchedule(ctx.Request.Context(), &rec); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update schedule"}
	}
	return packets.NewScheduleResponse(rec), nil
}

func (c *ScheduleController) setActive(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.SetActiveRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := c.store.SetScheduleActive(ctx.Request.Context(), id, *request.Active); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
	}
	return gin.H{"message": "updated"}, nil
}

// deleteSchedule removes the schedule row; its execution history is kept.
func (c *ScheduleController) deleteSchedule(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if _, err := c.store.GetSchedule(ctx.Request.Context(), id); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
	}
	if err := c.store.DeleteSchedule(ctx.Request.Context(), id); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete schedule"}
	}
	return gin.H{"message": "deleted"}, nil
}

func (c *ScheduleController) listExecutions(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var query packets.ListExecutionsQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	entries, err := c.store.ListExecutionLog(ctx.Request.Context(), id, query.Limit)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list executions"}
	}

	out := make([]packets.ExecutionResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, packets.NewExecutionResponse(e))
	}
	return out, nil
}

// playNow pushes the schedule's file to the station immediately, outside of
// the minute trigger, and records the attempt in the execution log.
func (c *ScheduleController) playNow(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	rec, err := c.store.GetSchedule(ctx.Request.Context(), id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
	}

	callCtx, cancel := context.WithTimeout(ctx.Request.Context(), 30*time.Second)
	defer cancel()

	entry := model.ExecutionLogEntry{
		ScheduleID: rec.ID,
		FiredAt:    time.Now(),
		Status:     model.ExecutionSuccess,
		Message:    "manual play by " + user.Email,
	}
	if err := c.playback.PlayNow(callCtx, rec.Filename); err != nil {
		entry.Status = model.ExecutionFailed
		entry.Message = err.Error()
	}
	if logErr := c.store.AppendExecutionLog(ctx.Request.Context(), &entry); logErr != nil {
		log.Error().Err(logErr).Int("schedule_id", rec.ID).Msg("[schedules] could not record manual play")
	}

	if entry.Status == model.ExecutionFailed {
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "playback request failed"}
	}
	return packets.NewExecutionResponse(entry), nil
}
