package endpoints

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Andes-Streaming/cartwall/internal/db"
	"github.com/Andes-Streaming/cartwall/internal/http/api"
	"github.com/Andes-Streaming/cartwall/internal/http/api/admin/packets"
	"github.com/Andes-Streaming/cartwall/internal/model"
	"github.com/Andes-Streaming/cartwall/internal/storage"
)

// Uploader pushes stored audio into the streaming platform's media library.
type Uploader interface {
	UploadFile(ctx context.Context, filename string, contents []byte) error
}

// Synthesizer renders announcement text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

type AnnouncementController struct {
	store        db.Store
	storage      storage.Storage
	uploader     Uploader
	synthesizer  Synthesizer
	defaultVoice string
}

func NewAnnouncementController(store db.Store, storageSystem storage.Storage, uploader Uploader, synthesizer Synthesizer, defaultVoice string) *AnnouncementController {
	return &AnnouncementController{
		store:        store,
		storage:      storageSystem,
		uploader:     uploader,
		synthesizer:  synthesizer,
		defaultVoice: defaultVoice,
	}
}

// AnnouncementModule mounts all authenticated /announcements endpoints.
func AnnouncementModule(store db.Store, storageSystem storage.Storage, uploader Uploader, synthesizer Synthesizer, defaultVoice string) api.Module {
	ctl := NewAnnouncementController(store, storageSystem, uploader, synthesizer, defaultVoice)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/announcements", ctl.listAnnouncements)
		c.GET("/announcements/:id", ctl.getAnnouncement)
		c.POST("/announcements", ctl.uploadAnnouncement)
		c.POST("/announcements/generate", ctl.generateAnnouncement)
		c.PUT("/announcements/:id", ctl.updateAnnouncement)
		c.PUT("/announcements/:id/favorite", ctl.setFavorite)
		c.DELETE("/announcements/:id", ctl.deleteAnnouncement)
	})
}

func (c *AnnouncementController) listAnnouncements(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	filter := db.AnnouncementFilter{
		Title:         ctx.Query("title"),
		Category:      ctx.Query("category"),
		FavoritesOnly: ctx.Query("favorites") == "true",
	}

	all, err := c.store.ListAnnouncements(ctx.Request.Context(), filter)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list announcements"}
	}

	out := make([]packets.AnnouncementResponse, 0, len(all))
	for _, a := range all {
		out = append(out, packets.NewAnnouncementResponse(a))
	}
	return out, nil
}

func (c *AnnouncementController) getAnnouncement(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	a, err := c.store.GetAnnouncementByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "announcement not found"}
	}
	return packets.NewAnnouncementResponse(a), nil
}

// uploadAnnouncement takes a multipart form with title/category fields and
// an "audio" file, stores the file and mirrors it to the streaming platform.
func (c *AnnouncementController) uploadAnnouncement(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	title := ctx.PostForm("title")
	if title == "" {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "title is required"}
	}
	category := ctx.PostForm("category")

	fileHeader, err := ctx.FormFile("audio")
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "audio file is required"}
	}

	filename, url, err := c.storage.SaveFile(fileHeader, fileHeader.Filename)
	if err != nil {
		log.Error().Err(err).Msg("[announcements] upload: save failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not save file"}
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not read file"}
	}
	contents, err := io.ReadAll(src)
	_ = src.Close()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not read file"}
	}
	if err := c.uploader.UploadFile(ctx.Request.Context(), filename, contents); err != nil {
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "could not upload to streaming platform"}
	}

	a := model.Announcement{
		Title:     title,
		Category:  category,
		Filename:  filename,
		URL:       url,
		CreatedBy: user.ID,
	}
	if err := c.store.CreateAnnouncement(ctx.Request.Context(), &a); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create announcement"}
	}
	return packets.NewAnnouncementResponse(a), nil
}

// generateAnnouncement renders announcement text through the TTS vendor,
// then stores and mirrors the audio like an upload.
func (c *AnnouncementController) generateAnnouncement(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.GenerateAnnouncementRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	voice := request.Voice
	if voice == "" {
		voice = c.defaultVoice
	}

	audio, err := c.synthesizer.Synthesize(ctx.Request.Context(), request.Text, voice)
	if err != nil {
		log.Error().Err(err).Msg("[announcements] tts synthesis failed")
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "speech synthesis failed"}
	}

	filename, url, err := c.storage.SaveBytes(audio, request.Title+".mp3")
	if err != nil {
		log.Error().Err(err).Msg("[announcements] generate: save failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not save file"}
	}

	if err := c.uploader.UploadFile(ctx.Request.Context(), filename, audio); err != nil {
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "could not upload to streaming platform"}
	}

	a := model.Announcement{
		Title:     request.Title,
		Category:  request.Category,
		Filename:  filename,
		URL:       url,
		Text:      request.Text,
		Voice:     voice,
		CreatedBy: user.ID,
	}
	if err := c.store.CreateAnnouncement(ctx.Request.Context(), &a); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create announcement"}
	}
	return packets.NewAnnouncementResponse(a), nil
}

func (c *AnnouncementController) updateAnnouncement(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.UpdateAnnouncementRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := c.store.UpdateAnnouncement(ctx.Request.Context(), id, request.Title, request.Category); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "announcement not found"}
	}

	a, err := c.store.GetAnnouncementByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not reload announcement"}
	}
	return packets.NewAnnouncementResponse(a), nil
}

func (c *AnnouncementController) setFavorite(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.FavoriteRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := c.store.SetAnnouncementFavorite(ctx.Request.Context(), id, *request.Favorite); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "announcement not found"}
	}
	return gin.H{"message": "updated"}, nil
}

func (c *AnnouncementController) deleteAnnouncement(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if _, err := c.store.GetAnnouncementByID(ctx.Request.Context(), id); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "announcement not found"}
	}
	if err := c.store.DeleteAnnouncement(ctx.Request.Context(), id); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete announcement"}
	}
	return gin.H{"message": "deleted"}, nil
}
