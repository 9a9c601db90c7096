package packets

import (
	"time"

	"github.com/Andes-Streaming/cartwall/internal/model"
)

type TokenResponse struct {
	Token string `json:"token"`
}

type UserResponse struct {
	ID    int     `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// AnnouncementResponse mirrors model.Announcement but flattens times to RFC3339.
type AnnouncementResponse struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	Text      string `json:"text,omitempty"`
	Voice     string `json:"voice,omitempty"`
	Duration  int    `json:"duration"`
	Favorite  bool   `json:"favorite"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func NewAnnouncementResponse(a model.Announcement) AnnouncementResponse {
	return AnnouncementResponse{
		ID:        a.ID,
		Title:     a.Title,
		Category:  a.Category,
		Filename:  a.Filename,
		URL:       a.URL,
		Text:      a.Text,
		Voice:     a.Voice,
		Duration:  a.Duration,
		Favorite:  a.Favorite,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
}

type ScheduleResponse struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Filename     string   `json:"filename"`
	Kind         string   `json:"kind"`
	IsActive     bool     `json:"is_active"`
	WindowStart  *string  `json:"window_start"`
	WindowEnd    *string  `json:"window_end"`
	EveryHours   int      `json:"every_hours"`
	EveryMinutes int      `json:"every_minutes"`
	DaysOfWeek   []string `json:"days_of_week"`
	TimesOfDay   []string `json:"times_of_day"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

func NewScheduleResponse(rec model.ScheduleRecord) ScheduleResponse {
	resp := ScheduleResponse{
		ID:           rec.ID,
		Title:        rec.Title,
		Filename:     rec.Filename,
		Kind:         string(rec.Kind),
		IsActive:     rec.IsActive,
		EveryHours:   rec.EveryHours,
		EveryMinutes: rec.EveryMinutes,
		DaysOfWeek:   rec.DaysOfWeek,
		TimesOfDay:   rec.TimesOfDay,
		CreatedAt:    rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    rec.UpdatedAt.Format(time.RFC3339),
	}
	if rec.WindowStart != nil {
		s := rec.WindowStart.String()
		resp.WindowStart = &s
	}
	if rec.WindowEnd != nil {
		s := rec.WindowEnd.String()
		resp.WindowEnd = &s
	}
	return resp
}

type ExecutionResponse struct {
	ID         int64  `json:"id"`
	ScheduleID int    `json:"schedule_id"`
	FiredAt    string `json:"fired_at"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

func NewExecutionResponse(e model.ExecutionLogEntry) ExecutionResponse {
	return ExecutionResponse{
		ID:         e.ID,
		ScheduleID: e.ScheduleID,
		FiredAt:    e.FiredAt.Format(time.RFC3339),
		Status:     string(e.Status),
		Message:    e.Message,
	}
}
