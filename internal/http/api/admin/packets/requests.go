package packets

import (
	"fmt"

	"github.com/Andes-Streaming/cartwall/internal/model"
)

type SignupRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Name     *string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Email *string `json:"email" binding:"omitempty,email"`
	Name  *string `json:"name"`
}

// GenerateAnnouncementRequest creates an announcement from TTS text.
type GenerateAnnouncementRequest struct {
	Title    string `json:"title" binding:"required"`
	Category string `json:"category"`
	Text     string `json:"text" binding:"required"`
	Voice    string `json:"voice"`
}

type UpdateAnnouncementRequest struct {
	Title    *string `json:"title"`
	Category *string `json:"category"`
}

type FavoriteRequest struct {
	Favorite *bool `json:"favorite" binding:"required"`
}

type ScheduleRequest struct {
	Title          string   `json:"title" binding:"required"`
	AnnouncementID int      `json:"announcement_id" binding:"required"`
	Kind           string   `json:"kind" binding:"required,oneof=interval specific_days once"`
	IsActive       *bool    `json:"is_active"`
	WindowStart    *string  `json:"window_start"` // YYYY-MM-DD
	WindowEnd      *string  `json:"window_end"`
	EveryHours     int      `json:"every_hours" binding:"min=0"`
	EveryMinutes   int      `json:"every_minutes" binding:"min=0"`
	DaysOfWeek     []string `json:"days_of_week"`
	TimesOfDay     []string `json:"times_of_day"`
}

// ToModel validates the kind-specific payload and builds a ScheduleRecord.
// The filename is resolved from the announcement by the caller.
func (r *ScheduleRequest) ToModel() (model.ScheduleRecord, error) {
	rec := model.ScheduleRecord{
		Title:        r.Title,
		Kind:         model.ScheduleKind(r.Kind),
		IsActive:     true,
		EveryHours:   r.EveryHours,
		EveryMinutes: r.EveryMinutes,
		DaysOfWeek:   r.DaysOfWeek,
		TimesOfDay:   r.TimesOfDay,
	}
	if r.IsActive != nil {
		rec.IsActive = *r.IsActive
	}

	if r.WindowStart != nil {
		d, err := model.ParseCivilDate(*r.WindowStart)
		if err != nil {
			return rec, err
		}
		rec.WindowStart = &d
	}
	if r.WindowEnd != nil {
		d, err := model.ParseCivilDate(*r.WindowEnd)
		if err != nil {
			return rec, err
		}
		rec.WindowEnd = &d
	}
	if rec.WindowStart != nil && rec.WindowEnd != nil && rec.WindowEnd.Before(*rec.WindowStart) {
		return rec, fmt.Errorf("window_end precedes window_start")
	}

	for _, day := range rec.DaysOfWeek {
		if _, err := model.ParseWeekday(day); err != nil {
			return rec, err
		}
	}
	for _, tod := range rec.TimesOfDay {
		if _, err := model.ParseTimeOfDay(tod); err != nil {
			return rec, err
		}
	}

	switch rec.Kind {
	case model.ScheduleInterval:
		if rec.Interval() <= 0 {
			return rec, fmt.Errorf("interval schedule needs every_hours or every_minutes")
		}
	case model.ScheduleSpecificDays:
		if len(rec.DaysOfWeek) == 0 || len(rec.TimesOfDay) == 0 {
			return rec, fmt.Errorf("specific-days schedule needs days_of_week and times_of_day")
		}
	case model.ScheduleOnce:
		if rec.WindowStart == nil {
			return rec, fmt.Errorf("one-shot schedule needs window_start as its fire date")
		}
		if len(rec.TimesOfDay) != 1 {
			return rec, fmt.Errorf("one-shot schedule needs exactly one time_of_day")
		}
	}
	return rec, nil
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type ListExecutionsQuery struct {
	Limit int `form:"limit"`
}
