// exposes a Store interface that is passed to API handlers, the trigger and
// the dispatcher instead of an ambient package-level connection.
package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Andes-Streaming/cartwall/internal/model"
)

// AnnouncementFilter narrows ListAnnouncements. Zero values mean "no filter".
type AnnouncementFilter struct {
	Title         string
	Category      string
	FavoritesOnly bool
}

type Store interface {
	// user functions
	CreateUser(ctx context.Context, email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id int, email string, name *string) error

	// announcement functions
	CreateAnnouncement(ctx context.Context, a *model.Announcement) error
	GetAnnouncementByID(ctx context.Context, id int) (model.Announcement, error)
	ListAnnouncements(ctx context.Context, filter AnnouncementFilter) ([]model.Announcement, error)
	UpdateAnnouncement(ctx context.Context, id int, title, category *string) error
	SetAnnouncementFavorite(ctx context.Context, id int, favorite bool) error
	DeleteAnnouncement(ctx context.Context, id int) error

	// schedule functions
	CreateSchedule(ctx context.Context, rec *model.ScheduleRecord) error
	GetSchedule(ctx context.Context, id int) (model.ScheduleRecord, error)
	ListSchedules(ctx context.Context) ([]model.ScheduleRecord, error)
	ListActiveSchedules(ctx context.Context) ([]model.ScheduleRecord, error)
	UpdateSchedule(ctx context.Context, rec *model.ScheduleRecord) error
	SetScheduleActive(ctx context.Context, id int, active bool) error
	DeleteSchedule(ctx context.Context, id int) error

	// execution log functions
	AppendExecutionLog(ctx context.Context, entry *model.ExecutionLogEntry) error
	GetLastExecution(ctx context.Context, scheduleID int) (*time.Time, error)
	LastExecutions(ctx context.Context) (map[int]time.Time, error)
	ListExecutionLog(ctx context.Context, scheduleID, limit int) ([]model.ExecutionLogEntry, error)
}

type sqliteStore struct {
	db *sqlx.DB
}

// compile-time check that sqliteStore implements Store
var _ Store = (*sqliteStore)(nil)

func NewStore(conn *sqlx.DB) Store {
	return &sqliteStore{db: conn}
}

// timestamps are stored as RFC3339 UTC text; SQLite has no native type.
const timeLayout = time.RFC3339

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func nowUTC() time.Time { return time.Now().UTC() }
