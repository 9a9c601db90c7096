package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Andes-Streaming/cartwall/internal/model"
)

type announcementRow struct {
	ID        int    `db:"id"`
	Title     string `db:"title"`
	Category  string `db:"category"`
	Filename  string `db:"filename"`
	URL       string `db:"url"`
	Text      string `db:"text"`
	Voice     string `db:"voice"`
	Duration  int    `db:"duration"`
	Favorite  int    `db:"favorite"`
	CreatedBy int    `db:"created_by"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r announcementRow) toModel() model.Announcement {
	return model.Announcement{
		ID:        r.ID,
		Title:     r.Title,
		Category:  r.Category,
		Filename:  r.Filename,
		URL:       r.URL,
		Text:      r.Text,
		Voice:     r.Voice,
		Duration:  r.Duration,
		Favorite:  r.Favorite != 0,
		CreatedBy: r.CreatedBy,
		CreatedAt: parseTime(r.CreatedAt),
		UpdatedAt: parseTime(r.UpdatedAt),
	}
}

const announcementColumns = `id, title, category, filename, url, text, voice, duration, favorite, created_by, created_at, updated_at`

func (s *sqliteStore) CreateAnnouncement(ctx context.Context, a *model.Announcement) error {
	now := nowUTC()
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO announcements
	  (title, category, filename, url, text, voice, duration, favorite, created_by, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		a.Title, a.Category, a.Filename, a.URL, a.Text, a.Voice, a.Duration,
		boolToInt(a.Favorite), a.CreatedBy, fmtTime(now), fmtTime(now))
	if err != nil {
		log.Error().Err(err).Msg("CreateAnnouncement failed")
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	a.ID = int(id)
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

func (s *sqliteStore) GetAnnouncementByID(ctx context.Context, id int) (model.Announcement, error) {
	var r announcementRow
	err := s.db.GetContext(ctx, &r, `SELECT `+announcementColumns+` FROM announcements WHERE id = ?;`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Announcement{}, sql.ErrNoRows
		}
		log.Error().Err(err).Int("announcement_id", id).Msg("GetAnnouncementByID failed")
		return model.Announcement{}, err
	}
	return r.toModel(), nil
}

// ListAnnouncements returns announcements newest first, narrowed by the
// optional title substring, category and favorites filters.
func (s *sqliteStore) ListAnnouncements(ctx context.Context, filter AnnouncementFilter) ([]model.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE 1=1`
	var args []any

	if filter.Title != "" {
		query += ` AND title LIKE ?`
		args = append(args, "%"+filter.Title+"%")
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.FavoritesOnly {
		query += ` AND favorite = 1`
	}
	query += ` ORDER BY created_at DESC, id DESC;`

	var rows []announcementRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		log.Error().Err(err).Msg("ListAnnouncements failed")
		return nil, err
	}
	out := make([]model.Announcement, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *sqliteStore) UpdateAnnouncement(ctx context.Context, id int, title, category *string) error {
	a, err := s.GetAnnouncementByID(ctx, id)
	if err != nil {
		return err
	}
	if title != nil {
		a.Title = *title
	}
	if category != nil {
		a.Category = *category
	}
	_, err = s.db.ExecContext(ctx, `
	UPDATE announcements SET title = ?, category = ?, updated_at = ? WHERE id = ?;`,
		a.Title, a.Category, fmtTime(nowUTC()), id)
	if err != nil {
		log.Error().Err(err).Int("announcement_id", id).Msg("UpdateAnnouncement failed")
	}
	return err
}

func (s *sqliteStore) SetAnnouncementFavorite(ctx context.Context, id int, favorite bool) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE announcements SET favorite = ?, updated_at = ? WHERE id = ?;`,
		boolToInt(favorite), fmtTime(nowUTC()), id)
	if err != nil {
		log.Error().Err(err).Int("announcement_id", id).Msg("SetAnnouncementFavorite failed")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *sqliteStore) DeleteAnnouncement(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = ?;`, id)
	if err != nil {
		log.Error().Err(err).Int("announcement_id", id).Msg("DeleteAnnouncement failed")
	}
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
