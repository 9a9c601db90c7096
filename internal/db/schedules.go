package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Andes-Streaming/cartwall/internal/model"
)

type scheduleRow struct {
	ID           int     `db:"id"`
	Title        string  `db:"title"`
	Filename     string  `db:"filename"`
	Kind         string  `db:"kind"`
	IsActive     int     `db:"is_active"`
	WindowStart  *string `db:"window_start"`
	WindowEnd    *string `db:"window_end"`
	EveryHours   int     `db:"every_hours"`
	EveryMinutes int     `db:"every_minutes"`
	CreatedBy    int     `db:"created_by"`
	CreatedAt    string  `db:"created_at"`
	UpdatedAt    string  `db:"updated_at"`
}

func (r scheduleRow) toModel() (model.ScheduleRecord, error) {
	rec := model.ScheduleRecord{
		ID:           r.ID,
		Title:        r.Title,
		Filename:     r.Filename,
		Kind:         model.ScheduleKind(r.Kind),
		IsActive:     r.IsActive != 0,
		EveryHours:   r.EveryHours,
		EveryMinutes: r.EveryMinutes,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    parseTime(r.CreatedAt),
		UpdatedAt:    parseTime(r.UpdatedAt),
	}
	if r.WindowStart != nil {
		d, err := model.ParseCivilDate(*r.WindowStart)
		if err != nil {
			return rec, fmt.Errorf("schedule %d window_start: %w", r.ID, err)
		}
		rec.WindowStart = &d
	}
	if r.WindowEnd != nil {
		d, err := model.ParseCivilDate(*r.WindowEnd)
		if err != nil {
			return rec, fmt.Errorf("schedule %d window_end: %w", r.ID, err)
		}
		rec.WindowEnd = &d
	}
	return rec, nil
}

const scheduleColumns = `id, title, filename, kind, is_active, window_start, window_end, every_hours, every_minutes, created_by, created_at, updated_at`

func (s *sqliteStore) CreateSchedule(ctx context.Context, rec *model.ScheduleRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := nowUTC()
	res, err := tx.ExecContext(ctx, `
	INSERT INTO schedules
	  (title, filename, kind, is_active, window_start, window_end, every_hours, every_minutes, created_by, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		rec.Title, rec.Filename, string(rec.Kind), boolToInt(rec.IsActive),
		dateOrNil(rec.WindowStart), dateOrNil(rec.WindowEnd),
		rec.EveryHours, rec.EveryMinutes, rec.CreatedBy, fmtTime(now), fmtTime(now))
	if err != nil {
		log.Error().Err(err).Msg("CreateSchedule failed")
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = int(id)
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := insertScheduleLists(ctx, tx, rec.ID, rec.DaysOfWeek, rec.TimesOfDay); err != nil {
		return err
	}
	return tx.Commit()
}

// insertScheduleLists writes the structured day/time child rows. Days and
// times used to live JSON-encoded inside single text columns; the child
// tables replace that ambiguity.
func insertScheduleLists(ctx context.Context, tx *sqlx.Tx, scheduleID int, days, times []string) error {
	for _, day := range days {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schedule_days (schedule_id, day) VALUES (?, ?);`, scheduleID, day); err != nil {
			return fmt.Errorf("insert schedule day: %w", err)
		}
	}
	for i, t := range times {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schedule_times (schedule_id, position, time) VALUES (?, ?, ?);`, scheduleID, i, t); err != nil {
			return fmt.Errorf("insert schedule time: %w", err)
		}
	}
	return nil
}

func (s *sqliteStore) GetSchedule(ctx context.Context, id int) (model.ScheduleRecord, error) {
	var r scheduleRow
	err := s.db.GetContext(ctx, &r, `SELECT `+scheduleColumns+` FROM schedules WHERE id = ?;`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ScheduleRecord{}, sql.ErrNoRows
		}
		log.Error().Err(err).Int("schedule_id", id).Msg("GetSchedule failed")
		return model.ScheduleRecord{}, err
	}
	rec, err := r.toModel()
	if err != nil {
		return model.ScheduleRecord{}, err
	}
	if err := s.attachScheduleLists(ctx, []*model.ScheduleRecord{&rec}); err != nil {
		return model.ScheduleRecord{}, err
	}
	return rec, nil
}

func (s *sqliteStore) ListSchedules(ctx context.Context) ([]model.ScheduleRecord, error) {
	return s.listSchedules(ctx, `SELECT `+scheduleColumns+` FROM schedules ORDER BY id;`)
}

// ListActiveSchedules returns the snapshot the trigger evaluates: active
// records only, in stable id order.
func (s *sqliteStore) ListActiveSchedules(ctx context.Context) ([]model.ScheduleRecord, error) {
	return s.listSchedules(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE is_active = 1 ORDER BY id;`)
}

func (s *sqliteStore) listSchedules(ctx context.Context, query string) ([]model.ScheduleRecord, error) {
	var rows []scheduleRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		log.Error().Err(err).Msg("listSchedules failed")
		return nil, err
	}

	out := make([]model.ScheduleRecord, 0, len(rows))
	refs := make([]*model.ScheduleRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.toModel()
		if err != nil {
			// A malformed date on one row must not hide the rest.
			log.Warn().Err(err).Int("schedule_id", r.ID).Msg("skipping schedule with malformed dates")
			continue
		}
		out = append(out, rec)
		refs = append(refs, &out[len(out)-1])
	}
	if err := s.attachScheduleLists(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

// attachScheduleLists loads all day/time child rows in two queries and
// groups them onto the given records.
func (s *sqliteStore) attachScheduleLists(ctx context.Context, recs []*model.ScheduleRecord) error {
	if len(recs) == 0 {
		return nil
	}
	byID := make(map[int]*model.ScheduleRecord, len(recs))
	ids := make([]int, 0, len(recs))
	for _, r := range recs {
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}

	query, args, err := sqlx.In(`SELECT schedule_id, day FROM schedule_days WHERE schedule_id IN (?) ORDER BY schedule_id, id;`, ids)
	if err != nil {
		return fmt.Errorf("build day query: %w", err)
	}
	var days []struct {
		ScheduleID int    `db:"schedule_id"`
		Day        string `db:"day"`
	}
	if err := s.db.SelectContext(ctx, &days, s.db.Rebind(query), args...); err != nil {
		log.Error().Err(err).Msg("load schedule days failed")
		return err
	}
	for _, d := range days {
		if rec, ok := byID[d.ScheduleID]; ok {
			rec.DaysOfWeek = append(rec.DaysOfWeek, d.Day)
		}
	}

	query, args, err = sqlx.In(`SELECT schedule_id, time FROM schedule_times WHERE schedule_id IN (?) ORDER BY schedule_id, position;`, ids)
	if err != nil {
		return fmt.Errorf("build time query: %w", err)
	}
	var times []struct {
		ScheduleID int    `db:"schedule_id"`
		Time       string `db:"time"`
	}
	if err := s.db.SelectContext(ctx, &times, s.db.Rebind(query), args...); err != nil {
		log.Error().Err(err).Msg("load schedule times failed")
		return err
	}
	for _, t := range times {
		if rec, ok := byID[t.ScheduleID]; ok {
			rec.TimesOfDay = append(rec.TimesOfDay, t.Time)
		}
	}
	return nil
}

func (s *sqliteStore) UpdateSchedule(ctx context.Context, rec *model.ScheduleRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	UPDATE schedules SET
	  title = ?, filename = ?, kind = ?, is_active = ?,
	  window_start = ?, window_end = ?, every_hours = ?, every_minutes = ?, updated_at = ?
	WHERE id = ?;`,
		rec.Title, rec.Filename, string(rec.Kind), boolToInt(rec.IsActive),
		dateOrNil(rec.WindowStart), dateOrNil(rec.WindowEnd),
		rec.EveryHours, rec.EveryMinutes, fmtTime(nowUTC()), rec.ID)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", rec.ID).Msg("UpdateSchedule failed")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_days WHERE schedule_id = ?;`, rec.ID); err != nil {
		return fmt.Errorf("clear schedule days: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_times WHERE schedule_id = ?;`, rec.ID); err != nil {
		return fmt.Errorf("clear schedule times: %w", err)
	}
	if err := insertScheduleLists(ctx, tx, rec.ID, rec.DaysOfWeek, rec.TimesOfDay); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) SetScheduleActive(ctx context.Context, id int, active bool) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE schedules SET is_active = ?, updated_at = ? WHERE id = ?;`,
		boolToInt(active), fmtTime(nowUTC()), id)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("SetScheduleActive failed")
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

func (s *sqliteStore) DeleteSchedule(ctx context.Context, id int) error {
	// Execution log entries are kept: history outlives the schedule.
	_, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?;`, id)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("DeleteSchedule failed")
	}
	return err
}

// AppendExecutionLog records one dispatch attempt. Entries are never
// updated or deleted.
func (s *sqliteStore) AppendExecutionLog(ctx context.Context, entry *model.ExecutionLogEntry) error {
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO execution_log (schedule_id, fired_at, status, message)
	VALUES (?, ?, ?, ?);`,
		entry.ScheduleID, fmtTime(entry.FiredAt), string(entry.Status), entry.Message)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", entry.ScheduleID).Msg("AppendExecutionLog failed")
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

// GetLastExecution returns the most recent attempt timestamp for one
// schedule, success or failure alike, or nil if it has never fired.
func (s *sqliteStore) GetLastExecution(ctx context.Context, scheduleID int) (*time.Time, error) {
	var fired sql.NullString
	err := s.db.GetContext(ctx, &fired,
		`SELECT MAX(fired_at) FROM execution_log WHERE schedule_id = ?;`, scheduleID)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", scheduleID).Msg("GetLastExecution failed")
		return nil, err
	}
	if !fired.Valid {
		return nil, nil
	}
	at := parseTime(fired.String)
	return &at, nil
}

// LastExecutions returns the last attempt timestamp for every schedule that
// has ever fired, keyed by schedule id.
func (s *sqliteStore) LastExecutions(ctx context.Context) (map[int]time.Time, error) {
	var rows []struct {
		ScheduleID int    `db:"schedule_id"`
		FiredAt    string `db:"fired_at"`
	}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT schedule_id, MAX(fired_at) AS fired_at FROM execution_log GROUP BY schedule_id;`)
	if err != nil {
		log.Error().Err(err).Msg("LastExecutions failed")
		return nil, err
	}
	out := make(map[int]time.Time, len(rows))
	for _, r := range rows {
		out[r.ScheduleID] = parseTime(r.FiredAt)
	}
	return out, nil
}

func (s *sqliteStore) ListExecutionLog(ctx context.Context, scheduleID, limit int) ([]model.ExecutionLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []struct {
		ID         int64  `db:"id"`
		ScheduleID int    `db:"schedule_id"`
		FiredAt    string `db:"fired_at"`
		Status     string `db:"status"`
		Message    string `db:"message"`
	}
	err := s.db.SelectContext(ctx, &rows, `
	SELECT id, schedule_id, fired_at, status, message
	  FROM execution_log
	 WHERE schedule_id = ?
	 ORDER BY fired_at DESC, id DESC
	 LIMIT ?;`, scheduleID, limit)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", scheduleID).Msg("ListExecutionLog failed")
		return nil, err
	}
	out := make([]model.ExecutionLogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.ExecutionLogEntry{
			ID:         r.ID,
			ScheduleID: r.ScheduleID,
			FiredAt:    parseTime(r.FiredAt),
			Status:     model.ExecutionStatus(r.Status),
			Message:    r.Message,
		})
	}
	return out, nil
}

func dateOrNil(d *model.CivilDate) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
