package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Andes-Streaming/cartwall/internal/model"
)

type userRow struct {
	ID             int     `db:"id"`
	Email          string  `db:"email"`
	HashedPassword string  `db:"hashed_password"`
	Name           *string `db:"name"`
	CreatedAt      string  `db:"created_at"`
	UpdatedAt      string  `db:"updated_at"`
}

func (r userRow) toModel() *model.User {
	return &model.User{
		ID:             r.ID,
		Email:          r.Email,
		HashedPassword: r.HashedPassword,
		Name:           r.Name,
		CreatedAt:      parseTime(r.CreatedAt),
		UpdatedAt:      parseTime(r.UpdatedAt),
	}
}

const userColumns = `id, email, hashed_password, name, created_at, updated_at`

// CreateUser inserts a new staff account and returns its ID.
func (s *sqliteStore) CreateUser(ctx context.Context, email, hashedPassword string, name *string) (int, error) {
	now := fmtTime(nowUTC())
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO users (email, hashed_password, name, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?);`,
		email, hashedPassword, name, now, now)
	if err != nil {
		log.Error().Err(err).Msg("failed to create user")
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return int(id), nil
}

// GetUserByEmail fetches a user by email. Returns sql.ErrNoRows if not found.
func (s *sqliteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var r userRow
	err := s.db.GetContext(ctx, &r, `SELECT `+userColumns+` FROM users WHERE email = ?;`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Msg("failed to get user by email")
		return nil, err
	}
	return r.toModel(), nil
}

// GetUserByID fetches a user by ID. Returns sql.ErrNoRows if not found.
func (s *sqliteStore) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	var r userRow
	err := s.db.GetContext(ctx, &r, `SELECT `+userColumns+` FROM users WHERE id = ?;`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Msg("failed to get user by id")
		return nil, err
	}
	return r.toModel(), nil
}

// UpdateUserProfile updates a user's email and name and bumps updated_at.
func (s *sqliteStore) UpdateUserProfile(ctx context.Context, id int, email string, name *string) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE users SET email = ?, name = ?, updated_at = ? WHERE id = ?;`,
		email, name, fmtTime(nowUTC()), id)
	if err != nil {
		log.Error().Err(err).Msg("failed to update user profile")
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
