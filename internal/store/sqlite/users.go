package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/galleryapp/gallery-server/internal/domain"
	"github.com/galleryapp/gallery-server/internal/store"
)

const userColumns = `id, username, email, password_hash, is_superuser, is_active, date_joined, last_login`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		u          domain.User
		dateJoined string
		lastLogin  sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.IsSuperuser, &u.IsActive, &dateJoined, &lastLogin); err != nil {
		return nil, err
	}

	var err error
	if u.DateJoined, err = parseTime(dateJoined); err != nil {
		return nil, fmt.Errorf("parse date_joined: %w", err)
	}
	if u.LastLogin, err = parseNullableTime(lastLogin); err != nil {
		return nil, fmt.Errorf("parse last_login: %w", err)
	}
	return &u, nil
}

// CreateUser inserts user and sets its ID. Usernames are unique.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.DateJoined.IsZero() {
		user.DateJoined = nowUTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, is_superuser, is_active, date_joined, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.IsSuperuser, user.IsActive,
		formatTime(user.DateJoined), nullTimeString(user.LastLogin))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	user.ID = id
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return expectAffected(res, store.ErrUserNotFound)
}
