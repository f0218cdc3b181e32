package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/galleryapp/gallery-server/internal/domain"
	"github.com/galleryapp/gallery-server/internal/store"
)

const userColumns = `id, username, email, password_hash, is_superuser, is_active, date_joined, last_login`

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now()
	}

	var lastLogin *time.Time
	if !user.LastLogin.IsZero() {
		lastLogin = &user.LastLogin
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, is_superuser, is_active, date_joined, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		user.Username, user.Email, user.PasswordHash, user.IsSuperuser, user.IsActive,
		user.DateJoined, lastLogin).Scan(&user.ID)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return store.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		u         domain.User
		lastLogin *time.Time
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.IsSuperuser, &u.IsActive, &u.DateJoined, &lastLogin)
	if isNoRows(err) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if lastLogin != nil {
		u.LastLogin = *lastLogin
	}
	return &u, nil
}

func (s *Store) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	ct, err := s.pool.Exec(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return expectAffected(ct, store.ErrUserNotFound)
}
