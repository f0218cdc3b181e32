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

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at, last_seen_at, ip_address, user_agent, device_class)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, formatTime(session.ExpiresAt), formatTime(session.CreatedAt),
		formatTime(session.LastSeenAt), nullString(session.IPAddress), nullString(session.UserAgent),
		nullString(session.DeviceClass))
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrUserNotFound.WithCause(err)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var (
		sess                              domain.Session
		expiresAt, createdAt, lastSeenAt  string
		ipAddress, userAgent, deviceClass sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, expires_at, created_at, last_seen_at, ip_address, user_agent, device_class
		FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.UserID, &expiresAt, &createdAt, &lastSeenAt, &ipAddress, &userAgent, &deviceClass)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if sess.LastSeenAt, err = parseTime(lastSeenAt); err != nil {
		return nil, fmt.Errorf("parse last_seen_at: %w", err)
	}
	sess.IPAddress = ipAddress.String
	sess.UserAgent = userAgent.String
	sess.DeviceClass = deviceClass.String
	return &sess, nil
}

func (s *Store) TouchSession(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET last_seen_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return expectAffected(res, store.ErrSessionNotFound)
}

// DeleteSession removes a session. Deleting an unknown session is a no-op.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired at or before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
