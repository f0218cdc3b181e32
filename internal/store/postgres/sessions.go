package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/galleryapp/gallery-server/internal/domain"
	"github.com/galleryapp/gallery-server/internal/store"
)

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at, last_seen_at, ip_address, user_agent, device_class)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		session.ID, session.UserID, session.ExpiresAt, session.CreatedAt, session.LastSeenAt,
		nullString(session.IPAddress), nullString(session.UserAgent), nullString(session.DeviceClass))
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return store.ErrUserNotFound.WithCause(err)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var (
		sess                              domain.Session
		ipAddress, userAgent, deviceClass *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, expires_at, created_at, last_seen_at, ip_address, user_agent, device_class
		FROM sessions WHERE id = $1`, id).
		Scan(&sess.ID, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt, &sess.LastSeenAt,
			&ipAddress, &userAgent, &deviceClass)
	if isNoRows(err) {
		return nil, store.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.IPAddress = deref(ipAddress)
	sess.UserAgent = deref(userAgent)
	sess.DeviceClass = deref(deviceClass)
	return &sess, nil
}

func (s *Store) TouchSession(ctx context.Context, id string, at time.Time) error {
	ct, err := s.pool.Exec(ctx, `UPDATE sessions SET last_seen_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return expectAffected(ct, store.ErrSessionNotFound)
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return int(ct.RowsAffected()), nil
}
