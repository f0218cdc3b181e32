package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/galleryapp/gallery-server/internal/domain"
	"github.com/galleryapp/gallery-server/internal/store"
)

const tagColumns = `t.id, t.name, t.slug, t.icon, t.created_at, t.updated_at`

// scanTag scans a tag row. Extra destinations in lead are scanned first.
func scanTag(row interface{ Scan(...any) error }, lead ...any) (*domain.Tag, error) {
	var (
		tag                  domain.Tag
		createdAt, updatedAt string
	)
	dest := append(lead, &tag.ID, &tag.Name, &tag.Slug, &tag.Icon, &createdAt, &updatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if tag.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if tag.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &tag, nil
}

// CreateTag inserts tag and sets its ID. Name and slug must be unique.
func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	now := nowUTC()
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = now
	}
	if tag.UpdatedAt.IsZero() {
		tag.UpdatedAt = now
	}
	if tag.Icon == "" {
		tag.Icon = domain.DefaultTagIcon
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (name, slug, icon, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		tag.Name, tag.Slug, tag.Icon, formatTime(tag.CreatedAt), formatTime(tag.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrTagNameTaken
		}
		return fmt.Errorf("insert tag: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("tag id: %w", err)
	}
	tag.ID = id
	return nil
}

func (s *Store) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	tag, err := scanTag(s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags t WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

// GetTagsByIDs returns the tags that exist among ids. Unknown ids are skipped.
func (s *Store) GetTagsByIDs(ctx context.Context, ids []int64) ([]*domain.Tag, error) {
	if len(ids) == 0 {
		return []*domain.Tag{}, nil
	}
	return s.queryTags(ctx,
		`SELECT `+tagColumns+` FROM tags t WHERE t.id IN (`+placeholders(len(ids))+`) ORDER BY t.name`,
		int64Args(ids)...)
}

// UpdateTag persists name, slug and icon. The slug is never re-derived here.
func (s *Store) UpdateTag(ctx context.Context, tag *domain.Tag) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tags SET name = ?, slug = ?, icon = ?, updated_at = ? WHERE id = ?`,
		tag.Name, tag.Slug, tag.Icon, formatTime(tag.UpdatedAt), tag.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrTagNameTaken
		}
		return fmt.Errorf("update tag: %w", err)
	}
	return expectAffected(res, store.ErrTagNotFound)
}

// DeleteTag removes the tag and its image associations.
func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return expectAffected(res, store.ErrTagNotFound)
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return s.queryTags(ctx, `SELECT `+tagColumns+` FROM tags t ORDER BY t.name`)
}

func (s *Store) queryTags(ctx context.Context, query string, args ...any) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
