package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/galleryapp/gallery-server/internal/domain"
	"github.com/galleryapp/gallery-server/internal/store"
)

const tagColumns = `t.id, t.name, t.slug, t.icon, t.created_at, t.updated_at`

func scanTag(row pgx.Row, lead ...any) (*domain.Tag, error) {
	var tag domain.Tag
	dest := append(lead, &tag.ID, &tag.Name, &tag.Slug, &tag.Icon, &tag.CreatedAt, &tag.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	now := time.Now()
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = now
	}
	if tag.UpdatedAt.IsZero() {
		tag.UpdatedAt = now
	}
	if tag.Icon == "" {
		tag.Icon = domain.DefaultTagIcon
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO tags (name, slug, icon, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		tag.Name, tag.Slug, tag.Icon, tag.CreatedAt, tag.UpdatedAt).Scan(&tag.ID)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return store.ErrTagNameTaken
		}
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

func (s *Store) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	tag, err := scanTag(s.pool.QueryRow(ctx, `SELECT `+tagColumns+` FROM tags t WHERE t.id = $1`, id))
	if isNoRows(err) {
		return nil, store.ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

func (s *Store) GetTagsByIDs(ctx context.Context, ids []int64) ([]*domain.Tag, error) {
	if len(ids) == 0 {
		return []*domain.Tag{}, nil
	}
	return s.queryTags(ctx, `SELECT `+tagColumns+` FROM tags t WHERE t.id = ANY($1) ORDER BY t.name`, ids)
}

func (s *Store) UpdateTag(ctx context.Context, tag *domain.Tag) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE tags SET name = $1, slug = $2, icon = $3, updated_at = $4 WHERE id = $5`,
		tag.Name, tag.Slug, tag.Icon, tag.UpdatedAt, tag.ID)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return store.ErrTagNameTaken
		}
		return fmt.Errorf("update tag: %w", err)
	}
	return expectAffected(ct, store.ErrTagNotFound)
}

func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return expectAffected(ct, store.ErrTagNotFound)
}

func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return s.queryTags(ctx, `SELECT `+tagColumns+` FROM tags t ORDER BY t.name`)
}

func (s *Store) queryTags(ctx context.Context, query string, args ...any) ([]*domain.Tag, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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
