package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/galleryapp/gallery-server/internal/domain"
	"github.com/galleryapp/gallery-server/internal/store"
)

const imageColumns = `i.id, i.title, i.public_id, i.uploaded_at, i.width, i.height, i.blurhash, i.thumbnail_id`

func scanImage(row pgx.Row) (*domain.Image, error) {
	var (
		img               domain.Image
		blurHash, thumbID *string
	)
	if err := row.Scan(&img.ID, &img.Title, &img.PublicID, &img.UploadedAt,
		&img.Width, &img.Height, &blurHash, &thumbID); err != nil {
		return nil, err
	}
	img.BlurHash = deref(blurHash)
	img.ThumbnailID = deref(thumbID)
	img.Tags = []*domain.Tag{}
	return &img, nil
}

func (s *Store) CreateImage(ctx context.Context, img *domain.Image) error {
	if img.UploadedAt.IsZero() {
		img.Touch()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO images (title, public_id, uploaded_at, width, height, blurhash, thumbnail_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		img.Title, img.PublicID, img.UploadedAt, img.Width, img.Height,
		nullString(img.BlurHash), nullString(img.ThumbnailID)).Scan(&img.ID)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return store.ErrAlreadyExists.WithMessage("image public id already exists").WithCause(err)
		}
		return fmt.Errorf("insert image: %w", err)
	}

	if err := insertImageTags(ctx, tx, img.ID, img.TagIDs()); err != nil {
		img.ID = 0
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		img.ID = 0
		return fmt.Errorf("commit: %w", err)
	}

	if len(img.Tags) > 0 {
		return s.attachTags(ctx, []*domain.Image{img})
	}
	img.Tags = []*domain.Tag{}
	return nil
}

func (s *Store) GetImage(ctx context.Context, id int64) (*domain.Image, error) {
	img, err := scanImage(s.pool.QueryRow(ctx, `SELECT `+imageColumns+` FROM images i WHERE i.id = $1`, id))
	if isNoRows(err) {
		return nil, store.ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	if err := s.attachTags(ctx, []*domain.Image{img}); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *Store) GetImagesByIDs(ctx context.Context, ids []int64) ([]*domain.Image, error) {
	if len(ids) == 0 {
		return []*domain.Image{}, nil
	}
	return s.queryImages(ctx, `SELECT `+imageColumns+` FROM images i WHERE i.id = ANY($1) ORDER BY i.id`, ids)
}

func (s *Store) UpdateImage(ctx context.Context, img *domain.Image) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE images
		SET title = $1, uploaded_at = $2, width = $3, height = $4, blurhash = $5, thumbnail_id = $6
		WHERE id = $7`,
		img.Title, img.UploadedAt, img.Width, img.Height,
		nullString(img.BlurHash), nullString(img.ThumbnailID), img.ID)
	if err != nil {
		return fmt.Errorf("update image: %w", err)
	}
	return expectAffected(tag, store.ErrImageNotFound)
}

func (s *Store) DeleteImage(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return expectAffected(tag, store.ErrImageNotFound)
}

func (s *Store) ListImages(ctx context.Context, filter store.ImageFilter) ([]*domain.Image, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.HasTag {
		where = append(where, `EXISTS (SELECT 1 FROM image_tags it WHERE it.image_id = i.id AND it.tag_id = `+arg(filter.TagID)+`)`)
	}
	if !filter.UploadedSince.IsZero() {
		where = append(where, `i.uploaded_at >= `+arg(filter.UploadedSince))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + imageColumns + ` FROM images i`)
	if len(where) > 0 {
		b.WriteString(` WHERE ` + strings.Join(where, ` AND `))
	}
	switch filter.Order {
	case store.OrderUploadedDesc:
		b.WriteString(` ORDER BY i.uploaded_at DESC, i.id DESC`)
	case store.OrderUploadedAsc:
		b.WriteString(` ORDER BY i.uploaded_at ASC, i.id ASC`)
	case store.OrderIDDesc:
		b.WriteString(` ORDER BY i.id DESC`)
	}

	return s.queryImages(ctx, b.String(), args...)
}

func (s *Store) queryImages(ctx context.Context, query string, args ...any) ([]*domain.Image, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	images := []*domain.Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}

	if err := s.attachTags(ctx, images); err != nil {
		return nil, err
	}
	return images, nil
}

func (s *Store) attachTags(ctx context.Context, images []*domain.Image) error {
	if len(images) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Image, len(images))
	ids := make([]int64, 0, len(images))
	for _, img := range images {
		img.Tags = []*domain.Tag{}
		byID[img.ID] = img
		ids = append(ids, img.ID)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT it.image_id, `+tagColumns+`
		FROM image_tags it
		JOIN tags t ON t.id = it.tag_id
		WHERE it.image_id = ANY($1)
		ORDER BY t.name`, ids)
	if err != nil {
		return fmt.Errorf("query image tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var imageID int64
		tag, err := scanTag(rows, &imageID)
		if err != nil {
			return fmt.Errorf("scan image tag: %w", err)
		}
		if img, ok := byID[imageID]; ok {
			img.Tags = append(img.Tags, tag)
		}
	}
	return rows.Err()
}

func (s *Store) AddImageTags(ctx context.Context, imageID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertImageTags(ctx, tx, imageID, tagIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertImageTags(ctx context.Context, tx pgx.Tx, imageID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	now := time.Now()
	for _, tagID := range tagIDs {
		batch.Queue(`
			INSERT INTO image_tags (image_id, tag_id, created_at) VALUES ($1, $2, $3)
			ON CONFLICT (image_id, tag_id) DO NOTHING`, imageID, tagID, now)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return store.ErrNotFound.WithMessage("image or tag not found").WithCause(err)
		}
		return fmt.Errorf("add image tags: %w", err)
	}
	return nil
}

func (s *Store) RemoveImageTag(ctx context.Context, imageID, tagID int64) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM image_tags WHERE image_id = $1 AND tag_id = $2`, imageID, tagID); err != nil {
		return fmt.Errorf("remove image tag: %w", err)
	}
	return nil
}
