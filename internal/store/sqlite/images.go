package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/galleryapp/gallery-server/internal/domain"
	"github.com/galleryapp/gallery-server/internal/store"
)

const imageColumns = `i.id, i.title, i.public_id, i.uploaded_at, i.width, i.height, i.blurhash, i.thumbnail_id`

func scanImage(row interface{ Scan(...any) error }) (*domain.Image, error) {
	var (
		img        domain.Image
		uploadedAt string
		blurHash   sql.NullString
		thumbID    sql.NullString
	)
	if err := row.Scan(&img.ID, &img.Title, &img.PublicID, &uploadedAt,
		&img.Width, &img.Height, &blurHash, &thumbID); err != nil {
		return nil, err
	}

	var err error
	if img.UploadedAt, err = parseTime(uploadedAt); err != nil {
		return nil, fmt.Errorf("parse uploaded_at: %w", err)
	}
	img.BlurHash = blurHash.String
	img.ThumbnailID = thumbID.String
	img.Tags = []*domain.Tag{}
	return &img, nil
}

// CreateImage inserts img and sets its ID. Tags on img are associated in the
// same transaction, so a failed association leaves no row behind.
func (s *Store) CreateImage(ctx context.Context, img *domain.Image) error {
	if img.UploadedAt.IsZero() {
		img.Touch()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO images (title, public_id, uploaded_at, width, height, blurhash, thumbnail_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		img.Title, img.PublicID, formatTime(img.UploadedAt), img.Width, img.Height,
		nullString(img.BlurHash), nullString(img.ThumbnailID))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("image public id already exists").WithCause(err)
		}
		return fmt.Errorf("insert image: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("image id: %w", err)
	}

	if err := insertImageTags(ctx, tx, id, img.TagIDs()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	img.ID = id

	if len(img.Tags) > 0 {
		return s.attachTags(ctx, []*domain.Image{img})
	}
	img.Tags = []*domain.Tag{}
	return nil
}

// GetImage returns the image with its tags.
func (s *Store) GetImage(ctx context.Context, id int64) (*domain.Image, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images i WHERE i.id = ?`, id)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
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

// GetImagesByIDs returns the images that exist among ids, in id order.
func (s *Store) GetImagesByIDs(ctx context.Context, ids []int64) ([]*domain.Image, error) {
	if len(ids) == 0 {
		return []*domain.Image{}, nil
	}
	query := `SELECT ` + imageColumns + ` FROM images i WHERE i.id IN (` + placeholders(len(ids)) + `) ORDER BY i.id`
	return s.queryImages(ctx, query, int64Args(ids)...)
}

// UpdateImage persists title, dimensions and media references.
// Callers bump UploadedAt via Image.Touch.
func (s *Store) UpdateImage(ctx context.Context, img *domain.Image) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE images
		SET title = ?, uploaded_at = ?, width = ?, height = ?, blurhash = ?, thumbnail_id = ?
		WHERE id = ?`,
		img.Title, formatTime(img.UploadedAt), img.Width, img.Height,
		nullString(img.BlurHash), nullString(img.ThumbnailID), img.ID)
	if err != nil {
		return fmt.Errorf("update image: %w", err)
	}
	return expectAffected(res, store.ErrImageNotFound)
}

// DeleteImage removes the image. Tag associations cascade.
func (s *Store) DeleteImage(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return expectAffected(res, store.ErrImageNotFound)
}

// ListImages returns images matching filter. A tag filter never duplicates rows.
func (s *Store) ListImages(ctx context.Context, filter store.ImageFilter) ([]*domain.Image, error) {
	var (
		where []string
		args  []any
	)

	if filter.HasTag {
		where = append(where, `EXISTS (SELECT 1 FROM image_tags it WHERE it.image_id = i.id AND it.tag_id = ?)`)
		args = append(args, filter.TagID)
	}
	if !filter.UploadedSince.IsZero() {
		where = append(where, `i.uploaded_at >= ?`)
		args = append(args, formatTime(filter.UploadedSince))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + imageColumns + ` FROM images i`)
	if len(where) > 0 {
		b.WriteString(` WHERE ` + strings.Join(where, ` AND `))
	}
	b.WriteString(orderClause(filter.Order))

	return s.queryImages(ctx, b.String(), args...)
}

func orderClause(o store.ImageOrder) string {
	switch o {
	case store.OrderUploadedDesc:
		return ` ORDER BY i.uploaded_at DESC, i.id DESC`
	case store.OrderUploadedAsc:
		return ` ORDER BY i.uploaded_at ASC, i.id ASC`
	case store.OrderIDDesc:
		return ` ORDER BY i.id DESC`
	default:
		return ""
	}
}

func (s *Store) queryImages(ctx context.Context, query string, args ...any) ([]*domain.Image, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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

// attachTags loads tags for all images in one query, ordered by tag name.
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

	rows, err := s.db.QueryContext(ctx, `
		SELECT it.image_id, `+tagColumns+`
		FROM image_tags it
		JOIN tags t ON t.id = it.tag_id
		WHERE it.image_id IN (`+placeholders(len(ids))+`)
		ORDER BY t.name`, int64Args(ids)...)
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

// AddImageTags associates tags with an image, ignoring pairs that already exist.
func (s *Store) AddImageTags(ctx context.Context, imageID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertImageTags(ctx, tx, imageID, tagIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func insertImageTags(ctx context.Context, tx *sql.Tx, imageID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO image_tags (image_id, tag_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (image_id, tag_id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := formatTime(nowUTC())
	for _, tagID := range tagIDs {
		if _, err := stmt.ExecContext(ctx, imageID, tagID, now); err != nil {
			if isForeignKeyViolation(err) {
				return store.ErrNotFound.WithMessage("image or tag not found").WithCause(err)
			}
			return fmt.Errorf("add image tag: %w", err)
		}
	}
	return nil
}

// RemoveImageTag removes one association. Removing a missing pair is a no-op.
func (s *Store) RemoveImageTag(ctx context.Context, imageID, tagID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM image_tags WHERE image_id = ? AND tag_id = ?`, imageID, tagID); err != nil {
		return fmt.Errorf("remove image tag: %w", err)
	}
	return nil
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
