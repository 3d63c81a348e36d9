package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"wedding-journey/internal/models"
)

const selectPhoto = `SELECT id, chapter, caption, storage_path, photo_order, uploaded_by, created_at FROM photos`

func scanPhoto(row rowScanner) (*models.Photo, error) {
	var (
		p       models.Photo
		chapter string
		created int64
	)
	if err := row.Scan(&p.ID, &chapter, &p.Caption, &p.StoragePath, &p.Order, &p.UploadedBy, &created); err != nil {
		return nil, err
	}
	p.Chapter = models.Chapter(chapter)
	p.CreatedAt = fromMillis(created)
	return &p, nil
}

func (s *Store) queryPhotos(ctx context.Context, query string, args ...any) ([]models.Photo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := make([]models.Photo, 0)
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, *p)
	}
	return photos, rows.Err()
}

// ListPhotos returns every photo, grouped by chapter in display order and
// sorted by rank inside a chapter
func (s *Store) ListPhotos(ctx context.Context) ([]models.Photo, error) {
	photos, err := s.queryPhotos(ctx, selectPhoto+` ORDER BY photo_order, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}

	rank := make(map[models.Chapter]int, len(models.Chapters))
	for i, c := range models.Chapters {
		rank[c] = i
	}
	sort.SliceStable(photos, func(i, j int) bool {
		return rank[photos[i].Chapter] < rank[photos[j].Chapter]
	})
	return photos, nil
}

// ListChapterPhotos returns the photos of one chapter by rank
func (s *Store) ListChapterPhotos(ctx context.Context, chapter models.Chapter) ([]models.Photo, error) {
	photos, err := s.queryPhotos(ctx, selectPhoto+` WHERE chapter = ? ORDER BY photo_order, created_at`, string(chapter))
	if err != nil {
		return nil, fmt.Errorf("failed to list photos of %s: %w", chapter, err)
	}
	return photos, nil
}

// NextChapterRank returns the rank after the highest one used in a chapter,
// 0 for an empty chapter. Gaps left by deletes are not reused.
func (s *Store) NextChapterRank(ctx context.Context, chapter models.Chapter) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(photo_order) + 1, 0) FROM photos WHERE chapter = ?`, string(chapter)).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to rank photos of %s: %w", chapter, err)
	}
	return next, nil
}

// GetPhoto retrieves a photo by id
func (s *Store) GetPhoto(ctx context.Context, id string) (*models.Photo, error) {
	p, err := scanPhoto(s.db.QueryRowContext(ctx, selectPhoto+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo %s: %w", id, err)
	}
	return p, nil
}

// InsertPhoto adds a photo record
func (s *Store) InsertPhoto(ctx context.Context, p models.Photo) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO photos (id, chapter, caption, storage_path, photo_order, uploaded_by, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Chapter), p.Caption, p.StoragePath, p.Order, p.UploadedBy, p.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert photo: %w", err)
	}
	return nil
}

// UpdateCaption replaces a photo caption
func (s *Store) UpdateCaption(ctx context.Context, id, caption string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE photos SET caption = ? WHERE id = ?`, caption, id); err != nil {
		return fmt.Errorf("failed to update caption of %s: %w", id, err)
	}
	return nil
}

// UpdatePhotoOrder sets the rank of a photo
func (s *Store) UpdatePhotoOrder(ctx context.Context, id string, order int) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE photos SET photo_order = ? WHERE id = ?`, order, id); err != nil {
		return fmt.Errorf("failed to update order of %s: %w", id, err)
	}
	return nil
}

// DeletePhoto removes a photo record
func (s *Store) DeletePhoto(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete photo %s: %w", id, err)
	}
	return nil
}
