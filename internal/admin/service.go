// Package admin implements the operator tools: photo catalog management and
// player resets behind a password login.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-journey/internal/blob"
	"wedding-journey/internal/models"
)

// ErrInvalidChapter is returned for an unknown photo chapter
var ErrInvalidChapter = errors.New("invalid chapter")

// Store is the record store used by the admin tools
type Store interface {
	ListPlayers(ctx context.Context) ([]models.Player, error)
	ResetPlayer(ctx context.Context, id models.PlayerID) error

	ListPhotos(ctx context.Context) ([]models.Photo, error)
	ListChapterPhotos(ctx context.Context, chapter models.Chapter) ([]models.Photo, error)
	NextChapterRank(ctx context.Context, chapter models.Chapter) (int, error)
	GetPhoto(ctx context.Context, id string) (*models.Photo, error)
	InsertPhoto(ctx context.Context, p models.Photo) error
	UpdateCaption(ctx context.Context, id, caption string) error
	UpdatePhotoOrder(ctx context.Context, id string, order int) error
	DeletePhoto(ctx context.Context, id string) error
}

// SessionClearer drops live guest sessions
type SessionClearer interface {
	Clear() int
}

// Service runs the admin flows
type Service struct {
	store    Store
	bucket   blob.Bucket
	sessions SessionClearer
	now      func() time.Time
	newID    func() string
	log      zerolog.Logger
}

// NewService creates the admin service. sessions may be nil.
func NewService(store Store, bucket blob.Bucket, sessions SessionClearer, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		bucket:   bucket,
		sessions: sessions,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      log.With().Str("component", "Admin").Logger(),
	}
}

// PhotoView is a photo record with its public URL
type PhotoView struct {
	models.Photo
	URL string `json:"url"`
}

// ListPhotos returns every photo grouped by chapter
func (s *Service) ListPhotos(ctx context.Context) ([]PhotoView, error) {
	photos, err := s.store.ListPhotos(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PhotoView, 0, len(photos))
	for _, p := range photos {
		out = append(out, PhotoView{Photo: p, URL: s.bucket.PublicURL(p.StoragePath)})
	}
	return out, nil
}

// ListPlayers returns both player records
func (s *Service) ListPlayers(ctx context.Context) ([]models.Player, error) {
	return s.store.ListPlayers(ctx)
}

// Upload is one file of an upload request
type Upload struct {
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// UploadRequest adds files to a chapter
type UploadRequest struct {
	Chapter    models.Chapter
	Caption    string
	UploadedBy string
	Files      []Upload
}

// UploadResult lists the stored photos and the outcome of every file
type UploadResult struct {
	Photos  []models.Photo `json:"photos"`
	Skipped []string       `json:"skipped"`
	Steps   []StepResult   `json:"steps"`
}

// UploadPhotos stores every image of req and records it after the photos
// already in the chapter. Non-image files are skipped. A file whose record
// cannot be written is removed from the bucket again.
func (s *Service) UploadPhotos(ctx context.Context, req UploadRequest) (UploadResult, error) {
	if !req.Chapter.Valid() {
		return UploadResult{}, ErrInvalidChapter
	}

	next, err := s.store.NextChapterRank(ctx, req.Chapter)
	if err != nil {
		return UploadResult{}, err
	}

	uploadedBy := req.UploadedBy
	if uploadedBy == "" {
		uploadedBy = "admin"
	}

	result := UploadResult{Photos: []models.Photo{}, Skipped: []string{}, Steps: []StepResult{}}
	stamp := s.now().UnixMilli()

	for i, f := range req.Files {
		contentType := detectContentType(f)
		if !strings.HasPrefix(contentType, "image/") {
			result.Skipped = append(result.Skipped, f.Filename)
			continue
		}

		photo := models.Photo{
			ID:          s.newID(),
			Chapter:     req.Chapter,
			Caption:     req.Caption,
			StoragePath: fmt.Sprintf("%s/%d-%d.%s", req.Chapter, stamp, i, extension(f.Filename)),
			Order:       next + len(result.Photos),
			UploadedBy:  uploadedBy,
			CreatedAt:   s.now(),
		}

		plan := Plan{
			Name: "upload " + f.Filename,
			Steps: []Step{
				{
					Name: "store file",
					Run: func(ctx context.Context) error {
						r, err := f.Open()
						if err != nil {
							return fmt.Errorf("failed to open upload: %w", err)
						}
						defer r.Close()
						return s.bucket.Put(ctx, photo.StoragePath, contentType, r)
					},
					StopOnError: true,
					Compensate: func(ctx context.Context) error {
						return s.bucket.Delete(ctx, photo.StoragePath)
					},
				},
				{
					Name: "record photo",
					Run: func(ctx context.Context) error {
						return s.store.InsertPhoto(ctx, photo)
					},
					StopOnError: true,
				},
			},
		}

		res := plan.Execute(ctx, s.log)
		result.Steps = append(result.Steps, res.Steps...)
		if res.OK() {
			result.Photos = append(result.Photos, photo)
		}
	}

	s.log.Info().Str("chapter", string(req.Chapter)).Int("uploaded", len(result.Photos)).Int("skipped", len(result.Skipped)).Msg("Photos uploaded")
	return result, nil
}

func detectContentType(f Upload) string {
	ct := f.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = mime.TypeByExtension(filepath.Ext(f.Filename))
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return ct
}

func extension(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return "jpg"
	}
	return ext
}

// DeletePhoto removes the file and then the record. Both steps run even if
// the first fails.
func (s *Service) DeletePhoto(ctx context.Context, id string) (Result, error) {
	photo, err := s.store.GetPhoto(ctx, id)
	if err != nil {
		return Result{}, err
	}

	res := Plan{
		Name: "delete photo " + id,
		Steps: []Step{
			{Name: "delete file", Run: func(ctx context.Context) error {
				return s.bucket.Delete(ctx, photo.StoragePath)
			}},
			{Name: "delete record", Run: func(ctx context.Context) error {
				return s.store.DeletePhoto(ctx, photo.ID)
			}},
		},
	}.Execute(ctx, s.log)
	return res, res.Err()
}

// UpdateCaption replaces the caption of a photo
func (s *Service) UpdateCaption(ctx context.Context, id, caption string) (*models.Photo, error) {
	photo, err := s.store.GetPhoto(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateCaption(ctx, id, caption); err != nil {
		return nil, err
	}
	photo.Caption = caption
	return photo, nil
}

// Direction is where a photo moves inside its chapter
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection validates a raw direction
func ParseDirection(raw string) (Direction, error) {
	switch d := Direction(raw); d {
	case DirectionUp, DirectionDown:
		return d, nil
	}
	return "", fmt.Errorf("unknown direction %q", raw)
}

// MovePhoto swaps the rank of a photo with its neighbour in dir. Moving past
// either end of the chapter does nothing and reports false. The swap is two
// separate writes.
func (s *Service) MovePhoto(ctx context.Context, id string, dir Direction) (bool, Result, error) {
	photo, err := s.store.GetPhoto(ctx, id)
	if err != nil {
		return false, Result{}, err
	}
	siblings, err := s.store.ListChapterPhotos(ctx, photo.Chapter)
	if err != nil {
		return false, Result{}, err
	}

	idx := -1
	for i, p := range siblings {
		if p.ID == photo.ID {
			idx = i
			break
		}
	}
	swap := idx + 1
	if dir == DirectionUp {
		swap = idx - 1
	}
	if idx < 0 || swap < 0 || swap >= len(siblings) {
		return false, Result{}, nil
	}
	other := siblings[swap]

	res := Plan{
		Name: "move photo " + id,
		Steps: []Step{
			{
				Name: "rank " + photo.ID,
				Run: func(ctx context.Context) error {
					return s.store.UpdatePhotoOrder(ctx, photo.ID, other.Order)
				},
				StopOnError: true,
				Compensate: func(ctx context.Context) error {
					return s.store.UpdatePhotoOrder(ctx, photo.ID, photo.Order)
				},
			},
			{
				Name: "rank " + other.ID,
				Run: func(ctx context.Context) error {
					return s.store.UpdatePhotoOrder(ctx, other.ID, photo.Order)
				},
				StopOnError: true,
			},
		},
	}.Execute(ctx, s.log)
	if !res.OK() {
		return false, res, res.Err()
	}
	return true, res, nil
}

// ResetPlayer clears one player's quiz fields
func (s *Service) ResetPlayer(ctx context.Context, id models.PlayerID) Result {
	return Plan{
		Name: "reset " + string(id),
		Steps: []Step{
			{Name: "reset " + string(id), Run: func(ctx context.Context) error {
				return s.store.ResetPlayer(ctx, id)
			}},
		},
	}.Execute(ctx, s.log)
}

// ResetBoth clears the quiz fields of both players one after the other
func (s *Service) ResetBoth(ctx context.Context) Result {
	return Plan{Name: "reset both", Steps: s.resetSteps()}.Execute(ctx, s.log)
}

// Wipe resets both players and drops every live guest session so browsers
// start again from the gate
func (s *Service) Wipe(ctx context.Context) Result {
	steps := s.resetSteps()
	steps = append(steps, Step{Name: "clear sessions", Run: func(ctx context.Context) error {
		if s.sessions == nil {
			return nil
		}
		n := s.sessions.Clear()
		s.log.Info().Int("sessions", n).Msg("Cleared guest sessions")
		return nil
	}})
	return Plan{Name: "wipe", Steps: steps}.Execute(ctx, s.log)
}

func (s *Service) resetSteps() []Step {
	steps := make([]Step, 0, len(models.Players))
	for _, id := range models.Players {
		steps = append(steps, Step{Name: "reset " + string(id), Run: func(ctx context.Context) error {
			return s.store.ResetPlayer(ctx, id)
		}})
	}
	return steps
}
