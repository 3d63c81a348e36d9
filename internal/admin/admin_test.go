package admin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"wedding-journey/internal/models"
)

var errNotFound = errors.New("not found")

type stubStore struct {
	photos    map[string]models.Photo
	resets    []models.PlayerID
	resetErr  map[models.PlayerID]error
	insertErr error
	orderErrs map[string]error
}

func newStubStore(photos ...models.Photo) *stubStore {
	s := &stubStore{
		photos:    make(map[string]models.Photo),
		resetErr:  make(map[models.PlayerID]error),
		orderErrs: make(map[string]error),
	}
	for _, p := range photos {
		s.photos[p.ID] = p
	}
	return s
}

func (s *stubStore) ListPlayers(ctx context.Context) ([]models.Player, error) {
	return []models.Player{{ID: models.Manoj}, {ID: models.Pooja}}, nil
}

func (s *stubStore) ResetPlayer(ctx context.Context, id models.PlayerID) error {
	if err := s.resetErr[id]; err != nil {
		return err
	}
	s.resets = append(s.resets, id)
	return nil
}

func (s *stubStore) ListPhotos(ctx context.Context) ([]models.Photo, error) {
	var out []models.Photo
	for _, p := range s.photos {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *stubStore) ListChapterPhotos(ctx context.Context, chapter models.Chapter) ([]models.Photo, error) {
	var out []models.Photo
	for _, p := range s.photos {
		if p.Chapter == chapter {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *stubStore) NextChapterRank(ctx context.Context, chapter models.Chapter) (int, error) {
	next := 0
	for _, p := range s.photos {
		if p.Chapter == chapter && p.Order >= next {
			next = p.Order + 1
		}
	}
	return next, nil
}

func (s *stubStore) GetPhoto(ctx context.Context, id string) (*models.Photo, error) {
	p, ok := s.photos[id]
	if !ok {
		return nil, errNotFound
	}
	return &p, nil
}

func (s *stubStore) InsertPhoto(ctx context.Context, p models.Photo) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.photos[p.ID] = p
	return nil
}

func (s *stubStore) UpdateCaption(ctx context.Context, id, caption string) error {
	p := s.photos[id]
	p.Caption = caption
	s.photos[id] = p
	return nil
}

func (s *stubStore) UpdatePhotoOrder(ctx context.Context, id string, order int) error {
	if err := s.orderErrs[id]; err != nil {
		return err
	}
	p := s.photos[id]
	p.Order = order
	s.photos[id] = p
	return nil
}

func (s *stubStore) DeletePhoto(ctx context.Context, id string) error {
	delete(s.photos, id)
	return nil
}

type stubBucket struct {
	objects   map[string][]byte
	deleteErr error
}

func newStubBucket() *stubBucket {
	return &stubBucket{objects: make(map[string][]byte)}
}

func (b *stubBucket) Put(ctx context.Context, objectPath, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.objects[objectPath] = data
	return nil
}

func (b *stubBucket) PublicURL(objectPath string) string {
	return "https://cdn.test/" + objectPath
}

func (b *stubBucket) Delete(ctx context.Context, objectPath string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.objects, objectPath)
	return nil
}

type countingClearer struct{ cleared int }

func (c *countingClearer) Clear() int {
	c.cleared++
	return 3
}

func newTestService(store Store, bucket *stubBucket) *Service {
	s := NewService(store, bucket, nil, zerolog.Nop())
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	n := 0
	s.newID = func() string {
		n++
		return "photo-" + string(rune('a'+n-1))
	}
	return s
}

func upload(name, contentType, body string) Upload {
	return Upload{
		Filename:    name,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewBufferString(body)), nil
		},
	}
}

func TestPlanContinuesAfterFailure(t *testing.T) {
	var ran []string
	step := func(name string, err error) Step {
		return Step{Name: name, Run: func(ctx context.Context) error {
			ran = append(ran, name)
			return err
		}}
	}

	res := Plan{Name: "test", Steps: []Step{
		step("one", nil),
		step("two", errors.New("boom")),
		step("three", nil),
	}}.Execute(context.Background(), zerolog.Nop())

	if strings.Join(ran, ",") != "one,two,three" {
		t.Fatalf("expected every step to run, got %v", ran)
	}
	if res.OK() {
		t.Fatalf("expected plan to report failure")
	}
	if !res.Steps[0].OK || res.Steps[1].OK || res.Steps[1].Error != "boom" || !res.Steps[2].OK {
		t.Fatalf("unexpected step results %+v", res.Steps)
	}
	if res.Err() == nil || !strings.Contains(res.Err().Error(), "two: boom") {
		t.Fatalf("unexpected error %v", res.Err())
	}
}

func TestPlanStopOnErrorCompensates(t *testing.T) {
	undone := false
	undo := func(ctx context.Context) error {
		undone = true
		return nil
	}
	res := Plan{Name: "test", Steps: []Step{
		{
			Name:       "first",
			Run:        func(ctx context.Context) error { return nil },
			Compensate: undo,
		},
		{
			Name:        "second",
			Run:         func(ctx context.Context) error { return errors.New("boom") },
			StopOnError: true,
		},
		{
			Name: "third",
			Run: func(ctx context.Context) error {
				t.Errorf("third step must not run")
				return nil
			},
		},
	}}.Execute(context.Background(), zerolog.Nop())

	if !undone || !res.Steps[0].Compensated {
		t.Fatalf("expected first step to be undone, got %+v", res.Steps[0])
	}
	if !res.Steps[2].Skipped {
		t.Fatalf("expected third step to be skipped, got %+v", res.Steps[2])
	}
}

func TestAuthLoginAndVerify(t *testing.T) {
	a, err := NewAuth("", "shaadi", "secret", time.Hour)
	if err != nil {
		t.Fatalf("NewAuth returned error: %v", err)
	}

	if _, _, err := a.Login("wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}

	token, expires, err := a.Login("shaadi")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if expires.Before(time.Now()) {
		t.Fatalf("token already expired")
	}
	claims, err := a.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.Subject != "admin" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}

	// Flip a character of the signature
	tampered := token[:len(token)-2] + string(rune(token[len(token)-2]^1)) + token[len(token)-1:]
	if _, err := a.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}

	other, _ := NewAuth("", "shaadi", "other-secret", time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign token, got %v", err)
	}
}

func TestAuthRejectsExpiredAndUnsignedTokens(t *testing.T) {
	a, err := NewAuth("", "shaadi", "secret", time.Hour)
	if err != nil {
		t.Fatalf("NewAuth returned error: %v", err)
	}
	token, _, err := a.Login("shaadi")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := a.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}
	if _, err := a.Verify(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for unsigned token, got %v", err)
	}
}

func TestNewAuthWithHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("mehendi"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	a, err := NewAuth(string(hash), "", "secret", time.Hour)
	if err != nil {
		t.Fatalf("NewAuth returned error: %v", err)
	}
	if _, _, err := a.Login("mehendi"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if _, err := NewAuth("not-a-hash", "", "secret", time.Hour); err == nil {
		t.Fatalf("expected error for invalid hash")
	}
	if _, err := NewAuth("", "", "secret", time.Hour); err == nil {
		t.Fatalf("expected error without password")
	}
	if _, err := NewAuth("", "pw", "", time.Hour); err == nil {
		t.Fatalf("expected error without secret")
	}
}

func TestUploadPhotos(t *testing.T) {
	store := newStubStore(models.Photo{ID: "old", Chapter: models.ChapterSquad, Order: 0})
	bucket := newStubBucket()
	s := newTestService(store, bucket)

	res, err := s.UploadPhotos(context.Background(), UploadRequest{
		Chapter: models.ChapterSquad,
		Caption: "Goa 2019",
		Files: []Upload{
			upload("beach.JPG", "image/jpeg", "jpeg-bytes"),
			upload("notes.txt", "text/plain", "not an image"),
			upload("sunset.png", "", "png-bytes"),
		},
	})
	if err != nil {
		t.Fatalf("UploadPhotos returned error: %v", err)
	}
	if len(res.Photos) != 2 || len(res.Skipped) != 1 || res.Skipped[0] != "notes.txt" {
		t.Fatalf("unexpected result %+v", res)
	}

	first := res.Photos[0]
	if first.StoragePath != "squad/1700000000000-0.jpg" || first.Order != 1 || first.UploadedBy != "admin" || first.Caption != "Goa 2019" {
		t.Fatalf("unexpected first photo %+v", first)
	}
	second := res.Photos[1]
	if second.StoragePath != "squad/1700000000000-2.png" || second.Order != 2 {
		t.Fatalf("unexpected second photo %+v", second)
	}
	if string(bucket.objects[first.StoragePath]) != "jpeg-bytes" {
		t.Fatalf("file not stored")
	}
	if _, ok := store.photos[second.ID]; !ok {
		t.Fatalf("record not stored")
	}
}

func TestUploadPhotosRemovesFileWhenRecordFails(t *testing.T) {
	store := newStubStore()
	store.insertErr = errors.New("db down")
	bucket := newStubBucket()
	s := newTestService(store, bucket)

	res, err := s.UploadPhotos(context.Background(), UploadRequest{
		Chapter: models.ChapterCouple,
		Files:   []Upload{upload("us.jpg", "image/jpeg", "bytes")},
	})
	if err != nil {
		t.Fatalf("UploadPhotos returned error: %v", err)
	}
	if len(res.Photos) != 0 {
		t.Fatalf("expected no stored photos, got %+v", res.Photos)
	}
	if len(bucket.objects) != 0 {
		t.Fatalf("expected orphaned file to be removed, got %v", bucket.objects)
	}
	if !res.Steps[0].Compensated || res.Steps[1].Error == "" {
		t.Fatalf("unexpected steps %+v", res.Steps)
	}
}

func TestUploadPhotosInvalidChapter(t *testing.T) {
	s := newTestService(newStubStore(), newStubBucket())
	if _, err := s.UploadPhotos(context.Background(), UploadRequest{Chapter: "wedding"}); !errors.Is(err, ErrInvalidChapter) {
		t.Fatalf("expected ErrInvalidChapter, got %v", err)
	}
}

func squadPhotos() []models.Photo {
	return []models.Photo{
		{ID: "p0", Chapter: models.ChapterSquad, Order: 0},
		{ID: "p1", Chapter: models.ChapterSquad, Order: 1},
		{ID: "p2", Chapter: models.ChapterSquad, Order: 2},
		{ID: "other", Chapter: models.ChapterCouple, Order: 0},
	}
}

func TestMovePhotoSwapsRanks(t *testing.T) {
	store := newStubStore(squadPhotos()...)
	s := newTestService(store, newStubBucket())

	moved, _, err := s.MovePhoto(context.Background(), "p1", DirectionUp)
	if err != nil || !moved {
		t.Fatalf("expected move, got %v, %v", moved, err)
	}

	got := []int{store.photos["p0"].Order, store.photos["p1"].Order, store.photos["p2"].Order}
	want := []int{1, 0, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected ranks %v, got %v", want, got)
		}
	}
	if store.photos["other"].Order != 0 {
		t.Fatalf("other chapter must not change")
	}
}

func TestMovePhotoAtEdgesIsNoop(t *testing.T) {
	store := newStubStore(squadPhotos()...)
	s := newTestService(store, newStubBucket())

	if moved, _, err := s.MovePhoto(context.Background(), "p0", DirectionUp); err != nil || moved {
		t.Fatalf("expected no move at the top, got %v, %v", moved, err)
	}
	if moved, _, err := s.MovePhoto(context.Background(), "p2", DirectionDown); err != nil || moved {
		t.Fatalf("expected no move at the bottom, got %v, %v", moved, err)
	}
	if store.photos["p0"].Order != 0 || store.photos["p2"].Order != 2 {
		t.Fatalf("ranks must not change")
	}
}

func TestMovePhotoRestoresRankWhenSecondWriteFails(t *testing.T) {
	store := newStubStore(squadPhotos()...)
	store.orderErrs["p2"] = errors.New("db down")
	s := newTestService(store, newStubBucket())

	moved, res, err := s.MovePhoto(context.Background(), "p1", DirectionDown)
	if err == nil || moved {
		t.Fatalf("expected failed move, got %v, %v", moved, err)
	}
	if store.photos["p1"].Order != 1 || store.photos["p2"].Order != 2 {
		t.Fatalf("expected ranks restored, got p1=%d p2=%d", store.photos["p1"].Order, store.photos["p2"].Order)
	}
	if !res.Steps[0].Compensated {
		t.Fatalf("expected first write to be undone, got %+v", res.Steps)
	}
}

func TestDeletePhotoRunsBothSteps(t *testing.T) {
	store := newStubStore(models.Photo{ID: "p", Chapter: models.ChapterSquad, StoragePath: "squad/p.jpg"})
	bucket := newStubBucket()
	bucket.deleteErr = errors.New("bucket down")
	s := newTestService(store, bucket)

	res, err := s.DeletePhoto(context.Background(), "p")
	if err == nil {
		t.Fatalf("expected the file step error")
	}
	if res.Steps[0].OK || !res.Steps[1].OK {
		t.Fatalf("unexpected steps %+v", res.Steps)
	}
	if _, ok := store.photos["p"]; ok {
		t.Fatalf("record should be deleted even though the file step failed")
	}

	if _, err := s.DeletePhoto(context.Background(), "missing"); !errors.Is(err, errNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateCaption(t *testing.T) {
	store := newStubStore(models.Photo{ID: "p", Chapter: models.ChapterSquad})
	s := newTestService(store, newStubBucket())

	p, err := s.UpdateCaption(context.Background(), "p", "Bros forever")
	if err != nil || p.Caption != "Bros forever" || store.photos["p"].Caption != "Bros forever" {
		t.Fatalf("unexpected caption update %+v, %v", p, err)
	}
}

func TestResets(t *testing.T) {
	store := newStubStore()
	store.resetErr[models.Manoj] = errors.New("db down")
	clearer := &countingClearer{}
	s := NewService(store, newStubBucket(), clearer, zerolog.Nop())

	res := s.ResetBoth(context.Background())
	if res.OK() {
		t.Fatalf("expected failure to be reported")
	}
	if len(store.resets) != 1 || store.resets[0] != models.Pooja {
		t.Fatalf("expected pooja reset after manoj failed, got %v", store.resets)
	}

	delete(store.resetErr, models.Manoj)
	res = s.Wipe(context.Background())
	if !res.OK() || len(res.Steps) != 3 || clearer.cleared != 1 {
		t.Fatalf("unexpected wipe result %+v", res)
	}

	res = s.ResetPlayer(context.Background(), models.Manoj)
	if !res.OK() || store.resets[len(store.resets)-1] != models.Manoj {
		t.Fatalf("unexpected reset result %+v", res)
	}
}

func TestListPhotosAddsURL(t *testing.T) {
	store := newStubStore(models.Photo{ID: "p", Chapter: models.ChapterSquad, StoragePath: "squad/p.jpg"})
	s := newTestService(store, newStubBucket())

	photos, err := s.ListPhotos(context.Background())
	if err != nil || len(photos) != 1 || photos[0].URL != "https://cdn.test/squad/p.jpg" {
		t.Fatalf("unexpected photos %+v, %v", photos, err)
	}
}

func TestParseDirection(t *testing.T) {
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatalf("expected error")
	}
	if d, err := ParseDirection("up"); err != nil || d != DirectionUp {
		t.Fatalf("unexpected %v, %v", d, err)
	}
}

func TestUploadPhotosAfterDeleteKeepsRanksUnique(t *testing.T) {
	store := newStubStore(
		models.Photo{ID: "a", Chapter: models.ChapterCouple, Order: 0},
		models.Photo{ID: "c", Chapter: models.ChapterCouple, Order: 2},
	)
	s := newTestService(store, newStubBucket())

	res, err := s.UploadPhotos(context.Background(), UploadRequest{
		Chapter: models.ChapterCouple,
		Files:   []Upload{upload("d.jpg", "image/jpeg", "d"), upload("e.jpg", "image/jpeg", "e")},
	})
	if err != nil {
		t.Fatalf("UploadPhotos returned error: %v", err)
	}
	if len(res.Photos) != 2 || res.Photos[0].Order != 3 || res.Photos[1].Order != 4 {
		t.Fatalf("expected ranks 3 and 4, got %+v", res.Photos)
	}
}
