package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wedding-journey/internal/admin"
	"wedding-journey/internal/journey"
	"wedding-journey/internal/models"
)

func (h *harness) adminClient(t *testing.T) *client {
	t.Helper()
	c := h.client(t)

	var login struct {
		Token string `json:"token"`
	}
	if code := c.do(http.MethodPost, "/api/admin/login", map[string]string{"password": password}, &login); code != http.StatusOK || login.Token == "" {
		t.Fatalf("login returned %d", code)
	}
	c.token = login.Token
	return c
}

type uploadFile struct {
	name string
	data []byte
}

func (c *client) upload(chapter, caption string, files ...uploadFile) (int, admin.UploadResult) {
	c.t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("chapter", chapter)
	w.WriteField("caption", caption)
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.name)
		if err != nil {
			c.t.Fatalf("CreateFormFile returned error: %v", err)
		}
		part.Write(f.data)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/photos", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	var res admin.UploadResult
	code := c.send(req, &res)
	return code, res
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nnot really a picture")

func TestAdminLogin(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	c := h.client(t)

	if code := c.do(http.MethodPost, "/api/admin/login", map[string]string{"password": "wrong"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong password, got %d", code)
	}
	if code := c.do(http.MethodGet, "/api/admin/players", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", code)
	}
	c.token = "not-a-token"
	if code := c.do(http.MethodGet, "/api/admin/players", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", code)
	}

	a := h.adminClient(t)
	var players struct {
		Players []models.Player `json:"players"`
	}
	if code := a.do(http.MethodGet, "/api/admin/players", nil, &players); code != http.StatusOK || len(players.Players) != 2 {
		t.Fatalf("expected both players, got %d %+v", code, players)
	}
}

func TestAdminPhotoLifecycle(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	a := h.adminClient(t)

	code, res := a.upload("college", "Canteen days",
		uploadFile{"first.png", pngBytes},
		uploadFile{"notes.txt", []byte("hello")},
		uploadFile{"second.png", pngBytes},
	)
	if code != http.StatusCreated {
		t.Fatalf("upload returned %d", code)
	}
	if len(res.Photos) != 2 || len(res.Skipped) != 1 || res.Skipped[0] != "notes.txt" {
		t.Fatalf("unexpected upload result %+v", res)
	}
	first, second := res.Photos[0], res.Photos[1]
	if first.Order != 0 || second.Order != 1 || first.Chapter != models.ChapterCollege {
		t.Fatalf("unexpected ranks %d, %d", first.Order, second.Order)
	}

	// the stored file is served from the media route
	resp, err := h.app.Test(httptest.NewRequest(http.MethodGet, "/media/"+first.StoragePath, nil), -1)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected the photo to be served, got %v %v", resp, err)
	}

	// guests see the uploads instead of placeholders
	guest := h.client(t)
	guest.gate(manojPhone)
	var gallery struct {
		Chapters []struct {
			ID     models.Chapter `json:"id"`
			Photos []struct {
				URL     string `json:"url"`
				Caption string `json:"caption"`
			} `json:"photos"`
		} `json:"chapters"`
	}
	guest.do(http.MethodGet, "/api/journey/gallery", nil, &gallery)
	for _, ch := range gallery.Chapters {
		if ch.ID != models.ChapterCollege {
			continue
		}
		if len(ch.Photos) != 2 || ch.Photos[0].URL != "/media/"+first.StoragePath || ch.Photos[0].Caption != "Canteen days" {
			t.Fatalf("unexpected college chapter %+v", ch)
		}
	}

	var moved struct {
		Moved bool `json:"moved"`
	}
	if code := a.do(http.MethodPost, "/api/admin/photos/"+second.ID+"/move", map[string]string{"direction": "up"}, &moved); code != http.StatusOK || !moved.Moved {
		t.Fatalf("expected the photo to move up, got %d %+v", code, moved)
	}
	if code := a.do(http.MethodPost, "/api/admin/photos/"+second.ID+"/move", map[string]string{"direction": "up"}, &moved); code != http.StatusOK || moved.Moved {
		t.Fatalf("moving past the top must be a no-op, got %d %+v", code, moved)
	}
	if code := a.do(http.MethodPost, "/api/admin/photos/"+second.ID+"/move", map[string]string{"direction": "sideways"}, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad direction, got %d", code)
	}

	var list struct {
		Photos []admin.PhotoView `json:"photos"`
	}
	a.do(http.MethodGet, "/api/admin/photos", nil, &list)
	if len(list.Photos) != 2 || list.Photos[0].ID != second.ID {
		t.Fatalf("expected the moved photo first, got %+v", list.Photos)
	}

	var updated models.Photo
	if code := a.do(http.MethodPatch, "/api/admin/photos/"+first.ID, map[string]string{"caption": "Library naps"}, &updated); code != http.StatusOK || updated.Caption != "Library naps" {
		t.Fatalf("caption update returned %d %+v", code, updated)
	}

	var deleted admin.Result
	if code := a.do(http.MethodDelete, "/api/admin/photos/"+first.ID, nil, &deleted); code != http.StatusOK || len(deleted.Steps) != 2 {
		t.Fatalf("delete returned %d %+v", code, deleted)
	}
	if code := a.do(http.MethodDelete, "/api/admin/photos/"+first.ID, nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for a deleted photo, got %d", code)
	}
	if code := a.do(http.MethodPatch, "/api/admin/photos/missing", map[string]string{"caption": "x"}, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing photo, got %d", code)
	}
}

func TestAdminUploadValidation(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	a := h.adminClient(t)

	if code, _ := a.upload("honeymoon", "", uploadFile{"a.png", pngBytes}); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown chapter, got %d", code)
	}
	if code, _ := a.upload("squad", ""); code != http.StatusBadRequest {
		t.Fatalf("expected 400 without files, got %d", code)
	}
	if code, _ := a.upload("squad", "", uploadFile{"notes.txt", []byte("hi")}); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 when nothing was stored, got %d", code)
	}
}

func TestAdminResets(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	a := h.adminClient(t)
	ctx := context.Background()

	for _, id := range models.Players {
		if err := h.store.SaveQuizResult(ctx, id, map[string]int{"travel-4": 1}, 0); err != nil {
			t.Fatalf("SaveQuizResult returned error: %v", err)
		}
	}

	var res admin.Result
	if code := a.do(http.MethodPost, "/api/admin/players/pooja/reset", nil, &res); code != http.StatusOK || len(res.Steps) != 1 {
		t.Fatalf("reset returned %d %+v", code, res)
	}
	if p, _ := h.store.GetPlayer(ctx, models.Pooja); p.QuizCompleted {
		t.Fatalf("pooja must be reset")
	}
	if p, _ := h.store.GetPlayer(ctx, models.Manoj); !p.QuizCompleted {
		t.Fatalf("manoj must be untouched")
	}
	if code := a.do(http.MethodPost, "/api/admin/players/groom/reset", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown player, got %d", code)
	}

	if code := a.do(http.MethodPost, "/api/admin/reset", nil, &res); code != http.StatusOK || len(res.Steps) != 2 {
		t.Fatalf("reset both returned %d %+v", code, res)
	}
	if p, _ := h.store.GetPlayer(ctx, models.Manoj); p.QuizCompleted {
		t.Fatalf("manoj must be reset")
	}
}

func TestAdminWipeClearsSessions(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	guest := h.client(t)
	guest.gate(poojaPhone)
	guest.advance(journey.StageIntro)

	a := h.adminClient(t)
	var res admin.Result
	if code := a.do(http.MethodPost, "/api/admin/wipe", nil, &res); code != http.StatusOK || len(res.Steps) != 3 {
		t.Fatalf("wipe returned %d %+v", code, res)
	}

	if st := guest.stage(); st != journey.StageGate {
		t.Fatalf("a wiped guest must start again at the gate, got %s", st)
	}
}

func TestAdminUploadAfterDeleteKeepsRanksUnique(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	a := h.adminClient(t)

	code, res := a.upload("couple", "",
		uploadFile{"a.png", pngBytes},
		uploadFile{"b.png", pngBytes},
		uploadFile{"c.png", pngBytes},
	)
	if code != http.StatusCreated || len(res.Photos) != 3 {
		t.Fatalf("upload returned %d %+v", code, res)
	}
	if code := a.do(http.MethodDelete, "/api/admin/photos/"+res.Photos[1].ID, nil, nil); code != http.StatusOK {
		t.Fatalf("delete returned %d", code)
	}

	// object paths are keyed by upload millisecond
	time.Sleep(5 * time.Millisecond)
	code, res = a.upload("couple", "", uploadFile{"d.png", pngBytes})
	if code != http.StatusCreated || len(res.Photos) != 1 {
		t.Fatalf("second upload returned %d %+v", code, res)
	}
	d := res.Photos[0]

	ranks := func() []string {
		var list struct {
			Photos []admin.PhotoView `json:"photos"`
		}
		a.do(http.MethodGet, "/api/admin/photos", nil, &list)
		ids := make([]string, 0, len(list.Photos))
		seen := make(map[int]bool)
		for _, p := range list.Photos {
			if seen[p.Order] {
				t.Fatalf("rank %d used twice in %+v", p.Order, list.Photos)
			}
			seen[p.Order] = true
			ids = append(ids, p.ID)
		}
		return ids
	}

	before := ranks()
	if len(before) != 3 || before[2] != d.ID {
		t.Fatalf("expected the new photo last, got %v", before)
	}

	var moved struct {
		Moved bool `json:"moved"`
	}
	if code := a.do(http.MethodPost, "/api/admin/photos/"+d.ID+"/move", map[string]string{"direction": "up"}, &moved); code != http.StatusOK || !moved.Moved {
		t.Fatalf("move returned %d %+v", code, moved)
	}
	after := ranks()
	if after[1] != d.ID {
		t.Fatalf("expected the new photo to move up, got %v", after)
	}
}
