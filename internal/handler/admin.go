package handler

import (
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"wedding-journey/internal/admin"
	"wedding-journey/internal/models"
)

const adminKey = "admin"

// AdminHandler serves the operator tools
type AdminHandler struct {
	auth    *admin.Auth
	service *admin.Service
	log     zerolog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(auth *admin.Auth, service *admin.Service, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		auth:    auth,
		service: service,
		log:     log.With().Str("component", "AdminHTTP").Logger(),
	}
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	token, expires, err := h.auth.Login(req.Password)
	if err != nil {
		h.log.Warn().Str("ip", c.IP()).Msg("Failed admin login")
		return err
	}
	return c.JSON(fiber.Map{"token": token, "expires_at": expires})
}

// RequireAdmin rejects requests without a valid bearer token
func (h *AdminHandler) RequireAdmin(c *fiber.Ctx) error {
	token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return admin.ErrInvalidToken
	}
	claims, err := h.auth.Verify(strings.TrimSpace(token))
	if err != nil {
		return err
	}
	c.Locals(adminKey, claims)
	return c.Next()
}

func uploader(c *fiber.Ctx) string {
	if claims, ok := c.Locals(adminKey).(*admin.Claims); ok && claims.Subject != "" {
		return claims.Subject
	}
	return "admin"
}

// respond writes a plan result, failing the request when a step failed
func respond(c *fiber.Ctx, res admin.Result) error {
	status := fiber.StatusOK
	if !res.OK() {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(res)
}

// ListPhotos handles GET /api/admin/photos
func (h *AdminHandler) ListPhotos(c *fiber.Ctx) error {
	photos, err := h.service.ListPhotos(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"photos": photos})
}

// UploadPhotos handles POST /api/admin/photos as multipart form with a
// chapter, an optional caption and one or more files
func (h *AdminHandler) UploadPhotos(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart form expected")
	}

	chapter, err := models.ParseChapter(formValue(form, "chapter"))
	if err != nil {
		return admin.ErrInvalidChapter
	}
	files := form.File["files"]
	if len(files) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no files uploaded")
	}

	req := admin.UploadRequest{
		Chapter:    chapter,
		Caption:    formValue(form, "caption"),
		UploadedBy: uploader(c),
		Files:      make([]admin.Upload, 0, len(files)),
	}
	for _, fh := range files {
		req.Files = append(req.Files, admin.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}

	result, err := h.service.UploadPhotos(c.UserContext(), req)
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if len(result.Photos) == 0 {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(result)
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// UpdateCaption handles PATCH /api/admin/photos/:id
func (h *AdminHandler) UpdateCaption(c *fiber.Ctx) error {
	var req struct {
		Caption string `json:"caption"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	photo, err := h.service.UpdateCaption(c.UserContext(), c.Params("id"), req.Caption)
	if err != nil {
		return err
	}
	return c.JSON(photo)
}

// DeletePhoto handles DELETE /api/admin/photos/:id
func (h *AdminHandler) DeletePhoto(c *fiber.Ctx) error {
	res, err := h.service.DeletePhoto(c.UserContext(), c.Params("id"))
	if err != nil && len(res.Steps) == 0 {
		return err
	}
	return respond(c, res)
}

// MovePhoto handles POST /api/admin/photos/:id/move
func (h *AdminHandler) MovePhoto(c *fiber.Ctx) error {
	var req struct {
		Direction string `json:"direction"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	dir, err := admin.ParseDirection(req.Direction)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	moved, res, err := h.service.MovePhoto(c.UserContext(), c.Params("id"), dir)
	if err != nil && len(res.Steps) == 0 {
		return err
	}
	if err != nil {
		return respond(c, res)
	}
	return c.JSON(fiber.Map{"moved": moved, "steps": res.Steps})
}

// ListPlayers handles GET /api/admin/players
func (h *AdminHandler) ListPlayers(c *fiber.Ctx) error {
	players, err := h.service.ListPlayers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"players": players})
}

// ResetPlayer handles POST /api/admin/players/:id/reset
func (h *AdminHandler) ResetPlayer(c *fiber.Ctx) error {
	id, err := models.ParsePlayerID(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return respond(c, h.service.ResetPlayer(c.UserContext(), id))
}

// ResetBoth handles POST /api/admin/reset
func (h *AdminHandler) ResetBoth(c *fiber.Ctx) error {
	return respond(c, h.service.ResetBoth(c.UserContext()))
}

// Wipe handles POST /api/admin/wipe
func (h *AdminHandler) Wipe(c *fiber.Ctx) error {
	res := h.service.Wipe(c.UserContext())
	if res.OK() {
		h.log.Warn().Str("ip", c.IP()).Msg("Journey wiped")
	}
	return respond(c, res)
}
