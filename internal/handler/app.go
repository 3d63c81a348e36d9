// Package handler exposes the journey and the admin tools over HTTP.
package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"wedding-journey/internal/admin"
	"wedding-journey/internal/journey"
	"wedding-journey/internal/roster"
	"wedding-journey/internal/storage"
	"wedding-journey/internal/whatsapp"
)

// Options tunes the HTTP surface
type Options struct {
	WaitingLongPoll  time.Duration
	PollInterval     time.Duration
	CelebrationDelay time.Duration
	GateRateLimit    int

	// StaticDir is served at / when set
	StaticDir string
	// MediaDir is served under MediaPrefix when photos live on local disk
	MediaDir    string
	MediaPrefix string
}

func (o Options) withDefaults() Options {
	if o.WaitingLongPoll <= 0 {
		o.WaitingLongPoll = 25 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = journey.DefaultPollInterval
	}
	if o.CelebrationDelay <= 0 {
		o.CelebrationDelay = journey.DefaultCelebrationDelay
	}
	if o.GateRateLimit <= 0 {
		o.GateRateLimit = 10
	}
	if o.MediaPrefix == "" {
		o.MediaPrefix = "/media"
	}
	return o
}

// NewApp creates the fiber app with every route registered
func NewApp(journeyHandler *JourneyHandler, adminHandler *AdminHandler, opts Options, log zerolog.Logger) *fiber.App {
	opts = opts.withDefaults()

	app := fiber.New(fiber.Config{
		AppName:               "wedding-journey",
		DisableStartupMessage: true,
		BodyLimit:             32 << 20,
		ErrorHandler:          errorHandler(log),
	})

	accessLog := log.With().Str("component", "HTTP").Logger()
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Output: &accessLog,
		Format: "${status} ${method} ${path} ${latency}",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/journey", journeyHandler.Session)
	api.Post("/gate", rateLimit(opts.GateRateLimit), journeyHandler.Gate)
	api.Get("/state", journeyHandler.State)
	api.Post("/advance", journeyHandler.Advance)
	api.Post("/replay", journeyHandler.Replay)
	api.Get("/gallery", journeyHandler.Gallery)
	api.Get("/swipe", journeyHandler.Scenarios)
	api.Post("/swipe", journeyHandler.Swipe)
	api.Get("/quiz", journeyHandler.Questions)
	api.Post("/quiz", journeyHandler.SubmitQuiz)
	api.Get("/waiting", journeyHandler.Waiting)
	api.Post("/nudge", journeyHandler.Nudge)
	api.Get("/compatibility", journeyHandler.Compatibility)
	api.Get("/fortune", journeyHandler.Fortune)
	api.Post("/gift", journeyHandler.Gift)

	adm := app.Group("/api/admin")
	adm.Post("/login", rateLimit(opts.GateRateLimit), adminHandler.Login)
	adm.Use(adminHandler.RequireAdmin)
	adm.Get("/photos", adminHandler.ListPhotos)
	adm.Post("/photos", adminHandler.UploadPhotos)
	adm.Patch("/photos/:id", adminHandler.UpdateCaption)
	adm.Delete("/photos/:id", adminHandler.DeletePhoto)
	adm.Post("/photos/:id/move", adminHandler.MovePhoto)
	adm.Get("/players", adminHandler.ListPlayers)
	adm.Post("/players/:id/reset", adminHandler.ResetPlayer)
	adm.Post("/reset", adminHandler.ResetBoth)
	adm.Post("/wipe", adminHandler.Wipe)

	if opts.MediaDir != "" {
		app.Static(opts.MediaPrefix, opts.MediaDir)
	}
	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	return app
}

func rateLimit(limit int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many attempts. Please try again later.",
			})
		},
	})
}

var errWrongStage = errors.New("not available at this stage")

// statusFor maps an error to the response status and message
func statusFor(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, roster.ErrUnknownPhone):
		return fiber.StatusForbidden, "This number is not on the guest list"
	case errors.Is(err, journey.ErrNoParticipant):
		return fiber.StatusUnauthorized, err.Error()
	case errors.Is(err, journey.ErrNotAtGate),
		errors.Is(err, journey.ErrCooldownActive),
		errors.Is(err, journey.ErrReplayNotAllowed),
		errors.Is(err, errWrongStage):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, whatsapp.ErrNudgeTooSoon):
		return fiber.StatusTooManyRequests, err.Error()
	case errors.Is(err, storage.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, admin.ErrBadCredentials):
		return fiber.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, admin.ErrInvalidToken):
		return fiber.StatusUnauthorized, "unauthorized"
	case errors.Is(err, admin.ErrInvalidChapter):
		return fiber.StatusBadRequest, err.Error()
	}
	return fiber.StatusInternalServerError, "internal server error"
}

func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	log = log.With().Str("component", "HTTP").Logger()
	return func(c *fiber.Ctx, err error) error {
		code, msg := statusFor(err)
		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("Request failed")
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}
