package handler

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"wedding-journey/internal/blob"
	"wedding-journey/internal/content"
	"wedding-journey/internal/journey"
	"wedding-journey/internal/models"
	"wedding-journey/internal/quiz"
	"wedding-journey/internal/roster"
	"wedding-journey/internal/session"
	"wedding-journey/internal/whatsapp"
)

const sessionKey = "session"

// JourneyStore is the part of the record store the guest routes use
type JourneyStore interface {
	journey.PlayerStore
	journey.CompletionChecker
	SaveQuizResult(ctx context.Context, id models.PlayerID, answers map[string]int, score int) error
	MergeSwipeAnswers(ctx context.Context, id models.PlayerID, swipes map[string]models.PlayerID) (map[string]models.PlayerID, error)
	StampCompletion(ctx context.Context, id models.PlayerID) error
	ListPhotos(ctx context.Context) ([]models.Photo, error)
}

// JourneyHandler serves the guest journey
type JourneyHandler struct {
	roster   *roster.Roster
	sessions *session.Registry
	store    JourneyStore
	feed     journey.Subscriber
	bucket   blob.Bucket
	nudger   *whatsapp.Nudger
	opts     Options
	log      zerolog.Logger
}

// NewJourneyHandler creates a new journey handler. nudger may be nil.
func NewJourneyHandler(r *roster.Roster, sessions *session.Registry, store JourneyStore, feed journey.Subscriber, bucket blob.Bucket, nudger *whatsapp.Nudger, opts Options, log zerolog.Logger) *JourneyHandler {
	return &JourneyHandler{
		roster:   r,
		sessions: sessions,
		store:    store,
		feed:     feed,
		bucket:   bucket,
		nudger:   nudger,
		opts:     opts.withDefaults(),
		log:      log.With().Str("component", "Journey").Logger(),
	}
}

// Session attaches the caller's session, starting one at the gate if the
// cookie is missing or stale
func (h *JourneyHandler) Session(c *fiber.Ctx) error {
	s, ok := h.sessions.Get(c.Cookies(session.CookieName))
	if !ok {
		s = h.sessions.Create()
		c.Cookie(&fiber.Cookie{
			Name:     session.CookieName,
			Value:    s.ID,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	c.Locals(sessionKey, s)
	return c.Next()
}

func currentSession(c *fiber.Ctx) *session.Session {
	s, _ := c.Locals(sessionKey).(*session.Session)
	return s
}

func only(stage journey.Stage) func(journey.Stage) bool {
	return func(s journey.Stage) bool { return s == stage }
}

func from(stage journey.Stage) func(journey.Stage) bool {
	return func(s journey.Stage) bool { return s.Reached(stage) }
}

// at returns the session and its participant when the current stage passes
// allowed
func (h *JourneyHandler) at(c *fiber.Ctx, allowed func(journey.Stage) bool) (*session.Session, roster.Participant, error) {
	s := currentSession(c)
	snap := s.Machine.Snapshot()
	if snap.Participant == nil {
		return nil, roster.Participant{}, journey.ErrNoParticipant
	}
	if !allowed(snap.Stage) {
		return nil, roster.Participant{}, errWrongStage
	}
	return s, *snap.Participant, nil
}

type stateResponse struct {
	Stage             journey.Stage       `json:"stage"`
	Participant       *roster.Participant `json:"participant,omitempty"`
	PartnerName       string              `json:"partner_name,omitempty"`
	CooldownRemaining int64               `json:"cooldown_remaining_seconds,omitempty"`
	Cues              []journey.Cue       `json:"cues"`
}

func (h *JourneyHandler) state(s *session.Session) stateResponse {
	snap := s.Machine.Snapshot()
	resp := stateResponse{
		Stage:       snap.Stage,
		Participant: snap.Participant,
		Cues:        s.DrainCues(),
	}
	if snap.Participant != nil {
		resp.PartnerName = h.roster.DisplayName(snap.Participant.PartnerID())
	}
	if snap.CooldownRemaining > 0 {
		resp.CooldownRemaining = int64(math.Ceil(snap.CooldownRemaining.Seconds()))
	}
	return resp
}

// Gate handles POST /api/journey/gate
func (h *JourneyHandler) Gate(c *fiber.Ctx) error {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Phone) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone is required")
	}

	p, err := h.roster.Resolve(req.Phone)
	if err != nil {
		h.log.Warn().Str("ip", c.IP()).Msg("Unknown phone number at the gate")
		return err
	}

	s := currentSession(c)
	stage, err := s.Machine.Enter(c.UserContext(), p)
	if err != nil {
		return err
	}

	h.log.Info().Str("player", string(p.ID)).Str("stage", string(stage)).Msg("Participant passed the gate")
	return c.JSON(h.state(s))
}

// State handles GET /api/journey/state
func (h *JourneyHandler) State(c *fiber.Ctx) error {
	return c.JSON(h.state(currentSession(c)))
}

type advanceResponse struct {
	Advanced bool `json:"advanced"`
	stateResponse
}

// Advance handles POST /api/journey/advance. Advancing a stage the session
// already left is a no-op.
func (h *JourneyHandler) Advance(c *fiber.Ctx) error {
	var req struct {
		From string `json:"from"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	stage, err := journey.ParseStage(req.From)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if !stage.ClientAdvanced() {
		return fiber.NewError(fiber.StatusConflict, "stage "+string(stage)+" cannot be advanced by the browser")
	}

	s := currentSession(c)
	if _, err := s.Machine.Participant(); err != nil {
		return err
	}

	advanced := s.Machine.Advancer(stage)()
	return c.JSON(advanceResponse{Advanced: advanced, stateResponse: h.state(s)})
}

// Replay handles POST /api/journey/replay. Replaying a finished journey
// drops the session, the next request starts a fresh one at the gate.
func (h *JourneyHandler) Replay(c *fiber.Ctx) error {
	s := currentSession(c)
	stage, err := s.Machine.Replay(c.UserContext())
	if err != nil {
		return err
	}

	resp := h.state(s)
	if stage == journey.StageGate {
		h.sessions.Delete(s.ID)
		c.Cookie(&fiber.Cookie{
			Name:     session.CookieName,
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return c.JSON(resp)
}

// Gallery handles GET /api/journey/gallery
func (h *JourneyHandler) Gallery(c *fiber.Ctx) error {
	if _, _, err := h.at(c, from(journey.StageIntro)); err != nil {
		return err
	}

	photos, err := h.store.ListPhotos(c.UserContext())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load photos, showing placeholders")
		photos = nil
	}
	return c.JSON(fiber.Map{"chapters": content.Gallery(photos, h.bucket.PublicURL)})
}

type participantView struct {
	ID          models.PlayerID `json:"id"`
	DisplayName string          `json:"display_name"`
}

func (h *JourneyHandler) participants() []participantView {
	out := make([]participantView, 0, len(models.Players))
	for _, id := range models.Players {
		out = append(out, participantView{ID: id, DisplayName: h.roster.DisplayName(id)})
	}
	return out
}

// Scenarios handles GET /api/journey/swipe
func (h *JourneyHandler) Scenarios(c *fiber.Ctx) error {
	if _, _, err := h.at(c, only(journey.StageSwipe)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"scenarios":    quiz.Scenarios(),
		"participants": h.participants(),
	})
}

// Swipe handles POST /api/journey/swipe
func (h *JourneyHandler) Swipe(c *fiber.Ctx) error {
	_, p, err := h.at(c, only(journey.StageSwipe))
	if err != nil {
		return err
	}

	var req struct {
		Answers map[string]models.PlayerID `json:"answers"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	valid := quiz.ValidateSwipes(req.Answers)
	if len(valid) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no valid swipe answers")
	}

	merged, err := h.store.MergeSwipeAnswers(c.UserContext(), p.ID, valid)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"saved": len(valid),
		"tally": quiz.Tally(merged),
	})
}

// Questions handles GET /api/journey/quiz
func (h *JourneyHandler) Questions(c *fiber.Ctx) error {
	_, p, err := h.at(c, only(journey.StageQuiz))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"questions":    quiz.ForPlayer(p.ID),
		"partner_name": h.roster.DisplayName(p.PartnerID()),
	})
}

// SubmitQuiz handles POST /api/journey/quiz. The score is computed here, the
// record is marked complete and the session moves on to the waiting room.
func (h *JourneyHandler) SubmitQuiz(c *fiber.Ctx) error {
	s, p, err := h.at(c, only(journey.StageQuiz))
	if err != nil {
		return err
	}

	var req struct {
		Answers map[string]int `json:"answers"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	answers := quiz.Validate(req.Answers)
	if len(answers) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no valid answers")
	}

	score := quiz.Score(p.ID, answers)
	if err := h.store.SaveQuizResult(c.UserContext(), p.ID, answers, score); err != nil {
		return err
	}
	s.Machine.Advancer(journey.StageQuiz)()

	h.log.Info().Str("player", string(p.ID)).Int("score", score).Int("answered", len(answers)).Msg("Quiz submitted")
	return c.JSON(fiber.Map{
		"score": score,
		"total": quiz.AboutPartnerTotal(),
		"stage": s.Machine.Snapshot().Stage,
	})
}

type waitingResponse struct {
	PartnerCompleted bool          `json:"partner_completed"`
	Stage            journey.Stage `json:"stage"`
	Cues             []journey.Cue `json:"cues"`
}

// Waiting handles GET /api/journey/waiting as a long poll. It returns once
// the partner finished and the session left the waiting room, or when the
// poll window ends.
func (h *JourneyHandler) Waiting(c *fiber.Ctx) error {
	s, p, err := h.at(c, from(journey.StageWaiting))
	if err != nil {
		return err
	}
	if stage := s.Machine.Snapshot().Stage; stage != journey.StageWaiting {
		return c.JSON(waitingResponse{PartnerCompleted: true, Stage: stage, Cues: s.DrainCues()})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.opts.WaitingLongPoll)
	defer cancel()

	synchronizer := journey.NewSynchronizer(p.PartnerID(), h.store, h.feed, s, s.Machine.Advancer(journey.StageWaiting), h.log)
	synchronizer.PollInterval = h.opts.PollInterval
	synchronizer.CelebrationDelay = h.opts.CelebrationDelay

	_, err = synchronizer.Run(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}

	return c.JSON(waitingResponse{
		PartnerCompleted: err == nil,
		Stage:            s.Machine.Snapshot().Stage,
		Cues:             s.DrainCues(),
	})
}

// Nudge handles POST /api/journey/nudge
func (h *JourneyHandler) Nudge(c *fiber.Ctx) error {
	_, p, err := h.at(c, only(journey.StageWaiting))
	if err != nil {
		return err
	}
	partner, ok := h.roster.Partner(p)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "partner not configured")
	}

	sent, err := h.nudger.Nudge(c.UserContext(), p, partner)
	switch {
	case errors.Is(err, whatsapp.ErrNudgeTooSoon):
		return err
	case err != nil:
		h.log.Error().Err(err).Str("player", string(p.ID)).Msg("Failed to nudge partner")
		return c.JSON(fiber.Map{"sent": false})
	case !sent:
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(fiber.Map{"sent": true})
}

// matches compares the quiz answers of both players
func (h *JourneyHandler) matches(ctx context.Context) ([]quiz.Match, error) {
	manoj, err := h.store.GetPlayer(ctx, models.Manoj)
	if err != nil {
		return nil, err
	}
	pooja, err := h.store.GetPlayer(ctx, models.Pooja)
	if err != nil {
		return nil, err
	}
	return quiz.CompareMatchingAnswers(manoj.QuizAnswers.Quiz, pooja.QuizAnswers.Quiz), nil
}

// Compatibility handles GET /api/journey/compatibility
func (h *JourneyHandler) Compatibility(c *fiber.Ctx) error {
	if _, _, err := h.at(c, from(journey.StageCompatibility)); err != nil {
		return err
	}
	results, err := h.matches(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"report":  quiz.Compatibility(results),
		"matches": results,
	})
}

// Fortune handles GET /api/journey/fortune
func (h *JourneyHandler) Fortune(c *fiber.Ctx) error {
	if _, _, err := h.at(c, from(journey.StageFortune)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"predictions": content.Predictions()})
}

type giftResponse struct {
	Matches       []quiz.Match  `json:"matches"`
	BrowniePoints int           `json:"brownie_points"`
	Total         int           `json:"total"`
	Verdict       string        `json:"verdict"`
	Cues          []journey.Cue `json:"cues"`
}

// Gift handles POST /api/journey/gift: the final reveal. The completion stamp
// that starts the cooldown is best-effort.
func (h *JourneyHandler) Gift(c *fiber.Ctx) error {
	s, p, err := h.at(c, only(journey.StageGift))
	if err != nil {
		return err
	}

	if err := h.store.StampCompletion(c.UserContext(), p.ID); err != nil {
		h.log.Error().Err(err).Str("player", string(p.ID)).Msg("Failed to stamp completion")
	}

	results, err := h.matches(c.UserContext())
	if err != nil {
		return err
	}
	points := quiz.CountMatched(results)

	s.Cue(journey.CueGrandReveal)
	if len(results) > 0 && points*2 < len(results) {
		s.Cue(journey.CueEmotionalDamage)
	}

	return c.JSON(giftResponse{
		Matches:       results,
		BrowniePoints: points,
		Total:         len(results),
		Verdict:       verdict(points, len(results)),
		Cues:          s.DrainCues(),
	})
}

func verdict(points, total int) string {
	switch {
	case points == total:
		return "Perfect match! You two are made for each other! 💕"
	case points*2 >= total:
		return "Pretty good! You're more alike than you think 😄"
	}
	return "Opposites attract, right? 😂"
}
