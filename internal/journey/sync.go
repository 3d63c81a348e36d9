package journey

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wedding-journey/internal/models"
	"wedding-journey/internal/realtime"
)

const (
	DefaultPollInterval     = 5 * time.Second
	DefaultCelebrationDelay = 2 * time.Second
)

// CompletionChecker answers whether a player finished the quiz
type CompletionChecker interface {
	QuizCompleted(ctx context.Context, id models.PlayerID) (bool, error)
}

// Subscriber opens change subscriptions
type Subscriber interface {
	Subscribe(ctx context.Context, id models.PlayerID) (realtime.Subscription, error)
}

// Effects receives the waiting room cues
type Effects interface {
	StopAmbient()
	Celebrate()
}

// Synchronizer waits for the partner to finish the quiz and advances the
// waiting room exactly once. Completion is detected by an initial query, a
// push subscription and a fallback poll, whichever sees it first.
type Synchronizer struct {
	partner models.PlayerID
	checker CompletionChecker
	feed    Subscriber
	effects Effects
	advance func() bool

	PollInterval     time.Duration
	CelebrationDelay time.Duration

	latch sync.Once
	log   zerolog.Logger
}

// NewSynchronizer creates a synchronizer watching partner
func NewSynchronizer(partner models.PlayerID, checker CompletionChecker, feed Subscriber, effects Effects, advance func() bool, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		partner:          partner,
		checker:          checker,
		feed:             feed,
		effects:          effects,
		advance:          advance,
		PollInterval:     DefaultPollInterval,
		CelebrationDelay: DefaultCelebrationDelay,
		log:              log.With().Str("partner", string(partner)).Logger(),
	}
}

// Run blocks until the partner's completion was observed and the advance
// callback ran, or ctx is done. Every producer goroutine has exited, the poll
// ticker is stopped and the subscription is closed by the time Run returns.
func (s *Synchronizer) Run(ctx context.Context) (bool, error) {
	detectCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	observed := make(chan struct{}, 1)
	signal := func() {
		select {
		case observed <- struct{}{}:
		default:
		}
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.check(detectCtx, signal)
	}()
	go func() {
		defer wg.Done()
		s.listen(detectCtx, signal)
	}()
	go func() {
		defer wg.Done()
		s.poll(detectCtx, signal)
	}()

	select {
	case <-observed:
	case <-ctx.Done():
		cancel()
		wg.Wait()
		return false, ctx.Err()
	}

	cancel()
	wg.Wait()

	first := false
	s.latch.Do(func() { first = true })
	if !first {
		return false, nil
	}

	s.log.Info().Msg("Partner completed the quiz")
	s.effects.StopAmbient()
	s.effects.Celebrate()

	timer := time.NewTimer(s.CelebrationDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	return s.advance(), nil
}

func (s *Synchronizer) check(ctx context.Context, signal func()) {
	done, err := s.checker.QuizCompleted(ctx, s.partner)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Debug().Err(err).Msg("Completion query failed")
		}
		return
	}
	if done {
		signal()
	}
}

func (s *Synchronizer) listen(ctx context.Context, signal func()) {
	sub, err := s.feed.Subscribe(ctx, s.partner)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Debug().Err(err).Msg("Failed to subscribe to partner changes, relying on poll")
		}
		return
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-sub.Changes():
			if !ok {
				return
			}
			if change.QuizCompleted {
				signal()
			}
		}
	}
}

func (s *Synchronizer) poll(ctx context.Context, signal func()) {
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check(ctx, signal)
		}
	}
}
