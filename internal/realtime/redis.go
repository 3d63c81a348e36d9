package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"wedding-journey/internal/models"
)

const channelPrefix = "wedding-journey:players:"

// RedisFeed is a Feed backed by Redis pub/sub, shared by every instance of
// the service
type RedisFeed struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedisFeed wraps an existing client
func NewRedisFeed(client *redis.Client, log zerolog.Logger) *RedisFeed {
	return &RedisFeed{
		client: client,
		log:    log.With().Str("component", "RedisFeed").Logger(),
	}
}

func channelName(id models.PlayerID) string {
	return channelPrefix + string(id)
}

// Publish sends change on the player's channel
func (f *RedisFeed) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	if err := f.client.Publish(ctx, channelName(change.PlayerID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Subscribe opens a pub/sub subscription on the player's channel. The call
// returns once Redis has confirmed the subscription.
func (f *RedisFeed) Subscribe(ctx context.Context, id models.PlayerID) (Subscription, error) {
	ps := f.client.Subscribe(ctx, channelName(id))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	sub := &redisSubscription{
		ps:   ps,
		out:  make(chan Change, subscriberBuffer),
		done: make(chan struct{}),
		log:  f.log,
	}
	sub.wg.Add(1)
	go sub.pump()
	return sub, nil
}

type redisSubscription struct {
	ps   *redis.PubSub
	out  chan Change
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
	err  error
	log  zerolog.Logger
}

func (s *redisSubscription) pump() {
	defer s.wg.Done()
	defer close(s.out)

	for msg := range s.ps.Channel() {
		var change Change
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			s.log.Warn().Err(err).Str("channel", msg.Channel).Msg("Dropping malformed change")
			continue
		}
		select {
		case s.out <- change:
		case <-s.done:
			return
		}
	}
}

func (s *redisSubscription) Changes() <-chan Change {
	return s.out
}

func (s *redisSubscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.err = s.ps.Close()
		s.wg.Wait()
	})
	return s.err
}
