package mentions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"replybot/internal/eventbus"
	"replybot/internal/twitter"
	logx "replybot/pkg/logx"
)

var ErrDisabled = errors.New("mentions disabled")

// MentionSource lists recent mentions of the bot, newest first.
type MentionSource interface {
	Mentions(ctx context.Context) ([]twitter.Tweet, error)
}

// Responder answers one mention.
type Responder interface {
	ReplyToMention(ctx context.Context, tweetID, text string) (string, error)
}

type Config struct {
	Enabled bool
	// Spec is a cron spec; "@every 24h" style intervals are the common case.
	Spec string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Spec) == "" {
		c.Spec = "@every 24h"
	}
	return c
}

// Service polls mentions on a cron spec and answers the newest unseen one.
type Service struct {
	mu   sync.Mutex
	cfg  Config
	c    *cron.Cron
	last string // newest mention ID already answered

	src  MentionSource
	resp Responder
	bus  eventbus.Bus
	log  logx.Logger
}

func New(cfg Config, src MentionSource, resp Responder, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:  cfg.withDefaults(),
		src:  src,
		resp: resp,
		bus:  bus,
		log:  log.With(logx.String("svc", "mentions")),
	}
}

func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cfg.Enabled {
		return ErrDisabled
	}
	if s.c != nil {
		return nil
	}
	return s.startLocked()
}

func (s *Service) startLocked() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))
	if _, err := c.AddFunc(s.cfg.Spec, s.poll); err != nil {
		return err
	}
	c.Start()
	s.c = c
	s.log.Info("mention poller started", logx.String("spec", s.cfg.Spec))
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	done := c.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply swaps config at runtime, restarting the poller when needed.
func (s *Service) Apply(cfg Config) error {
	cfg = cfg.withDefaults()
	s.mu.Lock()
	defer s.mu.Unlock()
	unchanged := cfg == s.cfg
	s.cfg = cfg
	if unchanged {
		return nil
	}
	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}
	if !cfg.Enabled {
		s.log.Info("mention poller stopped")
		return nil
	}
	return s.startLocked()
}

// poll checks for mentions once. Failures are logged and the next cron
// firing retries; the supervisor restarts us if we ever panic.
func (s *Service) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	mentions, err := s.src.Mentions(ctx)
	if err != nil {
		s.log.Warn("mention poll failed", logx.Err(err))
		return
	}
	if len(mentions) == 0 {
		s.log.Debug("no new mentions")
		return
	}

	newest := mentions[0]
	s.mu.Lock()
	seen := newest.ID == s.last
	s.mu.Unlock()
	if seen {
		s.log.Debug("newest mention already answered", logx.String("tweet_id", newest.ID))
		return
	}

	replyID, err := s.resp.ReplyToMention(ctx, newest.ID, newest.Text)
	if err != nil {
		s.log.Warn("mention reply failed", logx.String("tweet_id", newest.ID), logx.Err(err))
		return
	}

	s.mu.Lock()
	s.last = newest.ID
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeMentionReceived, Data: map[string]string{
			"tweet_id": newest.ID,
			"reply_id": replyID,
		}})
	}
}
