package agent

import (
	"context"
	"fmt"
	"time"

	"replybot/internal/generate"
	"replybot/internal/schedule"
	"replybot/internal/twitter"
	logx "replybot/pkg/logx"
)

// TextSource resolves targets to concrete tweets.
type TextSource interface {
	FetchTweet(ctx context.Context, id string) (*twitter.Tweet, error)
	LatestTweetFor(ctx context.Context, username string) (*twitter.Tweet, error)
}

// Publisher posts replies and returns the new tweet's ID.
type Publisher interface {
	Reply(ctx context.Context, text, inReplyToID string) (string, error)
}

// TextGenerator produces reply text. It never fails; exhaustion maps to a
// fallback string inside the router.
type TextGenerator interface {
	Generate(ctx context.Context, req generate.Request) string
}

// Service is the unit of work: resolve one target, generate a reply,
// publish it, and shape the outcome into a response record.
type Service struct {
	source TextSource
	gen    TextGenerator
	pub    Publisher
	log    logx.Logger
	now    func() time.Time
}

func New(source TextSource, gen TextGenerator, pub Publisher, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		source: source,
		gen:    gen,
		pub:    pub,
		log:    log.With(logx.String("svc", "agent")),
		now:    time.Now,
	}
}

// RunStep executes one generate-and-publish cycle. step is 1-based within a
// schedule and appended to the reply text so repeated replies to the same
// tweet stay visually distinct; step 0 omits the suffix (one-shot path).
//
// Resolution and publish failures become a failed record; they are not
// retried here. Generation retries live inside the router.
func (s *Service) RunStep(ctx context.Context, target schedule.Target, step int, provider string) schedule.ResponseRecord {
	rec := schedule.ResponseRecord{Step: step, Timestamp: s.now()}

	tweet, err := s.resolve(ctx, target)
	if err != nil {
		s.log.Warn("target resolution failed",
			logx.String("target", target.Raw),
			logx.Err(err),
		)
		rec.Error = err.Error()
		return rec
	}

	text := s.gen.Generate(ctx, generate.Request{
		Profile:  profileFor(target),
		Content:  tweet.Text,
		Handle:   target.Handle,
		Provider: provider,
	})
	if step > 0 {
		text = fmt.Sprintf("%s (#%d)", text, step)
	}

	replyID, err := s.pub.Reply(ctx, text, tweet.ID)
	if err != nil {
		s.log.Warn("publish failed",
			logx.String("tweet_id", tweet.ID),
			logx.Err(err),
		)
		rec.Error = err.Error()
		rec.Timestamp = s.now()
		return rec
	}

	s.log.Info("reply published",
		logx.String("tweet_id", tweet.ID),
		logx.String("reply_id", replyID),
		logx.Int("step", step),
	)
	rec.Success = true
	rec.TargetID = tweet.ID
	rec.Text = text
	rec.ReplyID = replyID
	rec.Timestamp = s.now()
	return rec
}

// RunOnce is the synchronous one-shot path: one step, no counter suffix.
func (s *Service) RunOnce(ctx context.Context, target schedule.Target, provider string) schedule.ResponseRecord {
	return s.RunStep(ctx, target, 0, provider)
}

// ReplyToMention generates a reply to a mention and publishes it.
func (s *Service) ReplyToMention(ctx context.Context, tweetID, text string) (string, error) {
	reply := s.gen.Generate(ctx, generate.Request{
		Profile: generate.ProfileTroll,
		Content: text,
	})
	replyID, err := s.pub.Reply(ctx, reply, tweetID)
	if err != nil {
		return "", err
	}
	s.log.Info("mention answered",
		logx.String("tweet_id", tweetID),
		logx.String("reply_id", replyID),
	)
	return replyID, nil
}

func (s *Service) resolve(ctx context.Context, target schedule.Target) (*twitter.Tweet, error) {
	switch target.Type {
	case schedule.TargetProfile:
		return s.source.LatestTweetFor(ctx, target.Handle)
	case schedule.TargetTweet:
		return s.source.FetchTweet(ctx, target.TweetID)
	default:
		return nil, fmt.Errorf("unresolvable target %q", target.Raw)
	}
}

// profileFor maps target shapes to generation voices: direct tweet links
// get the adversarial profile, profile targets get the flattering one.
func profileFor(t schedule.Target) generate.Profile {
	if t.Type == schedule.TargetProfile {
		return generate.ProfileBootlick
	}
	return generate.ProfileTroll
}
