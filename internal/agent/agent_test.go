package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"replybot/internal/generate"
	"replybot/internal/schedule"
	"replybot/internal/twitter"
	logx "replybot/pkg/logx"
)

type stubSource struct {
	byID     map[string]*twitter.Tweet
	byHandle map[string]*twitter.Tweet
	err      error
}

func (s *stubSource) FetchTweet(_ context.Context, id string) (*twitter.Tweet, error) {
	if s.err != nil {
		return nil, s.err
	}
	if t, ok := s.byID[id]; ok {
		return t, nil
	}
	return nil, errors.New("tweet not found")
}

func (s *stubSource) LatestTweetFor(_ context.Context, username string) (*twitter.Tweet, error) {
	if s.err != nil {
		return nil, s.err
	}
	if t, ok := s.byHandle[username]; ok {
		return t, nil
	}
	return nil, errors.New("profile not found")
}

type stubGen struct {
	out  string
	last generate.Request
}

func (g *stubGen) Generate(_ context.Context, req generate.Request) string {
	g.last = req
	return g.out
}

type stubPub struct {
	id        string
	err       error
	texts     []string
	inReplyTo []string
}

func (p *stubPub) Reply(_ context.Context, text, inReplyToID string) (string, error) {
	p.texts = append(p.texts, text)
	p.inReplyTo = append(p.inReplyTo, inReplyToID)
	if p.err != nil {
		return "", p.err
	}
	return p.id, nil
}

func tweetTarget(id string) schedule.Target {
	return schedule.Target{Type: schedule.TargetTweet, TweetID: id, Raw: "https://x.com/a/status/" + id}
}

func profileTarget(handle string) schedule.Target {
	return schedule.Target{Type: schedule.TargetProfile, Handle: handle, Raw: "https://x.com/" + handle}
}

func TestRunStepSuccess(t *testing.T) {
	t.Parallel()

	src := &stubSource{byID: map[string]*twitter.Tweet{"42": {ID: "42", Text: "original"}}}
	gen := &stubGen{out: "witty comeback"}
	pub := &stubPub{id: "900"}
	svc := New(src, gen, pub, logx.Nop())

	rec := svc.RunStep(context.Background(), tweetTarget("42"), 3, "gemini")
	if !rec.Success {
		t.Fatalf("record = %+v", rec)
	}
	if rec.TargetID != "42" || rec.ReplyID != "900" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Text != "witty comeback (#3)" {
		t.Fatalf("text = %q", rec.Text)
	}
	if rec.Step != 3 || rec.Timestamp.IsZero() {
		t.Fatalf("record = %+v", rec)
	}
	if gen.last.Profile != generate.ProfileTroll || gen.last.Content != "original" || gen.last.Provider != "gemini" {
		t.Fatalf("generation request = %+v", gen.last)
	}
	if pub.inReplyTo[0] != "42" {
		t.Fatalf("published against %q", pub.inReplyTo[0])
	}
}

func TestRunOnceOmitsSuffix(t *testing.T) {
	t.Parallel()

	src := &stubSource{byID: map[string]*twitter.Tweet{"42": {ID: "42", Text: "x"}}}
	gen := &stubGen{out: "plain reply"}
	pub := &stubPub{id: "1"}
	svc := New(src, gen, pub, logx.Nop())

	rec := svc.RunOnce(context.Background(), tweetTarget("42"), "")
	if !rec.Success || rec.Text != "plain reply" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestRunStepProfileTargetUsesBootlick(t *testing.T) {
	t.Parallel()

	src := &stubSource{byHandle: map[string]*twitter.Tweet{"alice": {ID: "77", Text: "my big launch"}}}
	gen := &stubGen{out: "amazing work"}
	pub := &stubPub{id: "2"}
	svc := New(src, gen, pub, logx.Nop())

	rec := svc.RunStep(context.Background(), profileTarget("alice"), 1, "")
	if !rec.Success || rec.TargetID != "77" {
		t.Fatalf("record = %+v", rec)
	}
	if gen.last.Profile != generate.ProfileBootlick || gen.last.Handle != "alice" {
		t.Fatalf("generation request = %+v", gen.last)
	}
}

func TestRunStepResolutionFailure(t *testing.T) {
	t.Parallel()

	src := &stubSource{}
	gen := &stubGen{out: "never used"}
	pub := &stubPub{id: "1"}
	svc := New(src, gen, pub, logx.Nop())

	rec := svc.RunStep(context.Background(), profileTarget("ghost"), 2, "")
	if rec.Success {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Error == "" || rec.Text != "" {
		t.Fatalf("failed record must carry an error and no text: %+v", rec)
	}
	if len(pub.texts) != 0 {
		t.Fatal("nothing should be published on resolution failure")
	}
}

func TestRunStepPublishFailure(t *testing.T) {
	t.Parallel()

	src := &stubSource{byID: map[string]*twitter.Tweet{"42": {ID: "42", Text: "x"}}}
	gen := &stubGen{out: "reply"}
	pub := &stubPub{err: errors.New("duplicate content")}
	svc := New(src, gen, pub, logx.Nop())

	rec := svc.RunStep(context.Background(), tweetTarget("42"), 1, "")
	if rec.Success {
		t.Fatalf("record = %+v", rec)
	}
	if !strings.Contains(rec.Error, "duplicate content") || rec.Text != "" || rec.ReplyID != "" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestRunStepFallbackTextStillSucceeds(t *testing.T) {
	t.Parallel()

	// The generator substitutes its fallback rather than failing, so the
	// step publishes and records success.
	src := &stubSource{byID: map[string]*twitter.Tweet{"42": {ID: "42", Text: "x"}}}
	gen := &stubGen{out: "This tweet is by AI"}
	pub := &stubPub{id: "3"}
	svc := New(src, gen, pub, logx.Nop())

	rec := svc.RunStep(context.Background(), tweetTarget("42"), 1, "")
	if !rec.Success || rec.Text != "This tweet is by AI (#1)" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestReplyToMention(t *testing.T) {
	t.Parallel()

	gen := &stubGen{out: "mention reply"}
	pub := &stubPub{id: "10"}
	svc := New(&stubSource{}, gen, pub, logx.Nop())

	id, err := svc.ReplyToMention(context.Background(), "500", "@replybot hello")
	if err != nil || id != "10" {
		t.Fatalf("id = %q, err = %v", id, err)
	}
	if gen.last.Content != "@replybot hello" {
		t.Fatalf("generation request = %+v", gen.last)
	}
	if pub.inReplyTo[0] != "500" {
		t.Fatalf("published against %q", pub.inReplyTo[0])
	}
}
