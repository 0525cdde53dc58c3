package generate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"replybot/internal/retry"
	logx "replybot/pkg/logx"
)

type stubGen struct {
	name  string
	avail bool
	out   string
	err   error
	calls int
}

func (s *stubGen) Name() string    { return s.name }
func (s *stubGen) Available() bool { return s.avail }
func (s *stubGen) Complete(context.Context, string, string) (string, error) {
	s.calls++
	return s.out, s.err
}

func fastPolicy() retry.Policy {
	return retry.Policy{
		Attempts: 3,
		Base:     time.Millisecond,
		Sleep:    func(context.Context, time.Duration) error { return nil },
	}
}

func memLogger(t *testing.T) (*logx.Service, logx.Logger) {
	t.Helper()
	svc, log := logx.New(logx.Config{
		Level:  "debug",
		Memory: logx.MemoryConfig{Enabled: true, Size: 100},
	})
	t.Cleanup(func() { _ = svc.Close() })
	return svc, log
}

func countLines(lines []string, substr string) int {
	n := 0
	for _, l := range lines {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

func TestGenerateRoutesUnknownProviderToDefault(t *testing.T) {
	t.Parallel()

	svc, log := memLogger(t)
	def := &stubGen{name: "gemini", avail: true, out: "spicy take"}
	r := NewRouter(log, fastPolicy(), "gemini", def)

	viaDefault := r.Generate(context.Background(), Request{Profile: ProfileTroll, Content: "hello"})
	viaUnknown := r.Generate(context.Background(), Request{Profile: ProfileTroll, Content: "hello", Provider: "claude"})

	if viaDefault != viaUnknown {
		t.Fatalf("unknown provider produced %q, default produced %q", viaUnknown, viaDefault)
	}
	if viaDefault != "spicy take" {
		t.Fatalf("got %q", viaDefault)
	}
	if n := countLines(svc.Lines(), "routing to default"); n != 1 {
		t.Fatalf("fallback notices = %d, want 1\nlogs: %v", n, svc.Lines())
	}
}

func TestGenerateRoutesUnavailableProviderToDefault(t *testing.T) {
	t.Parallel()

	_, log := memLogger(t)
	def := &stubGen{name: "gemini", avail: true, out: "ok"}
	azure := &stubGen{name: "azure", avail: false}
	r := NewRouter(log, fastPolicy(), "gemini", def, azure)

	got := r.Generate(context.Background(), Request{Profile: ProfileTroll, Content: "x", Provider: "azure"})
	if got != "ok" {
		t.Fatalf("got %q, want default backend output", got)
	}
	if azure.calls != 0 {
		t.Fatalf("unavailable backend was called %d times", azure.calls)
	}
}

func TestGenerateFallbackOnExhaustion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		profile Profile
		want    string
	}{
		{ProfileTroll, "This tweet is by AI"},
		{ProfileBootlick, "Great tweet! (This reply is by AI)"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.profile), func(t *testing.T) {
			_, log := memLogger(t)
			g := &stubGen{name: "gemini", avail: true, err: errors.New("quota")}
			r := NewRouter(log, fastPolicy(), "gemini", g)

			got := r.Generate(context.Background(), Request{Profile: tt.profile, Content: "x"})
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			if g.calls != 3 {
				t.Fatalf("backend called %d times, want 3", g.calls)
			}
		})
	}
}

func TestGenerateEmptyOutputFallback(t *testing.T) {
	t.Parallel()

	_, log := memLogger(t)
	g := &stubGen{name: "gemini", avail: true, out: "   "}
	r := NewRouter(log, fastPolicy(), "gemini", g)

	got := r.Generate(context.Background(), Request{Profile: ProfileTroll, Content: "x"})
	if got != "Hi (This tweet is by AI)" {
		t.Fatalf("got %q", got)
	}
}

func TestGenerateNoBackends(t *testing.T) {
	t.Parallel()

	_, log := memLogger(t)
	r := NewRouter(log, fastPolicy(), "")

	got := r.Generate(context.Background(), Request{Profile: ProfileTroll, Content: "x"})
	if got != "This tweet is by AI" {
		t.Fatalf("got %q", got)
	}
}

func TestNewRouterPicksFirstAvailableDefault(t *testing.T) {
	t.Parallel()

	_, log := memLogger(t)
	gem := &stubGen{name: "gemini", avail: false}
	az := &stubGen{name: "azure", avail: true, out: "hi there"}
	r := NewRouter(log, fastPolicy(), "", gem, az)

	if r.Default() != "azure" {
		t.Fatalf("default = %q, want azure", r.Default())
	}
}
