package schedule

import (
	"errors"
	"testing"
)

func TestParseTweetLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantID  string
		wantErr bool
	}{
		{name: "twitter.com", in: "https://twitter.com/jack/status/20", wantID: "20"},
		{name: "x.com", in: "https://x.com/jack/status/1234567890", wantID: "1234567890"},
		{name: "query suffix", in: "https://x.com/jack/status/99?s=20", wantID: "99"},
		{name: "surrounding space", in: "  https://x.com/jack/status/7  ", wantID: "7"},
		{name: "profile url", in: "https://x.com/jack", wantErr: true},
		{name: "no id", in: "https://x.com/jack/status/", wantErr: true},
		{name: "wrong host", in: "https://example.com/jack/status/20", wantErr: true},
		{name: "not a url", in: "hello", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTweetLink(tt.in)
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("err = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTweetLink: %v", err)
			}
			if got.Type != TargetTweet || got.TweetID != tt.wantID {
				t.Fatalf("target = %+v", got)
			}
		})
	}
}

func TestParseProfileURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		in         string
		wantHandle string
		wantErr    bool
	}{
		{name: "plain", in: "https://twitter.com/jack", wantHandle: "jack"},
		{name: "trailing slash", in: "https://x.com/jack/", wantHandle: "jack"},
		{name: "underscore", in: "https://x.com/some_user", wantHandle: "some_user"},
		{name: "status link", in: "https://x.com/jack/status/20", wantErr: true},
		{name: "too long handle", in: "https://x.com/this_handle_is_way_too_long", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProfileURL(tt.in)
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("err = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseProfileURL: %v", err)
			}
			if got.Type != TargetProfile || got.Handle != tt.wantHandle {
				t.Fatalf("target = %+v", got)
			}
		})
	}
}

func TestParseProfileURLs(t *testing.T) {
	t.Parallel()

	got, err := ParseProfileURLs("https://x.com/alice\nhttps://twitter.com/bob, https://x.com/carol/\n")
	if err != nil {
		t.Fatalf("ParseProfileURLs: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("targets = %+v", got)
	}
	want := []string{"alice", "bob", "carol"}
	for i, h := range want {
		if got[i].Handle != h {
			t.Fatalf("target %d = %+v, want handle %q", i, got[i], h)
		}
	}

	if _, err := ParseProfileURLs("https://x.com/alice\nnot-a-url"); err == nil {
		t.Fatal("batch with a malformed entry must be rejected")
	}
	if _, err := ParseProfileURLs("  \n , "); err == nil {
		t.Fatal("empty batch must be rejected")
	}
}
