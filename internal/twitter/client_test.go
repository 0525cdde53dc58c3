package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
}

func TestFetchTweet(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/tweets/12345" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("tweet.fields"); got != "author_id,created_at" {
			t.Errorf("tweet.fields = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"id": "12345", "text": "hello world", "author_id": "99"},
		})
	}))

	tw, err := c.FetchTweet(context.Background(), "12345")
	if err != nil {
		t.Fatalf("FetchTweet: %v", err)
	}
	if tw.ID != "12345" || tw.Text != "hello world" || tw.AuthorID != "99" {
		t.Fatalf("tweet = %+v", tw)
	}
}

func TestFetchTweetNotFound(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"title": "Not Found Error", "detail": "Could not find tweet"}},
		})
	}))

	if _, err := c.FetchTweet(context.Background(), "0"); err == nil {
		t.Fatal("expected error for missing tweet")
	}
}

func TestReplyNormalizesID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp string
	}{
		{name: "wrapped in data", resp: `{"data":{"id":"777","text":"ok"}}`},
		{name: "bare id", resp: `{"id":"777","text":"ok"}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var gotBody map[string]any
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/2/tweets" {
					t.Errorf("%s %s", r.Method, r.URL.Path)
				}
				_ = json.NewDecoder(r.Body).Decode(&gotBody)
				fmt.Fprint(w, tt.resp)
			}))

			id, err := c.Reply(context.Background(), "nice one", "555")
			if err != nil {
				t.Fatalf("Reply: %v", err)
			}
			if id != "777" {
				t.Fatalf("id = %q", id)
			}
			reply, _ := gotBody["reply"].(map[string]any)
			if reply["in_reply_to_tweet_id"] != "555" {
				t.Fatalf("request body = %v", gotBody)
			}
		})
	}
}

func TestLatestTweetFor(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/users/by/username/someone":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"id": "42", "username": "someone"},
			})
		case "/2/users/42/tweets":
			if got := r.URL.Query().Get("exclude"); got != "retweets,replies" {
				t.Errorf("exclude = %q", got)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"id": "900", "text": "latest"},
					{"id": "899", "text": "older"},
				},
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))

	tw, err := c.LatestTweetFor(context.Background(), "@someone")
	if err != nil {
		t.Fatalf("LatestTweetFor: %v", err)
	}
	if tw.ID != "900" || tw.Text != "latest" || tw.AuthorID != "42" {
		t.Fatalf("tweet = %+v", tw)
	}
}

func TestMentions(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/users/me":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"id": "7", "username": "replybot"},
			})
		case "/2/users/7/mentions":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{{"id": "31", "text": "@replybot hi"}},
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))

	got, err := c.Mentions(context.Background())
	if err != nil {
		t.Fatalf("Mentions: %v", err)
	}
	if len(got) != 1 || got[0].ID != "31" {
		t.Fatalf("mentions = %+v", got)
	}
}

func TestMentionsResolvesByUsernameAndSkipsSelf(t *testing.T) {
	t.Parallel()

	var lookups int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/users/by/username/replybot":
			atomic.AddInt32(&lookups, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"id": "7", "username": "replybot"},
			})
		case "/2/users/7/mentions":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"id": "32", "text": "@replybot self", "author_id": "7"},
					{"id": "31", "text": "@replybot hi", "author_id": "8"},
				},
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)
	c := New(Options{BaseURL: srv.URL, HTTPClient: srv.Client(), Username: "@replybot"})

	got, err := c.Mentions(context.Background())
	if err != nil {
		t.Fatalf("Mentions: %v", err)
	}
	if len(got) != 1 || got[0].ID != "31" {
		t.Fatalf("mentions = %+v", got)
	}

	// The resolved user ID is cached; a second call hits mentions only.
	if _, err := c.Mentions(context.Background()); err != nil {
		t.Fatalf("Mentions (cached): %v", err)
	}
	if got := atomic.LoadInt32(&lookups); got != 1 {
		t.Fatalf("user lookups = %d, want 1", got)
	}
}

func TestRateLimitError(t *testing.T) {
	t.Parallel()

	reset := time.Now().Add(90 * time.Second).Unix()
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-rate-limit-reset", strconv.FormatInt(reset, 10))
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.FetchTweet(context.Background(), "1")
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("err = %v, want RateLimitError", err)
	}
	if rle.Reset.Unix() != reset {
		t.Fatalf("reset = %v", rle.Reset)
	}
}
