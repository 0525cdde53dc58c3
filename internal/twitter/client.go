package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dghubble/oauth1"

	logx "replybot/pkg/logx"
)

const defaultBaseURL = "https://api.twitter.com"

// Options configures the API client.
type Options struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string

	// BaseURL overrides the API host (tests point it at httptest).
	BaseURL string

	// HTTPClient bypasses OAuth1 signing entirely when set (tests).
	HTTPClient *http.Client

	// Username is the bot's own handle. When set, mention lookups resolve
	// the user by handle instead of calling /2/users/me.
	Username string

	Logger logx.Logger
}

// Client talks to the Twitter v2 API with OAuth1 user-context auth.
type Client struct {
	baseURL  string
	httpc    *http.Client
	log      logx.Logger
	username string

	mu     sync.Mutex
	selfID string
}

func New(opts Options) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		log:      opts.Logger,
		username: strings.TrimPrefix(strings.TrimSpace(opts.Username), "@"),
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.log.IsZero() {
		c.log = logx.Nop()
	}
	if opts.HTTPClient != nil {
		c.httpc = opts.HTTPClient
		return c
	}
	cfg := oauth1.NewConfig(opts.APIKey, opts.APISecret)
	token := oauth1.NewToken(opts.AccessToken, opts.AccessSecret)
	c.httpc = cfg.Client(oauth1.NoContext, token)
	c.httpc.Timeout = 30 * time.Second
	return c
}

// FetchTweet returns the tweet with the given numeric ID.
func (c *Client) FetchTweet(ctx context.Context, id string) (*Tweet, error) {
	var out struct {
		Data *Tweet `json:"data"`
		apiErrors
	}
	q := url.Values{"tweet.fields": {"author_id,created_at"}}
	if err := c.do(ctx, http.MethodGet, "/2/tweets/"+url.PathEscape(id), q, nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		if msg := firstError(out.apiErrors); msg != "" {
			return nil, fmt.Errorf("twitter: fetch tweet %s: %s", id, msg)
		}
		return nil, fmt.Errorf("twitter: tweet %s not found", id)
	}
	return out.Data, nil
}

// Reply publishes text as a reply to the given tweet and returns the new
// tweet's ID. Responses are normalized: some deployments wrap the created
// tweet in "data", some return it bare.
func (c *Client) Reply(ctx context.Context, text, inReplyToID string) (string, error) {
	body := map[string]any{
		"text": text,
	}
	if inReplyToID != "" {
		body["reply"] = map[string]string{"in_reply_to_tweet_id": inReplyToID}
	}
	var out struct {
		Data *struct {
			ID string `json:"id"`
		} `json:"data"`
		ID string `json:"id"`
		apiErrors
	}
	if err := c.do(ctx, http.MethodPost, "/2/tweets", nil, body, &out); err != nil {
		return "", err
	}
	switch {
	case out.Data != nil && out.Data.ID != "":
		return out.Data.ID, nil
	case out.ID != "":
		return out.ID, nil
	}
	if msg := firstError(out.apiErrors); msg != "" {
		return "", fmt.Errorf("twitter: reply: %s", msg)
	}
	return "", fmt.Errorf("twitter: reply: response carried no tweet id")
}

// Post publishes a standalone tweet.
func (c *Client) Post(ctx context.Context, text string) (string, error) {
	return c.Reply(ctx, text, "")
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		Data *User `json:"data"`
		apiErrors
	}
	if err := c.do(ctx, http.MethodGet, "/2/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("twitter: me: %s", firstError(out.apiErrors))
	}
	return out.Data, nil
}

// UserByUsername resolves a handle (without the @) to a user.
func (c *Client) UserByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	var out struct {
		Data *User `json:"data"`
		apiErrors
	}
	if err := c.do(ctx, http.MethodGet, "/2/users/by/username/"+url.PathEscape(username), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		if msg := firstError(out.apiErrors); msg != "" {
			return nil, fmt.Errorf("twitter: user %s: %s", username, msg)
		}
		return nil, fmt.Errorf("twitter: user %s not found", username)
	}
	return out.Data, nil
}

// LatestTweetFor returns the newest original tweet on a user's timeline.
func (c *Client) LatestTweetFor(ctx context.Context, username string) (*Tweet, error) {
	u, err := c.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	var out struct {
		Data []Tweet `json:"data"`
		apiErrors
	}
	q := url.Values{
		"max_results":  {"5"},
		"exclude":      {"retweets,replies"},
		"tweet.fields": {"author_id,created_at"},
	}
	if err := c.do(ctx, http.MethodGet, "/2/users/"+url.PathEscape(u.ID)+"/tweets", q, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("twitter: user %s has no tweets", username)
	}
	t := out.Data[0]
	if t.AuthorID == "" {
		t.AuthorID = u.ID
	}
	return &t, nil
}

// Mentions returns recent mentions of the authenticated user, newest first.
// Mentions the bot authored itself are filtered out.
func (c *Client) Mentions(ctx context.Context) ([]Tweet, error) {
	selfID, err := c.self(ctx)
	if err != nil {
		return nil, err
	}
	var out struct {
		Data []Tweet `json:"data"`
		apiErrors
	}
	q := url.Values{
		"max_results":  {"5"},
		"tweet.fields": {"text,created_at,author_id"},
	}
	if err := c.do(ctx, http.MethodGet, "/2/users/"+url.PathEscape(selfID)+"/mentions", q, nil, &out); err != nil {
		return nil, err
	}
	mentions := out.Data[:0]
	for _, t := range out.Data {
		if t.AuthorID != selfID {
			mentions = append(mentions, t)
		}
	}
	return mentions, nil
}

// self resolves and caches the bot's own user ID, by configured handle when
// available, otherwise via /2/users/me.
func (c *Client) self(ctx context.Context) (string, error) {
	c.mu.Lock()
	id := c.selfID
	c.mu.Unlock()
	if id != "" {
		return id, nil
	}

	var u *User
	var err error
	if c.username != "" {
		u, err = c.UserByUsername(ctx, c.username)
	} else {
		u, err = c.Me(ctx)
	}
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.selfID = u.ID
	c.mu.Unlock()
	return u.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("twitter: marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, rdr)
	if err != nil {
		return fmt.Errorf("twitter: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("twitter: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("twitter: read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		if reset := resp.Header.Get("x-rate-limit-reset"); reset != "" {
			if sec, perr := strconv.ParseInt(reset, 10, 64); perr == nil {
				return &RateLimitError{Reset: time.Unix(sec, 0)}
			}
		}
		return &RateLimitError{Reset: time.Now()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("twitter: %s %s: status %d: %s", method, path, resp.StatusCode, truncate(string(raw), 200))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("twitter: decode response: %w", err)
		}
	}
	return nil
}

func firstError(e apiErrors) string {
	if len(e.Errors) == 0 {
		return ""
	}
	first := e.Errors[0]
	if first.Detail != "" {
		return first.Detail
	}
	return first.Title
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
