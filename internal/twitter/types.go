package twitter

import (
	"fmt"
	"time"
)

// Tweet is the subset of the v2 tweet object the bot cares about.
type Tweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	AuthorID  string `json:"author_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// User is the subset of the v2 user object the bot cares about.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username"`
}

// RateLimitError reports a 429 with the reset time from the
// x-rate-limit-reset header, so callers can tell users how long to wait.
type RateLimitError struct {
	Reset time.Time
}

func (e *RateLimitError) Error() string {
	wait := time.Until(e.Reset).Round(time.Second)
	if wait < 0 {
		wait = 0
	}
	return fmt.Sprintf("twitter: rate limit exceeded, retry in %s", wait)
}

// apiErrors is the error envelope some v2 responses carry alongside 200s.
type apiErrors struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}
