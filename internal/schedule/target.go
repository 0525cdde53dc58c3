package schedule

import (
	"fmt"
	"regexp"
	"strings"
)

// TargetType tells the task how to resolve a target to a concrete tweet.
type TargetType string

const (
	// TargetTweet references one tweet directly by link.
	TargetTweet TargetType = "tweet"
	// TargetProfile references a profile whose latest tweet is resolved
	// at step time.
	TargetProfile TargetType = "profile"
)

// Target is one parsed target descriptor. Exactly one of TweetID or Handle
// is set, depending on Type.
type Target struct {
	Type    TargetType `json:"type"`
	TweetID string     `json:"tweet_id,omitempty"`
	Handle  string     `json:"handle,omitempty"`
	Raw     string     `json:"raw"`
}

// ValidationError marks a malformed target reference. Validation happens
// before any schedule exists, so these abort the triggering call.
type ValidationError struct {
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid target %q: %s", e.Input, e.Reason)
}

var (
	tweetLinkRe  = regexp.MustCompile(`^https://(?:twitter\.com|x\.com)/[^/]+/status/(\d+)`)
	profileURLRe = regexp.MustCompile(`^https://(?:twitter\.com|x\.com)/([A-Za-z0-9_]{1,15})/?$`)
)

// ParseTweetLink extracts the numeric status ID from a tweet link.
func ParseTweetLink(link string) (Target, error) {
	link = strings.TrimSpace(link)
	m := tweetLinkRe.FindStringSubmatch(link)
	if m == nil {
		return Target{}, &ValidationError{Input: link, Reason: "expected https://twitter.com/<user>/status/<id>"}
	}
	return Target{Type: TargetTweet, TweetID: m[1], Raw: link}, nil
}

// ParseProfileURL extracts the handle from a profile URL.
func ParseProfileURL(link string) (Target, error) {
	link = strings.TrimSpace(link)
	m := profileURLRe.FindStringSubmatch(link)
	if m == nil {
		return Target{}, &ValidationError{Input: link, Reason: "expected https://twitter.com/<username>"}
	}
	return Target{Type: TargetProfile, Handle: m[1], Raw: link}, nil
}

// ParseProfileURLs splits a free-form list (newlines or commas) into profile
// targets. The whole batch is rejected on the first malformed entry so no
// partially valid schedule is created.
func ParseProfileURLs(raw string) ([]Target, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})
	targets := make([]Target, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		t, err := ParseProfileURL(f)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		return nil, &ValidationError{Input: raw, Reason: "no profile URLs provided"}
	}
	return targets, nil
}
