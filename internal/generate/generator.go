package generate

import (
	"context"
	"fmt"
	"strings"
)

// Generator is a single generative-text backend.
type Generator interface {
	// Name identifies the backend in config and logs ("gemini", "azure").
	Name() string
	// Complete produces a reply for the given prompts. It may fail
	// (timeout, quota, auth); the router handles retries and fallbacks.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// Available reports whether the backend is configured well enough to call.
	Available() bool
}

// Profile selects the voice of the generated reply.
type Profile string

const (
	// ProfileTroll produces an antagonistic reply to the tweet content.
	ProfileTroll Profile = "troll"
	// ProfileBootlick produces a flattering reply aimed at the tweet's author.
	ProfileBootlick Profile = "bootlick"
)

// Request describes one generation call.
type Request struct {
	Profile Profile
	Content string // original tweet text
	Handle  string // author handle (bootlick prompts address the author)

	// Provider optionally names a backend. Empty or unknown routes to
	// the default.
	Provider string
}

// Fixed reply text used when generation cannot produce anything useful.
const (
	trollFallback    = "This tweet is by AI"
	bootlickFallback = "Great tweet! (This reply is by AI)"
	emptyFallback    = "Hi (This tweet is by AI)"
)

const (
	trollSystemPrompt = "Your task is to troll internet strangers on twitter. " +
		"Please respond to the original tweet by trolling the poster. " +
		"Your troll response should be as spicy as possible. " +
		"Output only the tweet response."

	bootlickSystemPrompt = "Your task is to flatter internet strangers on twitter. " +
		"Please respond to the original tweet by praising the poster enthusiastically. " +
		"Your response should be warm, specific, and a little over the top. " +
		"Output only the tweet response."
)

func promptsFor(req Request) (system, user string) {
	switch req.Profile {
	case ProfileBootlick:
		user = fmt.Sprintf("Generate a flattering response for this tweet by @%s: %q", strings.TrimPrefix(req.Handle, "@"), req.Content)
		return bootlickSystemPrompt, user
	default:
		user = fmt.Sprintf("Generate a trolling response for this tweet: %q", req.Content)
		return trollSystemPrompt, user
	}
}

func fallbackFor(p Profile) string {
	if p == ProfileBootlick {
		return bootlickFallback
	}
	return trollFallback
}
