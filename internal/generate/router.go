package generate

import (
	"context"
	"strings"

	"replybot/internal/retry"
	logx "replybot/pkg/logx"
)

// Router picks a backend for each request and guarantees a usable reply:
// backend calls are retried, and exhaustion substitutes a fixed fallback
// string instead of surfacing an error.
type Router struct {
	log      logx.Logger
	policy   retry.Policy
	def      string
	backends map[string]Generator
}

// NewRouter builds a router over the given backends. def names the backend
// tried when a request doesn't name one (or names an unknown one); when def
// is empty the first available backend wins.
func NewRouter(log logx.Logger, policy retry.Policy, def string, backends ...Generator) *Router {
	r := &Router{
		log:      log,
		policy:   policy,
		backends: make(map[string]Generator, len(backends)),
	}
	for _, b := range backends {
		if b == nil {
			continue
		}
		r.backends[b.Name()] = b
	}
	def = strings.TrimSpace(strings.ToLower(def))
	if _, ok := r.backends[def]; !ok {
		def = ""
	}
	if def == "" {
		for _, b := range backends {
			if b != nil && b.Available() {
				def = b.Name()
				break
			}
		}
	}
	r.def = def
	return r
}

// Default returns the name of the backend used when none is requested.
func (r *Router) Default() string { return r.def }

// Generate produces reply text for the request. It never returns an error:
// an unknown or unavailable backend re-routes to the default (logging one
// notice), retries are applied per backend call, and exhaustion or empty
// output yields a fixed fallback string.
func (r *Router) Generate(ctx context.Context, req Request) string {
	g := r.pick(req)
	if g == nil {
		r.log.Warn("no generation backend available; using fallback",
			logx.String("profile", string(req.Profile)),
		)
		return fallbackFor(req.Profile)
	}

	system, user := promptsFor(req)
	out, err := retry.Do(ctx, r.policy, func(ctx context.Context) (string, error) {
		return g.Complete(ctx, system, user)
	})
	if err != nil {
		r.log.Error("generation failed; using fallback",
			logx.String("backend", g.Name()),
			logx.String("profile", string(req.Profile)),
			logx.Err(err),
		)
		return fallbackFor(req.Profile)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return emptyFallback
	}
	return out
}

// pick resolves the backend for a request. Requests naming an unknown or
// unavailable backend fall back to the default with a single notice.
func (r *Router) pick(req Request) Generator {
	name := strings.TrimSpace(strings.ToLower(req.Provider))
	if name != "" && name != r.def {
		if g, ok := r.backends[name]; ok && g.Available() {
			return g
		}
		r.log.Warn("requested backend unavailable; routing to default",
			logx.String("requested", name),
			logx.String("default", r.def),
		)
	}
	if g, ok := r.backends[r.def]; ok && g.Available() {
		return g
	}
	return nil
}
