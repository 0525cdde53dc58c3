package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"replybot/internal/schedule"
	logx "replybot/pkg/logx"
)

// Scheduler starts background reply jobs.
type Scheduler interface {
	StartRepeat(ctx context.Context, target schedule.Target, owner, provider string) (*schedule.Schedule, error)
	StartMulti(ctx context.Context, targets []schedule.Target, owner, provider string) (*schedule.Schedule, error)
}

// OneShot runs a single synchronous reply without creating a schedule.
type OneShot interface {
	RunOnce(ctx context.Context, target schedule.Target, provider string) schedule.ResponseRecord
}

// StatusReader serves schedule listings and details for one owner.
type StatusReader interface {
	SchedulesFor(ctx context.Context, owner string) ([]schedule.Summary, error)
	Detail(ctx context.Context, id, owner string) (*schedule.Schedule, error)
}

// LogSource exposes recent log lines for the /logs endpoint.
type LogSource interface {
	Lines() []string
}

// Deps are the collaborators the HTTP handlers call into.
type Deps struct {
	Scheduler Scheduler
	OneShot   OneShot
	Status    StatusReader
	Logs      LogSource
}

type triggerRequest struct {
	Link      string `json:"link"`
	TrollLord bool   `json:"troll_lord"`
	Provider  string `json:"provider,omitempty"`
}

type bootlickRequest struct {
	Profiles string `json:"profiles"`
	Multiple bool   `json:"multiple"`
	Provider string `json:"provider,omitempty"`
}

func newMux(cfg Config, deps Deps, lim *ipLimiter, log logx.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	guard := func(h func(w http.ResponseWriter, r *http.Request, owner string)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !lim.allow(r.RemoteAddr) {
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			owner, err := authenticate(r, cfg.JWTSecret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			h(w, r, owner)
		}
	}

	mux.HandleFunc("POST /trigger", guard(func(w http.ResponseWriter, r *http.Request, owner string) {
		var req triggerRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		target, err := schedule.ParseTweetLink(req.Link)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if req.TrollLord {
			s, err := deps.Scheduler.StartRepeat(r.Context(), target, owner, req.Provider)
			if err != nil {
				log.Error("schedule start failed", logx.Err(err))
				writeError(w, http.StatusInternalServerError, "failed to start schedule")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"status":   "Success",
				"schedule": s.Summarize(),
			})
			return
		}

		rec := deps.OneShot.RunOnce(r.Context(), target, req.Provider)
		if !rec.Success {
			writeError(w, http.StatusBadGateway, rec.Error)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "Success",
			"reply_id": rec.ReplyID,
			"text":     rec.Text,
		})
	}))

	mux.HandleFunc("POST /bootlick", guard(func(w http.ResponseWriter, r *http.Request, owner string) {
		var req bootlickRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if req.Multiple {
			targets, err := schedule.ParseProfileURLs(req.Profiles)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s, err := deps.Scheduler.StartMulti(r.Context(), targets, owner, req.Provider)
			if err != nil {
				log.Error("schedule start failed", logx.Err(err))
				writeError(w, http.StatusInternalServerError, "failed to start schedule")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"status":   "Success",
				"schedule": s.Summarize(),
			})
			return
		}

		target, err := schedule.ParseProfileURL(strings.TrimSpace(req.Profiles))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rec := deps.OneShot.RunOnce(r.Context(), target, req.Provider)
		if !rec.Success {
			writeError(w, http.StatusBadGateway, rec.Error)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "Success",
			"reply_id": rec.ReplyID,
			"text":     rec.Text,
		})
	}))

	mux.HandleFunc("GET /schedules", guard(func(w http.ResponseWriter, r *http.Request, owner string) {
		sums, err := deps.Status.SchedulesFor(r.Context(), owner)
		if err != nil {
			log.Error("schedule listing failed", logx.Err(err))
			writeError(w, http.StatusInternalServerError, "failed to list schedules")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "Success",
			"schedules": sums,
		})
	}))

	mux.HandleFunc("GET /schedules/{id}", guard(func(w http.ResponseWriter, r *http.Request, owner string) {
		s, err := deps.Status.Detail(r.Context(), r.PathValue("id"), owner)
		switch {
		case schedule.IsNotFound(err):
			writeError(w, http.StatusNotFound, "schedule not found")
			return
		case schedule.IsForbidden(err):
			writeError(w, http.StatusForbidden, "not your schedule")
			return
		case err != nil:
			log.Error("schedule lookup failed", logx.Err(err))
			writeError(w, http.StatusInternalServerError, "failed to load schedule")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "Success",
			"schedule": s,
		})
	}))

	mux.HandleFunc("GET /logs", guard(func(w http.ResponseWriter, r *http.Request, owner string) {
		var lines []string
		if deps.Logs != nil {
			lines = deps.Logs.Lines()
		}
		if lines == nil {
			lines = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "Success",
			"logs":   lines,
		})
	}))

	return mux
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
