package logx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// memoryRing retains the last N formatted log lines for the /logs endpoint.
//
// Lines are rendered as compact single-line text (not raw JSON) so the
// endpoint output is readable without tooling.
type memoryRing struct {
	mu   sync.Mutex
	max  int
	buf  []string
	head int // index of oldest line when full
	full bool
}

func newMemoryRing(max int) *memoryRing {
	if max <= 0 {
		max = 500
	}
	return &memoryRing{max: max, buf: make([]string, 0, max)}
}

func (r *memoryRing) add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		r.buf = append(r.buf, line)
		if len(r.buf) == r.max {
			r.full = true
		}
		return
	}
	r.buf[r.head] = line
	r.head = (r.head + 1) % r.max
}

func (r *memoryRing) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.buf))
	if r.full {
		out = append(out, r.buf[r.head:]...)
		out = append(out, r.buf[:r.head]...)
	} else {
		out = append(out, r.buf...)
	}
	return out
}

// resize adjusts capacity on hot reload; retained lines are kept up to the new max.
func (r *memoryRing) resize(max int) {
	if max <= 0 {
		max = 500
	}
	r.mu.Lock()
	if max == r.max {
		r.mu.Unlock()
		return
	}
	old := r.linesLocked()
	if len(old) > max {
		old = old[len(old)-max:]
	}
	r.max = max
	r.buf = make([]string, len(old), max)
	copy(r.buf, old)
	r.head = 0
	r.full = len(r.buf) == max
	r.mu.Unlock()
}

func (r *memoryRing) linesLocked() []string {
	out := make([]string, 0, len(r.buf))
	if r.full {
		out = append(out, r.buf[r.head:]...)
		out = append(out, r.buf[:r.head]...)
	} else {
		out = append(out, r.buf...)
	}
	return out
}

// ---- Memory writer (zerolog sink) ----

type memoryWriter struct{ ring *memoryRing }

func (w *memoryWriter) Write(p []byte) (int, error) {
	if w.ring == nil {
		return len(p), nil
	}
	line := formatMemoryJSON(p)
	if line != "" {
		w.ring.add(line)
	}
	return len(p), nil
}

func formatMemoryJSON(p []byte) string {
	// Best-effort decode of a zerolog JSON line.
	var m map[string]any
	if err := json.Unmarshal(p, &m); err != nil {
		return strings.TrimSpace(string(p))
	}

	ts, _ := m["time"].(string)
	lvl, _ := m["level"].(string)
	msg, _ := m["message"].(string)

	var b strings.Builder
	if ts != "" {
		b.WriteString("[")
		b.WriteString(ts)
		b.WriteString("] ")
	}
	if lvl != "" {
		b.WriteString("[")
		b.WriteString(strings.ToUpper(lvl))
		b.WriteString("] ")
	}
	b.WriteString(msg)

	// Stable key order so repeated events render identically.
	keys := make([]string, 0, len(m))
	for k := range m {
		if k == "time" || k == "level" || k == "message" || k == "caller" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(fmt.Sprint(m[k]))
	}
	return b.String()
}
