package schedule

import (
	"context"
	"sync"
)

// JobRegistry owns the cancel handles of in-flight schedule jobs. It exists
// so job lifecycle is reachable through an object handed to the coordinator
// rather than process-wide state.
type JobRegistry struct {
	mu   sync.Mutex
	jobs map[string]*jobHandle
}

type jobHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRegistry() *JobRegistry {
	return &JobRegistry{jobs: map[string]*jobHandle{}}
}

// add registers a running job; the job goroutine must call finish when it
// exits.
func (r *JobRegistry) add(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id] = &jobHandle{cancel: cancel, done: make(chan struct{})}
}

// finish marks a job's goroutine as exited and drops the handle.
func (r *JobRegistry) finish(id string) {
	r.mu.Lock()
	h := r.jobs[id]
	delete(r.jobs, id)
	r.mu.Unlock()
	if h != nil {
		close(h.done)
	}
}

// Cancel stops one job. It reports whether the job was running.
func (r *JobRegistry) Cancel(id string) bool {
	r.mu.Lock()
	h := r.jobs[id]
	r.mu.Unlock()
	if h == nil {
		return false
	}
	h.cancel()
	<-h.done
	return true
}

// Len reports the number of running jobs.
func (r *JobRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Stop cancels all jobs and waits for their goroutines to exit.
func (r *JobRegistry) Stop() {
	r.mu.Lock()
	handles := make([]*jobHandle, 0, len(r.jobs))
	for _, h := range r.jobs {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	for _, h := range handles {
		h.cancel()
	}
	for _, h := range handles {
		<-h.done
	}
}
