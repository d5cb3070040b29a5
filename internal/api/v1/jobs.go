package api

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Job states reported by GET /api/v1/files/:id
const (
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// Job tracks one background file generation
type Job struct {
	ID      string
	Path    string
	Created time.Time

	progress atomic.Int32

	mu       sync.RWMutex
	status   string
	err      error
	message  string
	finished time.Time
	bytes    int64
	elapsed  time.Duration
}

// JobView is the JSON representation of a Job
type JobView struct {
	ID       string     `json:"id"`
	Path     string     `json:"path"`
	Status   string     `json:"status"`
	Progress int        `json:"progress"`
	Bytes    int64      `json:"bytes,omitempty"`
	Duration string     `json:"duration,omitempty"`
	Message  string     `json:"message,omitempty"`
	Error    string     `json:"error,omitempty"`
	Created  time.Time  `json:"created"`
	Finished *time.Time `json:"finished,omitempty"`
}

// setProgress is the allocator progress callback
func (j *Job) setProgress(pct int) {
	j.progress.Store(int32(pct)) //nolint:gosec // 0..100
}

func (j *Job) succeed(bytes int64, elapsed time.Duration, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = JobSucceeded
	j.bytes = bytes
	j.elapsed = elapsed
	j.message = message
	j.finished = time.Now()
}

func (j *Job) fail(err error, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = JobFailed
	j.err = err
	j.message = message
	j.finished = time.Now()
}

// Status returns the current state
func (j *Job) Status() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// View returns a consistent snapshot of the job
func (j *Job) View() JobView {
	j.mu.RLock()
	defer j.mu.RUnlock()

	v := JobView{
		ID:       j.ID,
		Path:     j.Path,
		Status:   j.status,
		Progress: int(j.progress.Load()),
		Bytes:    j.bytes,
		Message:  j.message,
		Created:  j.Created,
	}
	if j.err != nil {
		v.Error = j.err.Error()
	}
	if !j.finished.IsZero() {
		finished := j.finished
		v.Finished = &finished
		if j.status == JobSucceeded {
			v.Duration = j.elapsed.Round(time.Millisecond).String()
		}
	}
	return v
}

// JobStore keeps jobs by ID. Running jobs never expire; finished jobs expire
// after the configured TTL and are evicted by Sweep.
type JobStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewJobStore creates a store whose finished jobs expire after ttl
func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		cache: cache.New(ttl, 0),
		ttl:   ttl,
	}
}

// Create registers a running job for path
func (s *JobStore) Create(path string) *Job {
	job := &Job{
		ID:      uuid.NewString(),
		Path:    path,
		Created: time.Now(),
		status:  JobRunning,
	}
	s.cache.Set(job.ID, job, cache.NoExpiration)
	return job
}

// Finish starts the expiry clock of a finished job
func (s *JobStore) Finish(job *Job) {
	s.cache.Set(job.ID, job, s.ttl)
}

// Get returns the job with id
func (s *JobStore) Get(id string) (*Job, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	job, ok := v.(*Job)
	return job, ok
}

// Sweep evicts expired jobs
func (s *JobStore) Sweep() {
	s.cache.DeleteExpired()
}

// Count returns the number of stored jobs, including expired ones not yet evicted
func (s *JobStore) Count() int {
	return s.cache.ItemCount()
}
