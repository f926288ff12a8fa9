// Package scheduler runs the periodic maintenance jobs. Jobs never touch RFQ,
// quote or allocation state.
package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// JobStatus is the last known outcome of a job
type JobStatus struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	LastRun  time.Time `json:"last_run,omitempty"`
	LastErr  string    `json:"last_error,omitempty"`
	Runs     int       `json:"runs"`
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu     sync.Mutex
	jobs   map[string]Job
	status map[string]*JobStatus
}

// New creates a new scheduler. Schedules use the standard five-field cron format
// or descriptors such as "@every 1h".
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:    log.With().Str("component", "scheduler").Logger(),
		jobs:   make(map[string]Job),
		status: make(map[string]*JobStatus),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "*/5 * * * *"        - Every 5 minutes
//   - "@hourly"            - Every hour
//   - "0 3 * * *"          - 3 AM daily
//   - "@every 30s"         - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	s.mu.Lock()
	if _, exists := s.jobs[job.Name()]; exists {
		s.mu.Unlock()
		return fmt.Errorf("job %s already registered", job.Name())
	}
	s.jobs[job.Name()] = job
	s.status[job.Name()] = &JobStatus{Name: job.Name(), Schedule: schedule}
	s.mu.Unlock()

	_, err := s.cron.AddFunc(schedule, func() {
		_ = s.run(job)
	})
	if err != nil {
		s.mu.Lock()
		delete(s.jobs, job.Name())
		delete(s.status, job.Name())
		s.mu.Unlock()
		return fmt.Errorf("invalid schedule %q for %s: %w", schedule, job.Name(), err)
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a registered job immediately (outside schedule)
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %s", name)
	}

	s.log.Info().Str("job", name).Msg("Running job immediately")
	return s.run(job)
}

// Has reports whether a job named name is registered
func (s *Scheduler) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[name]
	return ok
}

// Status returns the status of every registered job, sorted by name
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.status))
	for _, st := range s.status {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) run(job Job) error {
	s.log.Debug().Str("job", job.Name()).Msg("Running job")

	start := time.Now()
	err := job.Run()

	s.mu.Lock()
	if st, ok := s.status[job.Name()]; ok {
		st.LastRun = start.UTC()
		st.Runs++
		st.LastErr = ""
		if err != nil {
			st.LastErr = err.Error()
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Msg("Job failed")
	} else {
		s.log.Debug().
			Str("job", job.Name()).
			Dur("duration_ms", time.Since(start)).
			Msg("Job completed")
	}
	return err
}
