package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scouthq/paperscout/internal/domain"
	"github.com/scouthq/paperscout/internal/logger"
)

// Trigger names used for scheduling and manual runs.
const (
	TriggerIngest = "ingest"
	TriggerPoll   = "poll"
)

// RunSummary is the machine-readable outcome of one trigger run. Fields not
// relevant to a trigger stay at their zero value.
type RunSummary struct {
	Triggered      string `json:"triggered"`
	Fetched        int    `json:"fetched,omitempty"`
	BatchID        string `json:"batch_id,omitempty"`
	BatchItemCount int    `json:"batch_item_count,omitempty"`
	Checked        int    `json:"checked,omitempty"`
	Completed      int    `json:"completed,omitempty"`
	Failed         int    `json:"failed,omitempty"`
	Error          string `json:"error,omitempty"`
}

// TriggerFunc is one schedulable unit of work.
type TriggerFunc func(ctx context.Context) (*RunSummary, error)

// RunRecord captures the most recent run of a trigger.
type RunRecord struct {
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Summary    *RunSummary `json:"summary,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// TriggerStatus is the externally visible state of one registered trigger.
type TriggerStatus struct {
	Running bool       `json:"running"`
	LastRun *RunRecord `json:"last_run,omitempty"`
}

type trigger struct {
	name    string
	fn      TriggerFunc
	running atomic.Bool

	mu      sync.Mutex
	lastRun *RunRecord
}

// Scheduler owns the background loops and serializes each trigger: a trigger
// never runs concurrently with itself, whether fired by the clock or manually.
type Scheduler struct {
	mu       sync.RWMutex
	triggers map[string]*trigger

	logger *logger.Logger
	wg     sync.WaitGroup
	stop   chan struct{}
	now    func() time.Time
}

// New creates an empty scheduler; register triggers before starting loops.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		triggers: make(map[string]*trigger),
		logger:   log,
		stop:     make(chan struct{}),
		now:      time.Now,
	}
}

// Register adds a named trigger. Registering the same name twice replaces the
// function but keeps run history.
func (s *Scheduler) Register(name string, fn TriggerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.triggers[name]; ok {
		t.fn = fn
		return
	}
	s.triggers[name] = &trigger{name: name, fn: fn}
}

// StartDaily fires the trigger once a day at the given local wall-clock time.
func (s *Scheduler) StartDaily(name string, hour, minute int) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.WithFields(logger.Fields{
			logger.FieldTrigger: name,
			"at":                fmt.Sprintf("%02d:%02d", hour, minute),
		}).Info("Starting daily trigger loop")

		for {
			wait := untilNext(s.now(), hour, minute)
			timer := time.NewTimer(wait)
			select {
			case <-s.stop:
				timer.Stop()
				return
			case <-timer.C:
				s.fire(context.Background(), name)
			}
		}
	}()
}

// StartInterval fires the trigger on a fixed interval, with one immediate run
// at startup.
func (s *Scheduler) StartInterval(name string, every time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.WithFields(logger.Fields{
			logger.FieldTrigger: name,
			"every":             every.String(),
		}).Info("Starting interval trigger loop")

		s.fire(context.Background(), name)

		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.fire(context.Background(), name)
			}
		}
	}()
}

// RunNow runs the named trigger synchronously with its own timeout, for the
// admin surface. Returns domain.ErrUnknownTrigger for unregistered names and
// domain.ErrTriggerRunning when the trigger is already in flight.
func (s *Scheduler) RunNow(ctx context.Context, name string, timeout time.Duration) (*RunSummary, error) {
	s.mu.RLock()
	t, ok := s.triggers[name]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrUnknownTrigger
	}
	if !t.running.CompareAndSwap(false, true) {
		return nil, domain.ErrTriggerRunning
	}
	defer t.running.Store(false)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.run(ctx, t)
}

// Status reports every registered trigger with its last run.
func (s *Scheduler) Status() map[string]TriggerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]TriggerStatus, len(s.triggers))
	for name, t := range s.triggers {
		t.mu.Lock()
		out[name] = TriggerStatus{
			Running: t.running.Load(),
			LastRun: t.lastRun,
		}
		t.mu.Unlock()
	}
	return out
}

// Stop signals all loops and waits for them to exit. In-flight runs finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
}

// fire runs a trigger from a background loop, skipping silently if the same
// trigger is still in flight.
func (s *Scheduler) fire(ctx context.Context, name string) {
	s.mu.RLock()
	t, ok := s.triggers[name]
	s.mu.RUnlock()
	if !ok {
		return
	}
	if !t.running.CompareAndSwap(false, true) {
		s.logger.WithField(logger.FieldTrigger, name).Warn("Skipping scheduled run: trigger still in flight")
		return
	}
	defer t.running.Store(false)

	if _, err := s.run(ctx, t); err != nil {
		s.logger.WithField(logger.FieldTrigger, name).WithError(err).Error("Scheduled run failed")
	}
}

// run executes the trigger function with panic containment and records the
// outcome on the trigger.
func (s *Scheduler) run(ctx context.Context, t *trigger) (summary *RunSummary, err error) {
	started := s.now()
	log := s.logger.WithField(logger.FieldTrigger, t.name)
	log.Info("Trigger run started")

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("trigger %s panicked: %v", t.name, r)
			log.WithField("panic", fmt.Sprintf("%v", r)).Error("Trigger run panicked")
		}

		record := &RunRecord{StartedAt: started, FinishedAt: s.now(), Summary: summary}
		if err != nil {
			record.Error = err.Error()
		}
		t.mu.Lock()
		t.lastRun = record
		t.mu.Unlock()

		log.WithField(logger.FieldDurationMs, s.now().Sub(started).Milliseconds()).Info("Trigger run finished")
	}()

	summary, err = t.fn(ctx)
	if summary != nil {
		summary.Triggered = t.name
	}
	return summary, err
}

// untilNext computes the wait until the next occurrence of hh:mm after now.
func untilNext(now time.Time, hour, minute int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
