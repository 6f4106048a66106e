package engine

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/robfig/cron/v3"

	"github.com/blackwell-systems/purrwatch/internal/config"
)

// Scheduler submits the periodic ticks to an engine.
type Scheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
}

// NewScheduler registers one cron entry per tick. An empty spec disables
// that tick.
func NewScheduler(cfg config.Schedule, e *Engine) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
	}

	jobs := []struct {
		name string
		spec string
		req  Request
	}{
		{"recompute", cfg.Recompute, recomputeTick{}},
		{"rollover", cfg.Rollover, rolloverTick{}},
		{"threshold_check", cfg.ThresholdCheck, thresholdTick{}},
		{"broadcast", cfg.Broadcast, broadcastTick{}},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		req := j.req
		id, err := s.cron.AddFunc(j.spec, func() { e.Submit(req) })
		if err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", j.name, j.spec, err)
		}
		s.entries[j.name] = id
		log.Printf("[scheduler] %s: %s", j.name, j.spec)
	}
	return s, nil
}

// Start begins firing entries in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// cancel removes one named entry. It reports whether the entry existed.
func (s *Scheduler) cancel(name string) bool {
	id, ok := s.entries[name]
	if !ok {
		return false
	}
	s.cron.Remove(id)
	delete(s.entries, name)
	return true
}

// Names returns the registered entry names in sorted order.
func (s *Scheduler) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
