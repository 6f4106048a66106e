// Package engine serializes every purrwatch event and query through a single
// goroutine that owns the tracker state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/blackwell-systems/purrwatch/internal/config"
	"github.com/blackwell-systems/purrwatch/internal/tracker"
)

// ErrStopped is returned for requests submitted after Run has returned.
var ErrStopped = errors.New("engine stopped")

const (
	queueSize       = 64
	deliveryTimeout = 2 * time.Second
)

// Engine owns the tracker state. All reads and writes happen on the
// goroutine running Run.
type Engine struct {
	store    Store
	tracker  *tracker.Tracker
	notifier Notifier
	clock    Clock
	seed     config.Seed

	reqs      chan envelope
	done      chan struct{}
	broadcast *Debouncer

	// activeTab is the last tab reported active. lastDomain is the domain
	// each tab last showed. Loop goroutine only.
	activeTab  int
	lastDomain map[int]string
}

type envelope struct {
	ctx   context.Context
	req   Request
	reply chan result
}

type result struct {
	value any
	err   error
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithTracker overrides the tracker built from the config.
func WithTracker(t *tracker.Tracker) Option {
	return func(e *Engine) { e.tracker = t }
}

// New builds an Engine over store. A nil notifier discards outbound messages.
func New(cfg *config.Config, store Store, notifier Notifier, opts ...Option) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	e := &Engine{
		store:    store,
		tracker:  tracker.New(cfg, nil),
		notifier: notifier,
		clock:    systemClock{},
		seed:     cfg.Defaults,
		reqs:     make(chan envelope, queueSize),
		done:     make(chan struct{}),

		lastDomain: make(map[int]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.broadcast = NewDebouncer(cfg.Schedule.BroadcastDebounce, func() { e.Submit(broadcastTick{}) })
	return e
}

// Run processes requests until ctx is cancelled. On start it performs a
// rollover check so a daemon started after midnight archives first.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	defer e.broadcast.Stop()

	if _, err := e.handle(ctx, rolloverTick{}); err != nil {
		log.Printf("[engine] startup rollover: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-e.reqs:
			v, err := e.handle(env.ctx, env.req)
			if err != nil {
				log.Printf("[engine] dropped %T: %v", env.req, err)
			}
			if env.reply != nil {
				env.reply <- result{value: v, err: err}
			}
		}
	}
}

// Do submits req and waits for its result.
func (e *Engine) Do(ctx context.Context, req Request) (any, error) {
	env := envelope{ctx: ctx, req: req, reply: make(chan result, 1)}
	select {
	case e.reqs <- env:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
		return nil, ErrStopped
	}

	select {
	case r := <-env.reply:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
		// The request may have been answered just before the loop exited.
		select {
		case r := <-env.reply:
			return r.value, r.err
		default:
			return nil, ErrStopped
		}
	}
}

// Submit queues req without waiting. It never blocks; a full queue drops req.
func (e *Engine) Submit(req Request) {
	select {
	case <-e.done:
		return
	default:
	}
	select {
	case e.reqs <- envelope{ctx: context.Background(), req: req}:
	default:
		log.Printf("[engine] queue full, dropped %T", req)
	}
}

// Call is Do with the result asserted to T.
func Call[T any](ctx context.Context, e *Engine, req Request) (T, error) {
	var zero T
	v, err := e.Do(ctx, req)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%T returned %T, not %T", req, v, zero)
	}
	return out, nil
}

// txn is the working copy of state for one request. Effects run only after
// the state has been saved.
type txn struct {
	s       *tracker.State
	now     time.Time
	dirty   bool
	effects []func(context.Context)
}

func (tx *txn) after(fn func(context.Context)) {
	tx.effects = append(tx.effects, fn)
}

func (e *Engine) handle(ctx context.Context, req Request) (any, error) {
	s, err := loadState(ctx, e.store, e.tracker.Baseline(), e.seed)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	tx := &txn{s: s, now: e.clock.Now()}

	// Roll over before anything else so events never land in a stale day.
	if e.tracker.CheckRollover(tx.s, tx.now) {
		log.Printf("[engine] rolled over to %s", tx.s.LastResetDate)
		tx.dirty = true
		e.recompute(tx)
	}

	v, err := e.dispatch(tx, req)
	if err != nil {
		return nil, err
	}

	if tx.dirty {
		if err := saveState(ctx, e.store, tx.s); err != nil {
			return nil, fmt.Errorf("saving state: %w", err)
		}
	}
	for _, fn := range tx.effects {
		dctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		fn(dctx)
		cancel()
	}
	return v, nil
}

func (e *Engine) dispatch(tx *txn, req Request) (any, error) {
	t := e.tracker
	switch r := req.(type) {
	case GetStatus:
		return tx.s.Pet, nil

	case GetSnapshot:
		return t.Snapshot(tx.s, tx.now), nil

	case GetDailyStats:
		return DailyStatsResponse{
			DailyStats:     tx.s.Daily,
			WeeklyProgress: t.WeeklyProgress(tx.s, tx.now),
		}, nil

	case GetHistoricalData:
		days := r.DaysBack
		if days == 0 {
			days = tracker.DefaultHistoryDays
		}
		return t.History(tx.s, tx.now, days), nil

	case GetSettings:
		return tracker.CurrentSettings(tx.s), nil

	case UpdateSettings:
		if err := tracker.ApplySettings(tx.s, r.Update); err != nil {
			return nil, err
		}
		tx.dirty = true
		e.broadcastNow(tx)
		return Ack{Success: true}, nil

	case UpdateWebsiteCategories:
		lists := r.Lists
		if err := tracker.ApplySettings(tx.s, tracker.SettingsUpdate{WebsiteCategories: &lists}); err != nil {
			return nil, err
		}
		tx.dirty = true
		e.broadcastNow(tx)
		return Ack{Success: true}, nil

	case UpdatePopupThresholds:
		next, err := t.WithPopup(r.Update)
		if err != nil {
			return nil, err
		}
		e.tracker = next
		p := next.PopupConfig()
		log.Printf("[engine] popup rules: health below %v, cooldown %s", p.HealthThreshold, p.Cooldown)
		return Ack{Success: true}, nil

	case MuteNotifications:
		until := t.Mute(tx.s, tx.now)
		tx.dirty = true
		log.Printf("[engine] popups muted until %s", until.Format(time.RFC3339))
		return MuteResult{Success: true, MutedUntil: until.Format(time.RFC3339)}, nil

	case PopupDismissed:
		tracker.MarkShown(tx.s, tx.now)
		tx.dirty = true
		return Ack{Success: true}, nil

	case ForceCheckThresholds:
		return e.checkPopup(tx), nil

	case ForceMidnightReset:
		tx.s.LastResetDate = ""
		t.CheckRollover(tx.s, tx.now)
		tx.dirty = true
		e.recompute(tx)
		return Ack{Success: true}, nil

	case TabActivated:
		e.activeTab = r.TabID
		e.activate(tx, r.TabID, r.URL)
		return Ack{Success: true}, nil

	case NavigationCompleted:
		// Background tabs finishing a load do not move the active session.
		if e.activeTab != 0 && r.TabID != e.activeTab {
			return Ack{Success: true}, nil
		}
		e.activeTab = r.TabID
		e.activate(tx, r.TabID, r.URL)
		return Ack{Success: true}, nil

	case FocusLost:
		t.Activate(tx.s, "", tx.now)
		tx.dirty = true
		return Ack{Success: true}, nil

	case FocusGained:
		if r.TabID != 0 {
			e.activeTab = r.TabID
		}
		if r.URL == "" {
			e.track(tx, e.activeTab, e.lastDomain[e.activeTab])
			return Ack{Success: true}, nil
		}
		e.activate(tx, e.activeTab, r.URL)
		return Ack{Success: true}, nil

	case recomputeTick:
		e.recompute(tx)
		return nil, nil

	case rolloverTick:
		// handle already ran the check.
		return nil, nil

	case thresholdTick:
		e.checkPopup(tx)
		return nil, nil

	case broadcastTick:
		e.broadcastNow(tx)
		return nil, nil

	default:
		return nil, fmt.Errorf("unhandled request %T", req)
	}
}

// activate moves the active session to rawURL. Untrackable URLs pause it.
func (e *Engine) activate(tx *txn, tabID int, rawURL string) {
	domain, ok := tracker.ExtractDomain(rawURL)
	if !ok {
		domain = ""
	}
	e.lastDomain[tabID] = domain
	e.track(tx, tabID, domain)
}

// track moves the active session to domain; "" pauses it.
func (e *Engine) track(tx *txn, tabID int, domain string) {
	e.tracker.Activate(tx.s, domain, tx.now)
	tx.dirty = true

	if domain != "" {
		category := tracker.Classify(tx.s.Categories, domain)
		tx.after(func(ctx context.Context) {
			if err := e.notifier.SiteCategoryUpdate(ctx, tabID, domain, category); err != nil {
				log.Printf("[engine] category update for tab %d: %v", tabID, err)
			}
		})
	}
	e.broadcast.Trigger()
}

// recompute updates the pet, then checks the popup and broadcasts whether
// or not the pet changed.
func (e *Engine) recompute(tx *txn) {
	before := tx.s.Pet
	after := e.tracker.Recompute(tx.s, tx.now)
	if after != before {
		tx.dirty = true
	}
	e.checkPopup(tx)
	e.broadcastNow(tx)
}

func (e *Engine) checkPopup(tx *txn) tracker.Decision {
	d := e.tracker.PopupDecision(tx.s, tx.now)
	if !d.Show {
		return d
	}
	tracker.MarkShown(tx.s, tx.now)
	tx.dirty = true

	tabID, pet := e.activeTab, tx.s.Pet
	tx.after(func(ctx context.Context) {
		if err := e.notifier.ShowPopup(ctx, tabID, pet); err != nil {
			log.Printf("[engine] popup for tab %d: %v", tabID, err)
		}
	})
	return d
}

func (e *Engine) broadcastNow(tx *txn) {
	snap := e.tracker.Snapshot(tx.s, tx.now)
	tx.after(func(ctx context.Context) {
		if err := e.notifier.StatsUpdate(ctx, snap); err != nil {
			log.Printf("[engine] stats update: %v", err)
		}
	})
}
