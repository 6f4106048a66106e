package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/purrwatch/internal/config"
	"github.com/blackwell-systems/purrwatch/internal/store"
	"github.com/blackwell-systems/purrwatch/internal/tracker"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type categoryMsg struct {
	tabID    int
	domain   string
	category tracker.Category
}

type popupMsg struct {
	tabID int
	pet   tracker.PetState
}

type recordingNotifier struct {
	mu         sync.Mutex
	categories []categoryMsg
	popups     []popupMsg
	stats      []tracker.StatsSnapshot
	fail       bool
}

func (n *recordingNotifier) SiteCategoryUpdate(_ context.Context, tabID int, domain string, c tracker.Category) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.categories = append(n.categories, categoryMsg{tabID, domain, c})
	if n.fail {
		return errors.New("no view")
	}
	return nil
}

func (n *recordingNotifier) ShowPopup(_ context.Context, tabID int, pet tracker.PetState) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.popups = append(n.popups, popupMsg{tabID, pet})
	if n.fail {
		return errors.New("no view")
	}
	return nil
}

func (n *recordingNotifier) StatsUpdate(_ context.Context, snap tracker.StatsSnapshot) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stats = append(n.stats, snap)
	if n.fail {
		return errors.New("no view")
	}
	return nil
}

func (n *recordingNotifier) popupCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.popups)
}

// flakyStore fails reads or writes on demand.
type flakyStore struct {
	Store
	failGet atomic.Bool
	failSet atomic.Bool
}

func (f *flakyStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if f.failGet.Load() {
		return nil, errors.New("database is locked")
	}
	return f.Store.Get(ctx, keys...)
}

func (f *flakyStore) Set(ctx context.Context, values map[string][]byte) error {
	if f.failSet.Load() {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, values)
}

func testConfig() *config.Config {
	cfg := config.Default()
	// Keep the debounced broadcast out of the way of synchronous assertions.
	cfg.Schedule.BroadcastDebounce = time.Hour
	return cfg
}

func openStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// seedState writes a state dated t0 so startup does not roll over.
func seedState(t *testing.T, st Store, mutate func(s *tracker.State)) {
	t.Helper()
	s := &tracker.State{
		Pet:            tracker.PetState{Health: 100, Happiness: 70},
		Daily:          map[string]*tracker.DailyStats{},
		History:        map[string]tracker.HistoricalRecord{},
		Categories:     tracker.CategoryLists{Productive: []string{"github.com"}, Unproductive: []string{"youtube.com"}},
		ScreenTimeGoal: 4 * time.Hour,
		LastResetDate:  "2026-03-10",
	}
	if mutate != nil {
		mutate(s)
	}
	require.NoError(t, saveState(context.Background(), st, s))
}

func startEngine(t *testing.T, st Store, clk *fakeClock) (*Engine, *recordingNotifier) {
	t.Helper()
	cfg := testConfig()
	n := &recordingNotifier{}
	e := New(cfg, st, n, WithClock(clk), WithTracker(tracker.New(cfg, time.UTC)))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})
	return e, n
}

func TestEngine_TabEventsAccrueTime(t *testing.T) {
	st := openStore(t)
	seedState(t, st, nil)
	clk := &fakeClock{now: t0}
	e, n := startEngine(t, st, clk)
	ctx := context.Background()

	_, err := e.Do(ctx, TabActivated{TabID: 1, URL: "https://github.com/golang/go"})
	require.NoError(t, err)
	clk.Advance(30 * time.Second)
	_, err = e.Do(ctx, TabActivated{TabID: 2, URL: "https://www.youtube.com/watch?v=x"})
	require.NoError(t, err)

	resp, err := Call[DailyStatsResponse](ctx, e, GetDailyStats{})
	require.NoError(t, err)
	day := resp.DailyStats["2026-03-10"]
	require.NotNil(t, day)
	assert.Equal(t, 30*time.Second, day.Productive.Duration())
	require.Contains(t, day.Websites, "github.com")
	assert.Equal(t, 1, day.Websites["github.com"].Visits)
	require.Len(t, day.Sessions, 1)
	assert.NotEmpty(t, day.Sessions[0].ID)
	assert.Len(t, resp.WeeklyProgress, 7)

	n.mu.Lock()
	defer n.mu.Unlock()
	require.Len(t, n.categories, 2)
	assert.Equal(t, categoryMsg{1, "github.com", tracker.Productive}, n.categories[0])
	assert.Equal(t, categoryMsg{2, "youtube.com", tracker.Unproductive}, n.categories[1])
}

func TestEngine_UntrackableURLPausesSession(t *testing.T) {
	st := openStore(t)
	seedState(t, st, nil)
	clk := &fakeClock{now: t0}
	e, n := startEngine(t, st, clk)
	ctx := context.Background()

	_, err := e.Do(ctx, TabActivated{TabID: 1, URL: "https://github.com"})
	require.NoError(t, err)
	clk.Advance(time.Minute)
	_, err = e.Do(ctx, TabActivated{TabID: 1, URL: "chrome://extensions"})
	require.NoError(t, err)

	snap, err := Call[tracker.StatsSnapshot](ctx, e, GetSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, snap.ProductiveRaw.Duration())
	assert.Empty(t, snap.CurrentDomain)

	n.mu.Lock()
	defer n.mu.Unlock()
	assert.Len(t, n.categories, 1, "no category update for untrackable URLs")
}

func TestEngine_FocusLostAndGained(t *testing.T) {
	st := openStore(t)
	seedState(t, st, nil)
	clk := &fakeClock{now: t0}
	e, _ := startEngine(t, st, clk)
	ctx := context.Background()

	_, err := e.Do(ctx, TabActivated{TabID: 4, URL: "https://github.com"})
	require.NoError(t, err)
	clk.Advance(2 * time.Minute)
	_, err = e.Do(ctx, FocusLost{})
	require.NoError(t, err)

	// Time away from the browser does not accrue.
	clk.Advance(time.Hour)
	_, err = e.Do(ctx, FocusGained{URL: "https://github.com"})
	require.NoError(t, err)
	clk.Advance(time.Minute)
	_, err = e.Do(ctx, FocusLost{})
	require.NoError(t, err)

	snap, err := Call[tracker.StatsSnapshot](ctx, e, GetSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, snap.ProductiveRaw.Duration())
}

func TestEngine_FocusGainedWithoutURLResumesLastDomain(t *testing.T) {
	st := openStore(t)
	seedState(t, st, nil)
	clk := &fakeClock{now: t0}
	e, _ := startEngine(t, st, clk)
	ctx := context.Background()

	_, err := e.Do(ctx, TabActivated{TabID: 3, URL: "https://github.com/golang"})
	require.NoError(t, err)
	clk.Advance(time.Minute)
	_, err = e.Do(ctx, FocusLost{})
	require.NoError(t, err)
	clk.Advance(time.Hour)

	_, err = e.Do(ctx, FocusGained{})
	require.NoError(t, err)
	snap, err := Call[tracker.StatsSnapshot](ctx, e, GetSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, "github.com", snap.CurrentDomain)

	clk.Advance(2 * time.Minute)
	_, err = e.Do(ctx, FocusLost{})
	require.NoError(t, err)

	snap, err = Call[tracker.StatsSnapshot](ctx, e, GetSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, snap.ProductiveRaw.Duration())
	assert.Empty(t, snap.CurrentDomain)
}

func TestEngine_FocusGainedWithoutURLStaysPausedOnUntrackableTab(t *testing.T) {
	st := openStore(t)
	seedState(t, st, nil)
	clk := &fakeClock{now: t0}
	e, _ := startEngine(t, st, clk)
	ctx := context.Background()

	_, err := e.Do(ctx, TabActivated{TabID: 1, URL: "https://github.com"})
	require.NoError(t, err)
	_, err = e.Do(ctx, TabActivated{TabID: 2, URL: "about:blank"})
	require.NoError(t, err)
	_, err = e.Do(ctx, FocusLost{})
	require.NoError(t, err)

	_, err = e.Do(ctx, FocusGained{})
	require.NoError(t, err)
	snap, err := Call[tracker.StatsSnapshot](ctx, e, GetSnapshot{})
	require.NoError(t, err)
	assert.Empty(t, snap.CurrentDomain)

	// An explicit tab resumes what that tab last showed.
	_, err = e.Do(ctx, FocusGained{TabID: 1})
	require.NoError(t, err)
	snap, err = Call[tracker.StatsSnapshot](ctx, e, GetSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, "github.com", snap.CurrentDomain)
}

func TestEngine_BackgroundNavigationIgnored(t *testing.T) {
	st := openStore(t)
	seedState(t, st, nil)
	clk := &fakeClock{now: t0}
	e, _ := startEngine(t, st, clk)
	ctx := context.Background()

	_, err := e.Do(ctx, TabActivated{TabID: 1, URL: "https://github.com"})
	require.NoError(t, err)
	clk.Advance(time.Minute)
	_, err = e.Do(ctx, NavigationCompleted{TabID: 9, URL: "https://youtube.com"})
	require.NoError(t, err)

	snap, err := Call[tracker.StatsSnapshot](ctx, e, GetSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, "github.com", snap.CurrentDomain)

	_, err = e.Do(ctx, NavigationCompleted{TabID: 1, URL: "https://youtube.com"})
	require.NoError(t, err)
	snap, err = Call[tracker.StatsSnapshot](ctx, e, GetSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, "youtube.com", snap.CurrentDomain)
	assert.Equal(t, time.Minute, snap.ProductiveRaw.Duration())
}

func TestEngine_StartupRollsOverAndSeedsDefaults(t *testing.T) {
	st := openStore(t)
	seedState(t, st, func(s *tracker.State) {
		s.LastResetDate = "2026-03-09"
		s.Pet = tracker.PetState{Health: 60, Happiness: 50}
		day := s.Day("2026-03-09")
		day.Productive = tracker.Millis(time.Hour)
	})
	clk := &fakeClock{now: t0}
	e, _ := startEngine(t, st, clk)
	ctx := context.Background()

	hist, err := Call[[]tracker.DayRecord](ctx, e, GetHistoricalData{DaysBack: 7})
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.True(t, hist[0].InProgress)
	assert.Equal(t, "2026-03-09", hist[1].Date)
	assert.Equal(t, 60.0, hist[1].Health)

	pet, err := Call[tracker.PetState](ctx, e, GetStatus{})
	require.NoError(t, err)
	assert.Equal(t, tracker.PetState{Health: 100, Happiness: 70}, pet)

	raw, err := st.Get(ctx, KeyLastReset)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-10"`, string(raw[KeyLastReset]))
}

func TestEngine_EmptyStoreUsesSeedDefaults(t *testing.T) {
	st := openStore(t)
	clk := &fakeClock{now: t0}
	e, _ := startEngine(t, st, clk)

	settings, err := Call[tracker.Settings](context.Background(), e, GetSettings{})
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, settings.ScreenTimeGoal.Duration())
	assert.Contains(t, settings.WebsiteCategories.Productive, "github.com")
	assert.Contains(t, settings.WebsiteCategories.Unproductive, "youtube.com")
}

func TestEngine_EventsRollOverFirst(t *testing.T) {
	st := openStore(t)
	seedState(t, st, nil)
	clk := &fakeClock{now: t0}
	e, _ := startEngine(t, st, clk)
	ctx := context.Background()

	_, err := e.Do(ctx, TabActivated{TabID: 1, URL: "https://github.com"})
	require.NoError(t, err)
	clk.Advance(2 * time.Minute)
	_, err = e.Do(ctx, FocusLost{})
	require.NoError(t, err)

	// Next morning, before any scheduled rollover.
	clk.Advance(24 * time.Hour)
	_, err = e.Do(ctx, TabActivated{TabID: 1, URL: "https://github.com"})
	require.NoError(t, err)
	clk.Advance(time.Minute)
	_, err = e.Do(ctx, FocusLost{})
	require.NoError(t, err)

	resp, err := Call[DailyStatsResponse](ctx, e, GetDailyStats{})
	require.NoError(t, err)
	require.Len(t, resp.DailyStats, 1)
	today := resp.DailyStats["2026-03-11"]
	require.NotNil(t, today)
	assert.Equal(t, time.Minute, today.Productive.Duration())

	hist, err := Call[[]tracker.DayRecord](ctx, e, GetHistoricalData{DaysBack: 2})
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, tracker.Millis(2*time.Minute), hist[1].Productive)
}

func TestEngine_RecomputeTickMovesPet(t *testing.T) {
	st := openStore(t)
	seedState(t, st, func(s *tracker.State) {
		s.Pet = tracker.PetState{Health: 90, Happiness: 70}
		s.Day("2026-03-10").Productive = tracker.Millis(20 * time.Minute)
	})
	clk := &fakeClock{now: t0}
	e, n := startEngine(t, st, clk)
	ctx := context.Background()

	_, err := e.Do(ctx, recomputeTick{})
	require.NoError(t, err)

	pet, err := Call[tracker.PetState](ctx, e, GetStatus{})
	require.NoError(t, err)
	assert.InDelta(t, 92, pet.Health, 1e-9)
	assert.InDelta(t, 77.5, pet.Happiness, 1e-9)

	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.stats)
	assert.Equal(t, 92, n.stats[len(n.stats)-1].Health)
}

func TestEngine_PopupCooldownAndDismiss(t *testing.T) {
	st := openStore(t)
	seedState(t, st, func(s *tracker.State) {
		s.Pet = tracker.PetState{Health: 10, Happiness: 20}
	})
	clk := &fakeClock{now: t0}
	e, n := startEngine(t, st, clk)
	ctx := context.Background()

	_, err := e.Do(ctx, TabActivated{TabID: 7, URL: "https://youtube.com"})
	require.NoError(t, err)

	d, err := Call[tracker.Decision](ctx, e, ForceCheckThresholds{})
	require.NoError(t, err)
	assert.True(t, d.Show)
	require.Equal(t, 1, n.popupCount())
	assert.Equal(t, 7, n.popups[0].tabID)
	assert.Equal(t, 10.0, n.popups[0].pet.Health)

	clk.Advance(5 * time.Minute)
	d, err = Call[tracker.Decision](ctx, e, ForceCheckThresholds{})
	require.NoError(t, err)
	assert.Equal(t, tracker.ReasonCooldown, d.Reason)

	clk.Advance(6 * time.Minute)
	_, err = e.Do(ctx, PopupDismissed{})
	require.NoError(t, err)
	d, err = Call[tracker.Decision](ctx, e, ForceCheckThresholds{})
	require.NoError(t, err)
	assert.Equal(t, tracker.ReasonCooldown, d.Reason, "dismissal restarts the cooldown")

	clk.Advance(11 * time.Minute)
	_, err = e.Do(ctx, thresholdTick{})
	require.NoError(t, err)
	assert.Equal(t, 2, n.popupCount())
}

func TestEngine_UpdatePopupThresholds(t *testing.T) {
	st := openStore(t)
	seedState(t, st, func(s *tracker.State) {
		s.Pet = tracker.PetState{Health: 50, Happiness: 50}
	})
	clk := &fakeClock{now: t0}
	cfg := testConfig()
	n := &recordingNotifier{}
	original := tracker.New(cfg, time.UTC)
	e := New(cfg, st, n, WithClock(clk), WithTracker(original))
	startRunning(t, e)
	ctx := context.Background()

	d, err := Call[tracker.Decision](ctx, e, ForceCheckThresholds{})
	require.NoError(t, err)
	assert.Equal(t, tracker.ReasonHealthy, d.Reason)

	h, cooldown := 60.0, tracker.Millis(time.Minute)
	_, err = e.Do(ctx, UpdatePopupThresholds{Update: tracker.PopupUpdate{HealthThreshold: &h, Cooldown: &cooldown}})
	require.NoError(t, err)

	d, err = Call[tracker.Decision](ctx, e, ForceCheckThresholds{})
	require.NoError(t, err)
	assert.True(t, d.Show)
	assert.Equal(t, 1, n.popupCount())

	clk.Advance(time.Minute)
	d, err = Call[tracker.Decision](ctx, e, ForceCheckThresholds{})
	require.NoError(t, err)
	assert.True(t, d.Show, "shorter cooldown applies")

	assert.Equal(t, cfg.Popup, original.PopupConfig(), "previous tracker is not mutated")
	assert.Equal(t, 25.0, cfg.Popup.HealthThreshold)
}

func TestEngine_UpdatePopupThresholdsRejectsInvalid(t *testing.T) {
	st := openStore(t)
	seedState(t, st, func(s *tracker.State) {
		s.Pet = tracker.PetState{Health: 50, Happiness: 50}
	})
	e, _ := startEngine(t, st, &fakeClock{now: t0})
	ctx := context.Background()

	h := 150.0
	_, err := e.Do(ctx, UpdatePopupThresholds{Update: tracker.PopupUpdate{HealthThreshold: &h}})
	assert.ErrorIs(t, err, tracker.ErrInvalidInput)

	d, err := Call[tracker.Decision](ctx, e, ForceCheckThresholds{})
	require.NoError(t, err)
	assert.Equal(t, tracker.ReasonHealthy, d.Reason)
}

func TestEngine_MuteSuppressesPopup(t *testing.T) {
	st := openStore(t)
	seedState(t, st, func(s *tracker.State) {
		s.Pet = tracker.PetState{Health: 5, Happiness: 5}
	})
	clk := &fakeClock{now: t0}
	e, n := startEngine(t, st, clk)
	ctx := context.Background()

	res, err := Call[MuteResult](ctx, e, MuteNotifications{})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(24*time.Hour).Format(time.RFC3339), res.MutedUntil)

	d, err := Call[tracker.Decision](ctx, e, ForceCheckThresholds{})
	require.NoError(t, err)
	assert.Equal(t, tracker.ReasonMuted, d.Reason)
	assert.Zero(t, n.popupCount())

	snap, err := Call[tracker.StatsSnapshot](ctx, e, GetSnapshot{})
	require.NoError(t, err)
	assert.True(t, snap.Muted)
}

func TestEngine_DeliveryFailuresAreSwallowed(t *testing.T) {
	st := openStore(t)
	seedState(t, st, nil)
	clk := &fakeClock{now: t0}
	e, n := startEngine(t, st, clk)
	n.mu.Lock()
	n.fail = true
	n.mu.Unlock()

	_, err := e.Do(context.Background(), TabActivated{TabID: 1, URL: "https://github.com"})
	assert.NoError(t, err)
}

func TestEngine_FailedSaveDropsEvent(t *testing.T) {
	st := &flakyStore{Store: openStore(t)}
	seedState(t, st, nil)
	clk := &fakeClock{now: t0}
	e, _ := startEngine(t, st, clk)
	ctx := context.Background()

	st.failSet.Store(true)
	_, err := e.Do(ctx, MuteNotifications{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving state")

	st.failSet.Store(false)
	snap, err := Call[tracker.StatsSnapshot](ctx, e, GetSnapshot{})
	require.NoError(t, err)
	assert.False(t, snap.Muted)
}

func TestEngine_FailedLoadReturnsError(t *testing.T) {
	st := &flakyStore{Store: openStore(t)}
	seedState(t, st, nil)
	clk := &fakeClock{now: t0}
	e, _ := startEngine(t, st, clk)

	st.failGet.Store(true)
	_, err := e.Do(context.Background(), GetStatus{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading state")
}

func TestEngine_InvalidSettingsRejected(t *testing.T) {
	st := openStore(t)
	seedState(t, st, nil)
	clk := &fakeClock{now: t0}
	e, _ := startEngine(t, st, clk)
	ctx := context.Background()

	bad := tracker.Millis(25 * time.Hour)
	_, err := e.Do(ctx, UpdateSettings{Update: tracker.SettingsUpdate{ScreenTimeGoal: &bad}})
	require.ErrorIs(t, err, tracker.ErrInvalidInput)

	good := tracker.Millis(2 * time.Hour)
	_, err = e.Do(ctx, UpdateSettings{Update: tracker.SettingsUpdate{ScreenTimeGoal: &good}})
	require.NoError(t, err)

	settings, err := Call[tracker.Settings](ctx, e, GetSettings{})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, settings.ScreenTimeGoal.Duration())
}

func TestEngine_UpdateWebsiteCategories(t *testing.T) {
	st := openStore(t)
	seedState(t, st, nil)
	clk := &fakeClock{now: t0}
	e, n := startEngine(t, st, clk)
	ctx := context.Background()

	_, err := e.Do(ctx, UpdateWebsiteCategories{Lists: tracker.CategoryLists{
		Productive:   []string{"WWW.Example.org "},
		Unproductive: []string{"github.com"},
	}})
	require.NoError(t, err)

	_, err = e.Do(ctx, TabActivated{TabID: 1, URL: "https://github.com"})
	require.NoError(t, err)

	settings, err := Call[tracker.Settings](ctx, e, GetSettings{})
	require.NoError(t, err)
	assert.Equal(t, []string{"example.org"}, settings.WebsiteCategories.Productive)

	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.categories)
	assert.Equal(t, tracker.Unproductive, n.categories[len(n.categories)-1].category)
}

func TestEngine_ForceMidnightReset(t *testing.T) {
	st := openStore(t)
	seedState(t, st, func(s *tracker.State) {
		s.Pet = tracker.PetState{Health: 40, Happiness: 40}
		s.Day("2026-03-09").Unproductive = tracker.Millis(time.Hour)
		s.Day("2026-03-10").Unproductive = tracker.Millis(time.Hour)
	})
	clk := &fakeClock{now: t0}
	e, _ := startEngine(t, st, clk)
	ctx := context.Background()

	_, err := e.Do(ctx, ForceMidnightReset{})
	require.NoError(t, err)

	pet, err := Call[tracker.PetState](ctx, e, GetStatus{})
	require.NoError(t, err)
	assert.Equal(t, tracker.PetState{Health: 100, Happiness: 70}, pet)

	hist, err := Call[[]tracker.DayRecord](ctx, e, GetHistoricalData{})
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "2026-03-09", hist[1].Date)
	assert.Zero(t, hist[0].Unproductive)
}

func TestEngine_HandlesEveryRequest(t *testing.T) {
	st := openStore(t)
	seedState(t, st, nil)
	clk := &fakeClock{now: t0}
	e, _ := startEngine(t, st, clk)

	reqs := []Request{
		GetStatus{}, GetSnapshot{}, GetDailyStats{}, GetHistoricalData{}, GetSettings{},
		UpdateSettings{}, UpdateWebsiteCategories{}, UpdatePopupThresholds{}, MuteNotifications{}, PopupDismissed{},
		ForceCheckThresholds{}, ForceMidnightReset{},
		TabActivated{TabID: 1, URL: "https://a.org"}, NavigationCompleted{TabID: 1, URL: "https://b.org"},
		FocusLost{}, FocusGained{TabID: 1, URL: "https://a.org"}, FocusGained{},
		recomputeTick{}, rolloverTick{}, thresholdTick{}, broadcastTick{},
	}
	for _, req := range reqs {
		_, err := e.Do(context.Background(), req)
		assert.NoError(t, err, "%T", req)
	}
}

func TestEngine_DoAfterStop(t *testing.T) {
	st := openStore(t)
	cfg := testConfig()
	e := New(cfg, st, nil, WithClock(&fakeClock{now: t0}))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)

	_, err := e.Do(context.Background(), GetStatus{})
	assert.ErrorIs(t, err, ErrStopped)

	// Submit after stop is a no-op.
	e.Submit(broadcastTick{})
}

func TestEngine_SubmitIsProcessed(t *testing.T) {
	st := openStore(t)
	seedState(t, st, nil)
	clk := &fakeClock{now: t0}
	e, n := startEngine(t, st, clk)

	e.Submit(broadcastTick{})
	// Do is queued behind the submitted tick.
	_, err := e.Do(context.Background(), GetStatus{})
	require.NoError(t, err)

	n.mu.Lock()
	defer n.mu.Unlock()
	assert.NotEmpty(t, n.stats)
}

func TestCall_WrongType(t *testing.T) {
	st := openStore(t)
	seedState(t, st, nil)
	e, _ := startEngine(t, st, &fakeClock{now: t0})

	_, err := Call[tracker.Settings](context.Background(), e, GetStatus{})
	assert.Error(t, err)
}
