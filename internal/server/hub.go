package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/coder/websocket"

	"github.com/blackwell-systems/purrwatch/internal/tracker"
)

// PopupFallback shows a popup outside the browser.
type PopupFallback interface {
	Popup(ctx context.Context, pet tracker.PetState) error
}

type view struct {
	conn  *websocket.Conn
	id    int64
	tabID int
}

// Hub tracks connected views and delivers engine notifications to them.
// It implements engine.Notifier.
type Hub struct {
	mu       sync.RWMutex
	views    map[int64]*view
	nextID   int64
	fallback PopupFallback
}

// NewHub returns an empty Hub. A nil fallback drops popups for tabs with no view.
func NewHub(fallback PopupFallback) *Hub {
	return &Hub{
		views:    make(map[int64]*view),
		fallback: fallback,
	}
}

func (h *Hub) add(conn *websocket.Conn, tabID int) *view {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	v := &view{conn: conn, id: h.nextID, tabID: tabID}
	h.views[v.id] = v
	return v
}

func (h *Hub) remove(v *view) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.views, v.id)
}

// Count returns the number of connected views.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.views)
}

// targets returns views for tabID, or every view when all is set.
func (h *Hub) targets(tabID int, all bool) []*view {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*view
	for _, v := range h.views {
		if all || (tabID != 0 && v.tabID == tabID) {
			out = append(out, v)
		}
	}
	return out
}

func (h *Hub) send(ctx context.Context, views []*view, msg any) (int, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}
	delivered := 0
	for _, v := range views {
		if err := v.conn.Write(ctx, websocket.MessageText, data); err != nil {
			log.Printf("[server] write to view %d: %v", v.id, err)
			continue
		}
		delivered++
	}
	return delivered, nil
}

// StatsUpdate broadcasts snap to every view.
func (h *Hub) StatsUpdate(ctx context.Context, snap tracker.StatsSnapshot) error {
	_, err := h.send(ctx, h.targets(0, true), statsUpdate{Type: TypeStatsUpdate, Stats: snap})
	return err
}

// SiteCategoryUpdate tells the views of tabID how domain is classified.
// Tabs with no view are skipped.
func (h *Hub) SiteCategoryUpdate(ctx context.Context, tabID int, domain string, category tracker.Category) error {
	_, err := h.send(ctx, h.targets(tabID, false), siteCategoryUpdate{
		Type:     TypeSiteCategoryUpdate,
		Domain:   domain,
		Category: category,
	})
	return err
}

// ShowPopup asks the views of tabID to show the popup. When no view takes
// it the fallback is tried once.
func (h *Hub) ShowPopup(ctx context.Context, tabID int, pet tracker.PetState) error {
	n, err := h.send(ctx, h.targets(tabID, false), showPopup{
		Type:         TypeShowPopup,
		CatHealth:    pet.Health,
		CatHappiness: pet.Happiness,
	})
	if err != nil {
		return err
	}
	if n > 0 || h.fallback == nil {
		return nil
	}
	return h.fallback.Popup(ctx, pet)
}

// Close disconnects every view.
func (h *Hub) Close() {
	h.mu.Lock()
	views := h.views
	h.views = make(map[int64]*view)
	h.mu.Unlock()

	for _, v := range views {
		v.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}
