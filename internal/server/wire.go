package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/purrwatch/internal/engine"
	"github.com/blackwell-systems/purrwatch/internal/tracker"
)

// ErrUnknownType is returned for wire messages with an unrecognized type.
var ErrUnknownType = errors.New("unknown message type")

// Inbound wire types.
const (
	TypeGetCatStatus            = "GET_CAT_STATUS"
	TypeGetAllStats             = "GET_ALL_STATS"
	TypeRequestStatsBroadcast   = "REQUEST_STATS_BROADCAST"
	TypeGetDailyStats           = "GET_DAILY_STATS"
	TypeGetHistoricalData       = "GET_HISTORICAL_DATA"
	TypeGetSettings             = "GET_SETTINGS"
	TypeUpdateSettings          = "UPDATE_SETTINGS"
	TypeUpdateWebsiteCategories = "UPDATE_WEBSITE_CATEGORIES"
	TypeUpdatePopupThresholds   = "UPDATE_POPUP_THRESHOLDS"
	TypeMuteNotifications       = "MUTE_NOTIFICATIONS"
	TypePopupDismissed          = "POPUP_DISMISSED"
	TypeForceCheckThresholds    = "FORCE_CHECK_THRESHOLDS"
	TypeForceMidnightReset      = "FORCE_MIDNIGHT_RESET"
	TypeTabActivated            = "TAB_ACTIVATED"
	TypeNavigationCompleted     = "NAVIGATION_COMPLETED"
	TypeFocusLost               = "FOCUS_LOST"
	TypeFocusGained             = "FOCUS_GAINED"
)

// Outbound wire types.
const (
	TypeStatsUpdate        = "STATS_UPDATE"
	TypeSiteCategoryUpdate = "SITE_CATEGORY_UPDATE"
	TypeShowPopup          = "SHOW_THRESHOLD_POPUP"
)

// Message is an inbound request from a view, or an event posted to /api/events.
type Message struct {
	Type       string                  `json:"type"`
	RequestID  string                  `json:"requestId,omitempty"`
	TabID      int                     `json:"tabId,omitempty"`
	URL        string                  `json:"url,omitempty"`
	Days       int                     `json:"days,omitempty"`
	Settings   *tracker.SettingsUpdate `json:"settings,omitempty"`
	Categories *tracker.CategoryLists  `json:"categories,omitempty"`
	Thresholds *tracker.PopupUpdate    `json:"thresholds,omitempty"`
}

// Reply answers a Message with the same type and request id.
type Reply struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CatStatus is the GET_CAT_STATUS result.
type CatStatus struct {
	CatHealth    float64 `json:"catHealth"`
	CatHappiness float64 `json:"catHappiness"`
}

type statsUpdate struct {
	Type  string                `json:"type"`
	Stats tracker.StatsSnapshot `json:"stats"`
}

type siteCategoryUpdate struct {
	Type     string           `json:"type"`
	Domain   string           `json:"domain"`
	Category tracker.Category `json:"category"`
}

type showPopup struct {
	Type         string  `json:"type"`
	CatHealth    float64 `json:"catHealth"`
	CatHappiness float64 `json:"catHappiness"`
}

// DecodeRequest maps a wire message to an engine request. Type matching is
// case-insensitive so "tab_activated" and "TAB_ACTIVATED" are the same.
func DecodeRequest(m Message) (engine.Request, error) {
	switch strings.ToUpper(m.Type) {
	case TypeGetCatStatus:
		return engine.GetStatus{}, nil
	case TypeGetAllStats, TypeRequestStatsBroadcast:
		return engine.GetSnapshot{}, nil
	case TypeGetDailyStats:
		return engine.GetDailyStats{}, nil
	case TypeGetHistoricalData:
		return engine.GetHistoricalData{DaysBack: m.Days}, nil
	case TypeGetSettings:
		return engine.GetSettings{}, nil
	case TypeUpdateSettings:
		if m.Settings == nil {
			return nil, fmt.Errorf("%w: %s requires settings", tracker.ErrInvalidInput, m.Type)
		}
		return engine.UpdateSettings{Update: *m.Settings}, nil
	case TypeUpdateWebsiteCategories:
		if m.Categories == nil {
			return nil, fmt.Errorf("%w: %s requires categories", tracker.ErrInvalidInput, m.Type)
		}
		return engine.UpdateWebsiteCategories{Lists: *m.Categories}, nil
	case TypeUpdatePopupThresholds:
		if m.Thresholds == nil {
			return nil, fmt.Errorf("%w: %s requires thresholds", tracker.ErrInvalidInput, m.Type)
		}
		return engine.UpdatePopupThresholds{Update: *m.Thresholds}, nil
	case TypeMuteNotifications:
		return engine.MuteNotifications{}, nil
	case TypePopupDismissed:
		return engine.PopupDismissed{}, nil
	case TypeForceCheckThresholds:
		return engine.ForceCheckThresholds{}, nil
	case TypeForceMidnightReset:
		return engine.ForceMidnightReset{}, nil
	default:
		return DecodeEvent(m)
	}
}

// DecodeEvent maps a browsing event to an engine request. Only the four
// event types are accepted.
func DecodeEvent(m Message) (engine.Request, error) {
	switch strings.ToUpper(m.Type) {
	case TypeTabActivated:
		return engine.TabActivated{TabID: m.TabID, URL: m.URL}, nil
	case TypeNavigationCompleted:
		return engine.NavigationCompleted{TabID: m.TabID, URL: m.URL}, nil
	case TypeFocusLost:
		return engine.FocusLost{}, nil
	case TypeFocusGained:
		return engine.FocusGained{TabID: m.TabID, URL: m.URL}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
}

// wireResult adapts engine results to the shapes views expect.
func wireResult(v any) any {
	if pet, ok := v.(tracker.PetState); ok {
		return CatStatus{CatHealth: pet.Health, CatHappiness: pet.Happiness}
	}
	return v
}
