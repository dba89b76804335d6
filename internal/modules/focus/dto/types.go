package dto

import "time"

type StatusOutput struct {
	FocusModeEnabled bool       `json:"focus_mode_enabled"`
	Phase            string     `json:"phase"`
	AlertTime        int        `json:"alert_time"`
	CurrentTabID     *int       `json:"current_tab_id,omitempty"`
	FocusKey         string     `json:"focus_key,omitempty"`
	FocusSessionID   string     `json:"focus_session_id,omitempty"`
	FocusSince       *time.Time `json:"focus_since,omitempty"`
	OutOfFocusSince  *time.Time `json:"out_of_focus_since,omitempty"`
	CheckTimerActive bool       `json:"check_timer_active"`
	FocusTargets     int        `json:"focus_targets"`
}

type StatRow struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	Title        string    `json:"title"`
	TotalSeconds int64     `json:"total_seconds"`
	Total        string    `json:"total"`
	LastVisit    time.Time `json:"last_visit"`
}

type StatsOutput struct {
	Rows         []StatRow `json:"rows"`
	TotalSeconds int64     `json:"total_seconds"`
	Total        string    `json:"total"`
}

type TabOutput struct {
	ID          int    `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	WindowID    int    `json:"window_id"`
	InFocusList bool   `json:"in_focus_list"`
}

type WindowOutput struct {
	WindowID int         `json:"window_id"`
	Tabs     []TabOutput `json:"tabs"`
}

type FocusTargetOutput struct {
	ID    *int   `json:"id,omitempty"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title"`
}

type ExportOutput struct {
	Path    string `json:"path"`
	Records int    `json:"records"`
}

// TabInput is a tab snapshot reported by the browser extension.
type TabInput struct {
	ID       int    `json:"id"`
	WindowID int    `json:"window_id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
}

// Control socket request bodies. They are exported because net/rpc only
// registers methods whose argument types are.

type Empty struct{}

type FocusModeRequest struct {
	Enabled bool `json:"enabled"`
}

type AlertTimeRequest struct {
	Seconds int `json:"seconds"`
}

type SelectTabsRequest struct {
	TabIDs []int `json:"tab_ids"`
}

type ExportRequest struct {
	VaultPath string `json:"vault_path"`
}
