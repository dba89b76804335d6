package domain

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// TabSnapshot is a point-in-time view of a browser tab.
type TabSnapshot struct {
	ID       int    `json:"id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	WindowID int    `json:"window_id"`
}

// FocusTarget is one user-selected focus destination. ID is soft: the tab it
// names may no longer exist.
type FocusTarget struct {
	ID    *int   `json:"id,omitempty" yaml:"id,omitempty"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
	Title string `json:"title" yaml:"title"`
}

// FocusSet is read by the engine and replaced wholesale on edit.
type FocusSet []FocusTarget

func TargetFromTab(tab TabSnapshot) FocusTarget {
	id := tab.ID
	return FocusTarget{ID: &id, URL: tab.URL, Title: tab.Title}
}

// Matches reports whether tab belongs to set, by tab identity or by equal
// URL hostnames. A URL that does not parse never matches but identity still can.
func Matches(tab TabSnapshot, set FocusSet) bool {
	tabHost, tabOK := Hostname(tab.URL)
	for _, target := range set {
		if target.ID != nil && *target.ID == tab.ID {
			return true
		}
		if !tabOK {
			continue
		}
		if host, ok := Hostname(target.URL); ok && host == tabHost {
			return true
		}
	}
	return false
}

// KeyFor returns the tracking key of tab: its hostname, or tab_<id> when the
// URL is missing, malformed or has no host.
func KeyFor(tab TabSnapshot) string {
	if host, ok := Hostname(tab.URL); ok {
		return host
	}
	return fmt.Sprintf("tab_%d", tab.ID)
}

// Hostname parses raw as an absolute URL and returns its lowercased host
// without port. ok is false for relative, malformed or host-less URLs.
func Hostname(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	return host, true
}

// WindowGroup is the set of open tabs of one browser window.
type WindowGroup struct {
	WindowID int
	Tabs     []TabSnapshot
}

// GroupByWindow groups tabs by window, windows ascending, tab order preserved.
func GroupByWindow(tabs []TabSnapshot) []WindowGroup {
	index := map[int]int{}
	groups := []WindowGroup{}
	for _, tab := range tabs {
		i, ok := index[tab.WindowID]
		if !ok {
			i = len(groups)
			index[tab.WindowID] = i
			groups = append(groups, WindowGroup{WindowID: tab.WindowID})
		}
		groups[i].Tabs = append(groups[i].Tabs, tab)
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].WindowID < groups[b].WindowID })
	return groups
}
