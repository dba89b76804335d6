package domain

import (
	"fmt"
	"sort"
	"time"
)

// displayTitleLimit is the title length above which statistics show the domain.
const displayTitleLimit = 20

// TrackingRecord is the accumulated focus time of one domain key.
type TrackingRecord struct {
	Key          string    `json:"key"`
	TotalSeconds int64     `json:"total_seconds"`
	Title        string    `json:"title"`
	LastVisit    time.Time `json:"last_visit"`
}

// DisplayName is the title, or the key when the title is empty or too long for a table cell.
func (r TrackingRecord) DisplayName() string {
	if r.Title == "" || len([]rune(r.Title)) > displayTitleLimit {
		return r.Key
	}
	return r.Title
}

// FormatDuration renders seconds as "42s", "3m 5s" or "2h 0m 7s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	}
	return fmt.Sprintf("%dh %dm %ds", minutes/60, minutes%60, seconds%60)
}

// Stats is the statistics table: records by total time descending, plus the grand total.
type Stats struct {
	Records      []TrackingRecord
	TotalSeconds int64
}

func NewStats(records map[string]TrackingRecord) Stats {
	out := Stats{Records: make([]TrackingRecord, 0, len(records))}
	for _, r := range records {
		out.Records = append(out.Records, r)
		out.TotalSeconds += r.TotalSeconds
	}
	sort.Slice(out.Records, func(i, j int) bool {
		if out.Records[i].TotalSeconds == out.Records[j].TotalSeconds {
			return out.Records[i].Key < out.Records[j].Key
		}
		return out.Records[i].TotalSeconds > out.Records[j].TotalSeconds
	})
	return out
}
