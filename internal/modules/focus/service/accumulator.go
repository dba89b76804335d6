package service

import (
	"strings"

	"tabfocus/internal/modules/focus/domain"
	"tabfocus/internal/platform/clock"
)

// TimeAccumulator owns the per-key tracking records. It is not safe for
// concurrent use; the router serializes access.
type TimeAccumulator struct {
	clock   clock.Clock
	records map[string]domain.TrackingRecord
}

func NewTimeAccumulator(clk clock.Clock) *TimeAccumulator {
	return &TimeAccumulator{clock: clk, records: map[string]domain.TrackingRecord{}}
}

// RecordVisit creates the record for key on first visit, titled title (or the
// key when title is blank), and refreshes LastVisit on later visits.
func (a *TimeAccumulator) RecordVisit(key, title string) domain.TrackingRecord {
	now := a.clock.Now()
	record, ok := a.records[key]
	if !ok {
		if strings.TrimSpace(title) == "" {
			title = key
		}
		record = domain.TrackingRecord{Key: key, Title: title}
	}
	record.LastVisit = now
	a.records[key] = record
	return record
}

// AddElapsed credits seconds to key. Unknown keys and non-positive amounts are ignored.
func (a *TimeAccumulator) AddElapsed(key string, seconds int64) bool {
	if seconds <= 0 {
		return false
	}
	record, ok := a.records[key]
	if !ok {
		return false
	}
	record.TotalSeconds += seconds
	a.records[key] = record
	return true
}

func (a *TimeAccumulator) Snapshot() map[string]domain.TrackingRecord {
	out := make(map[string]domain.TrackingRecord, len(a.records))
	for k, v := range a.records {
		out[k] = v
	}
	return out
}

func (a *TimeAccumulator) ResetAll() {
	a.records = map[string]domain.TrackingRecord{}
}

// Replace swaps in records loaded from storage. Negative totals are clamped to zero.
func (a *TimeAccumulator) Replace(records map[string]domain.TrackingRecord) {
	a.records = make(map[string]domain.TrackingRecord, len(records))
	for k, v := range records {
		if v.TotalSeconds < 0 {
			v.TotalSeconds = 0
		}
		if v.Key == "" {
			v.Key = k
		}
		a.records[k] = v
	}
}

func (a *TimeAccumulator) Len() int {
	return len(a.records)
}
