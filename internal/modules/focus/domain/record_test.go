package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tabfocus/internal/modules/focus/domain"
)

func TestFormatDuration(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "0s", domain.FormatDuration(0))
	assert.Equal(t, "59s", domain.FormatDuration(59))
	assert.Equal(t, "1m 0s", domain.FormatDuration(60))
	assert.Equal(t, "59m 59s", domain.FormatDuration(3599))
	assert.Equal(t, "1h 0m 0s", domain.FormatDuration(3600))
	assert.Equal(t, "2h 3m 4s", domain.FormatDuration(7384))
	assert.Equal(t, "0s", domain.FormatDuration(-3))
}

func TestDisplayName(t *testing.T) {
	t.Parallel()
	short := domain.TrackingRecord{Key: "go.dev", Title: "Go"}
	long := domain.TrackingRecord{Key: "go.dev", Title: "The Go Programming Language"}
	empty := domain.TrackingRecord{Key: "tab_4"}

	assert.Equal(t, "Go", short.DisplayName())
	assert.Equal(t, "go.dev", long.DisplayName())
	assert.Equal(t, "tab_4", empty.DisplayName())
}

func TestNewStatsSortsByTotalDescending(t *testing.T) {
	t.Parallel()
	stats := domain.NewStats(map[string]domain.TrackingRecord{
		"a.example": {Key: "a.example", TotalSeconds: 10},
		"b.example": {Key: "b.example", TotalSeconds: 90},
		"c.example": {Key: "c.example", TotalSeconds: 10},
	})
	assert.Equal(t, int64(110), stats.TotalSeconds)
	keys := []string{}
	for _, r := range stats.Records {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"b.example", "a.example", "c.example"}, keys)
	assert.Empty(t, domain.NewStats(nil).Records)
}
