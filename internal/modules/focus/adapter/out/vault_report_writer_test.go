package out_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	focusout "tabfocus/internal/modules/focus/adapter/out"
	"tabfocus/internal/modules/focus/domain"
	"tabfocus/internal/platform/clock"
	"tabfocus/internal/platform/markdown"
)

func TestVaultReportWriterKeepsUserText(t *testing.T) {
	vault := t.TempDir()
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	writer := focusout.NewVaultReportWriter(clock.Func(func() time.Time { return now }))
	stats := domain.NewStats(map[string]domain.TrackingRecord{
		"docs.example.com": {Key: "docs.example.com", Title: "Docs", TotalSeconds: 3725, LastVisit: now},
		"x.com":            {Key: "x.com", Title: "A very long page title here", TotalSeconds: 5, LastVisit: now},
	})

	path, err := writer.Write(context.Background(), vault, stats)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(vault, "focus", "focus-stats.md"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := markdown.Parse(string(raw))
	require.NoError(t, err)
	assert.Equal(t, "focus-stats", doc.Meta["type"])
	assert.Equal(t, 3730, doc.Meta["total_seconds"])
	assert.Contains(t, doc.Body, "| Docs | docs.example.com | 1h 2m 5s |")
	assert.Contains(t, doc.Body, "| x.com | x.com | 5s |")
	assert.Contains(t, doc.Body, "**1h 2m 10s**")

	edited := strings.Replace(string(raw), "# Focus statistics\n", "# Focus statistics\n\nMy notes.\n", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	_, err = writer.Write(context.Background(), vault, domain.NewStats(nil))
	require.NoError(t, err)
	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "My notes.")
	assert.NotContains(t, string(raw), "docs.example.com")
	assert.Equal(t, 1, strings.Count(string(raw), "<!-- tabfocus:stats:start -->"))
}
