package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tabfocus/internal/modules/focus/domain"
	"tabfocus/internal/platform/clock"
	"tabfocus/internal/platform/markdown"
)

const reportFile = "focus-stats.md"

var statsBlock = markdown.Block{
	Start: "<!-- tabfocus:stats:start -->",
	End:   "<!-- tabfocus:stats:end -->",
}

// VaultReportWriter renders statistics into a markdown note inside a notes
// vault. Text outside the generated block and unknown frontmatter keys survive
// regeneration.
type VaultReportWriter struct {
	clock clock.Clock
}

func NewVaultReportWriter(clk clock.Clock) *VaultReportWriter {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &VaultReportWriter{clock: clk}
}

func (w *VaultReportWriter) Write(_ context.Context, vaultPath string, stats domain.Stats) (string, error) {
	dir := filepath.Join(vaultPath, "focus")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, reportFile)

	doc := markdown.Document{Meta: map[string]any{}, Body: "# Focus statistics\n"}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		doc, err = markdown.Parse(string(raw))
		if err != nil {
			return "", fmt.Errorf("parse existing report: %w", err)
		}
	case !os.IsNotExist(err):
		return "", fmt.Errorf("read existing report: %w", err)
	}

	doc.Meta["type"] = "focus-stats"
	doc.Meta["updated_at"] = w.clock.Now().UTC().Format(time.RFC3339)
	doc.Meta["total_seconds"] = stats.TotalSeconds
	doc.Meta["domains"] = len(stats.Records)
	doc.Body = statsBlock.Replace(doc.Body, renderStatsTable(stats))

	content, err := doc.Render()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func renderStatsTable(stats domain.Stats) string {
	b := strings.Builder{}
	b.WriteString("| Site | Domain | Time | Last visit |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, r := range stats.Records {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			escapeCell(r.DisplayName()), escapeCell(r.Key),
			domain.FormatDuration(r.TotalSeconds), r.LastVisit.UTC().Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "| **TOTAL** | | **%s** | |", domain.FormatDuration(stats.TotalSeconds))
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
