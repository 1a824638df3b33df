// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteGroups prints a grouped document using the configured output format.
func (ow *OutWriter) WriteGroups(doc schema.GroupsDocument, cfg *contract.Config, duration time.Duration) error {
	return PrintGroups(doc, cfg, duration)
}

// WriteStats prints aggregated stats and the ranked entries behind them.
func (ow *OutWriter) WriteStats(stats schema.FormattedStats, ranked []schema.PrecomputedStatsEntry, cfg *contract.Config, duration time.Duration) error {
	return PrintStats(stats, ranked, cfg, duration)
}

// WriteOutlines prints density outlines using the configured output format.
func (ow *OutWriter) WriteOutlines(outlines []schema.Outline, cfg *contract.Config, duration time.Duration) error {
	return PrintOutlines(outlines, cfg, duration)
}

// WriteRecords prints one page of stored records.
func (ow *OutWriter) WriteRecords(page schema.RecordPage, cfg *contract.Config, duration time.Duration) error {
	return PrintRecords(page, cfg, duration)
}

// WriteRecord prints a single stored record.
func (ow *OutWriter) WriteRecord(stored schema.StoredRecord, cfg *contract.Config) error {
	return PrintRecord(stored, cfg)
}

// WriteImport prints the stats computed for freshly imported records.
func (ow *OutWriter) WriteImport(stats []schema.PrecomputedStatsEntry, cfg *contract.Config, duration time.Duration) error {
	return PrintImport(stats, cfg, duration)
}

// LogGroupsHeader prints a short header before a groups run.
func LogGroupsHeader(cfg *contract.Config, records int) {
	source := cfg.InputPath
	if source == "" {
		source = fmt.Sprintf("store (%s)", cfg.StoreBackend)
	}
	if cfg.UseEmojis {
		fmt.Fprintf(os.Stderr, "🛢️  Source: %s (%d spills)\n", source, records)
		fmt.Fprintf(os.Stderr, "🔍 Detail: %s (max %d points per bucket)\n", cfg.Detail, schema.DetailCeilings[cfg.Detail])
		return
	}
	fmt.Fprintf(os.Stderr, "Source: %s (%d spills)\n", source, records)
	fmt.Fprintf(os.Stderr, "Detail: %s (max %d points per bucket)\n", cfg.Detail, schema.DetailCeilings[cfg.Detail])
}

// GetMaxTableIDWidth calculates the maximum width for spill ids in table output
// based on terminal width and the number of other columns.
func GetMaxTableIDWidth(cfg *contract.Config, fixedColumns int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Each fixed column takes roughly 12 characters with borders and padding
	baseWidth := fixedColumns*12 + 10

	available := termWidth - baseWidth
	if available < 12 {
		return 12
	}
	if available > 48 {
		return 48
	}
	return available
}
