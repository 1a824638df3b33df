package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/internal/parquet"
	"github.com/huangsam/slick/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// recordOutput is the JSON shape of a single stored record.
type recordOutput struct {
	Record     schema.RawSpillRecord        `json:"record"`
	Stats      schema.PrecomputedStatsEntry `json:"stats"`
	ImportedAt time.Time                    `json:"imported_at"`
}

// PrintRecords outputs a page of stored records.
func PrintRecords(page schema.RecordPage, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteRecords(w, page, cfg, duration)
	}, fmt.Sprintf("Wrote %s", cfg.Output))
}

// WriteRecords writes a page of stored records to w.
func WriteRecords(w io.Writer, page schema.RecordPage, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, page)
	case schema.CSVOut:
		return writeRecordsCSV(w, page.Items)
	case schema.ParquetOut:
		return writeParquet(w, parquet.ConvertRecords(page.Items))
	case schema.HTMLOut:
		return unsupportedOutput("records", cfg.Output)
	default:
		if err := writeRecordsTable(w, page, cfg, fmtFloat, duration); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
		return nil
	}
}

// formatCoordinate renders a [lng, lat] pair, or "-" when absent.
func formatCoordinate(c *[2]float64, fmtFloat func(float64) string) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("%s, %s", fmtFloat(c[0]), fmtFloat(c[1]))
}

// pageCount returns the number of pages for total items, at least 1.
func pageCount(total, size int) int {
	if size <= 0 || total == 0 {
		return 1
	}
	return (total + size - 1) / size
}

func writeRecordsTable(w io.Writer, page schema.RecordPage, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Spill", "Area", "Entries", "Coordinates", "Imported"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	idWidth := GetMaxTableIDWidth(cfg, 5)
	offset := 0
	if page.Page > 1 {
		offset = (page.Page - 1) * page.Size
	}
	var data [][]string
	for i, item := range page.Items {
		data = append(data, []string{
			strconv.Itoa(offset + i + 1),
			contract.TruncateID(item.ID, idWidth),
			fmtFloat(item.Area),
			strconv.Itoa(item.Entries),
			formatCoordinate(item.Coordinate, fmtFloat),
			item.ImportedAt.Format(time.DateTime),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Page %d of %d (%d records) in %v. Store backend: %s\n",
		max(page.Page, 1), pageCount(page.Total, page.Size), page.Total, duration, cfg.StoreBackend)
	return err
}

func writeRecordsCSV(w io.Writer, items []schema.RecordSummary) error {
	header := []string{"id", "area", "longitude", "latitude", "entries", "imported_at"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, item := range items {
			lng, lat := "", ""
			if item.Coordinate != nil {
				lng = strconv.FormatFloat(item.Coordinate[0], 'f', -1, 64)
				lat = strconv.FormatFloat(item.Coordinate[1], 'f', -1, 64)
			}
			row := []string{
				item.ID,
				strconv.FormatFloat(item.Area, 'f', -1, 64),
				lng,
				lat,
				strconv.Itoa(item.Entries),
				item.ImportedAt.UTC().Format(time.RFC3339),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// PrintRecord outputs a single stored record with its precomputed stats.
func PrintRecord(stored schema.StoredRecord, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteRecord(w, stored, cfg)
	}, fmt.Sprintf("Wrote %s", cfg.Output))
}

// WriteRecord writes a single stored record to w.
func WriteRecord(w io.Writer, stored schema.StoredRecord, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, recordOutput{Record: stored.Record, Stats: stored.Stats, ImportedAt: stored.ImportedAt})
	case schema.CSVOut:
		return writeEntryStatsCSV(w, []schema.PrecomputedStatsEntry{stored.Stats})
	case schema.ParquetOut:
		return writeParquet(w, parquet.ConvertStats([]schema.PrecomputedStatsEntry{stored.Stats}))
	case schema.HTMLOut:
		return unsupportedOutput("record", cfg.Output)
	default:
		return writeRecordTable(w, stored, fmtFloat)
	}
}

func writeRecordTable(w io.Writer, stored schema.StoredRecord, fmtFloat func(float64) string) error {
	rec := stored.Record
	if _, err := fmt.Fprintf(w, "Spill: %s\nArea: %s km²\nCoordinates: %s\nTimestamps: %d\nImported: %s\n",
		rec.ID, fmtFloat(rec.Area), formatCoordinate(rec.Coordinates, fmtFloat), len(rec.Data),
		stored.ImportedAt.Format(time.DateTime)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Min", "Max", "Average"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, f := range schema.SimpleStatFields {
		v := fmtFloat(stored.Stats.SimpleValue(f))
		data = append(data, []string{string(f), v, v, v})
	}
	for _, f := range schema.NestedStatFields {
		v := stored.Stats.NestedValue(f)
		data = append(data, []string{string(f), fmtFloat(v.Min), fmtFloat(v.Max), fmtFloat(v.Average)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeEntryStatsCSV writes one row per spill with its flattened stats.
func writeEntryStatsCSV(w io.Writer, entries []schema.PrecomputedStatsEntry) error {
	header := []string{"id", "area", "duration", "frequency", "points", "density_min", "density_max", "density_avg",
		"perimeter_avg", "compaction_avg", "dispersion_radius_avg", "dispersion_distance_avg", "bearing_avg"}
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range parquet.ConvertStats(entries) {
			row := []string{
				s.ID,
				format(s.Area),
				format(s.Duration),
				format(s.Frequency),
				format(s.Points),
				format(s.DensityMin),
				format(s.DensityMax),
				format(s.DensityAvg),
				format(s.PerimeterAvg),
				format(s.CompactionAvg),
				format(s.DispersionRadiusAvg),
				format(s.DispersionDistanceAvg),
				format(s.BearingAvg),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// PrintImport outputs the stats computed while importing records.
func PrintImport(stats []schema.PrecomputedStatsEntry, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteImport(w, stats, cfg, duration)
	}, fmt.Sprintf("Wrote %s", cfg.Output))
}

// WriteImport writes the stats of imported records to w.
func WriteImport(w io.Writer, stats []schema.PrecomputedStatsEntry, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, stats)
	case schema.CSVOut:
		return writeEntryStatsCSV(w, stats)
	case schema.ParquetOut:
		return writeParquet(w, parquet.ConvertStats(stats))
	case schema.HTMLOut:
		return unsupportedOutput("import", cfg.Output)
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Spill", "Area", "Duration", "Frequency", "Points"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	idWidth := GetMaxTableIDWidth(cfg, 4)
	var data [][]string
	for _, s := range stats {
		data = append(data, []string{
			contract.TruncateID(s.ID, idWidth),
			fmtFloat(s.Area),
			fmtFloat(s.Duration),
			fmt.Sprintf(intFmt, int(s.Frequency)),
			fmt.Sprintf(intFmt, int(s.Points)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Imported %d spills in %v. Store backend: %s\n", len(stats), duration, cfg.StoreBackend)
	return err
}
