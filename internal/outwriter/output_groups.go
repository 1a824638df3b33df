package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/internal/parquet"
	"github.com/huangsam/slick/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintGroups outputs a grouped document, dispatching based on the output format configured.
func PrintGroups(doc schema.GroupsDocument, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteGroups(w, doc, cfg, duration)
	}, fmt.Sprintf("Wrote %s", cfg.Output))
}

// WriteGroups writes a grouped document to w in the configured format.
func WriteGroups(w io.Writer, doc schema.GroupsDocument, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, doc)
	case schema.CSVOut:
		return writeGroupsCSV(w, doc.Entries, fmtFloat)
	case schema.ParquetOut:
		return writeParquet(w, parquet.ConvertGroups(doc.Entries))
	case schema.HTMLOut:
		return writeGroupsHTML(w, doc)
	default:
		if err := writeGroupsTable(w, doc, cfg, fmtFloat, duration); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
		return nil
	}
}

// maxDensity returns the largest density key across all buckets.
func maxDensity(entries schema.GroupedEntries) float64 {
	var highest float64
	for _, groups := range entries {
		for _, g := range groups {
			for key := range g.Densities {
				if v, err := strconv.ParseFloat(key, 64); err == nil && v > highest {
					highest = v
				}
			}
		}
	}
	return highest
}

// densityLabel labels a density key relative to the densest bucket in view.
func densityLabel(key string, highest float64, colored bool) string {
	v, err := strconv.ParseFloat(key, 64)
	if err != nil {
		return "-"
	}
	percent := contract.RelativePercent(v, highest)
	if colored {
		return contract.GetColorLabel(percent)
	}
	return contract.GetPlainLabel(percent)
}

// writeGroupsTable prints one row per density bucket and marker group.
func writeGroupsTable(w io.Writer, doc schema.GroupsDocument, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	headers := []string{"Timestamp", "Spill", "Density", "Label", "Color", "Points"}
	if cfg.WithSun {
		headers = append(headers, "Sun Lat", "Sun Lng")
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	highest := maxDensity(doc.Entries)
	idWidth := GetMaxTableIDWidth(cfg, len(headers)-1)

	var data [][]string
	totalPoints, totalMarkers := 0, 0
	for _, ts := range doc.Timestamps {
		sun := func() []string {
			if !cfg.WithSun {
				return nil
			}
			pos, ok := doc.Sun[ts]
			if !ok {
				return []string{"-", "-"}
			}
			return []string{fmtFloat(pos.Latitude), fmtFloat(pos.Longitude)}
		}
		for _, g := range doc.Entries[ts] {
			id := contract.TruncateID(g.ID, idWidth)
			for _, key := range g.DensityKeys() {
				bucket := g.Densities[key]
				row := []string{ts, id, key, densityLabel(key, highest, cfg.UseColors), bucket.Color, strconv.Itoa(len(bucket.Points))}
				data = append(data, append(row, sun()...))
				totalPoints += len(bucket.Points)
			}
			if len(g.Markers) > 0 {
				row := []string{ts, id, "-", "Markers", "-", strconv.Itoa(len(g.Markers))}
				data = append(data, append(row, sun()...))
				totalMarkers += len(g.Markers)
			}
		}
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing %d timestamps (points: %d, markers: %d, detail: %s)\n",
		len(doc.Timestamps), totalPoints, totalMarkers, doc.Detail); err != nil {
		return err
	}
	for _, d := range doc.Diagnostics {
		if _, err := fmt.Fprintf(w, "Note: %s\n", d); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Built in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend)
	return err
}

// writeGroupsCSV writes one row per reduced point.
func writeGroupsCSV(w io.Writer, entries schema.GroupedEntries, fmtFloat func(float64) string) error {
	header := []string{"timestamp", "spill_id", "density_key", "kind", "color", "latitude", "longitude", "density"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range parquet.ConvertGroups(entries) {
			row := []string{
				p.Timestamp,
				p.SpillID,
				p.DensityKey,
				p.Kind,
				p.Color,
				strconv.FormatFloat(p.Latitude, 'f', -1, 64),
				strconv.FormatFloat(p.Longitude, 'f', -1, 64),
				fmtFloat(p.Density),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeGroupsHTML plots every reduced point, one series per timestamp.
func writeGroupsHTML(w io.Writer, doc schema.GroupsDocument) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Spill Groups", Width: "1000px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{Title: "Spill Groups", Subtitle: fmt.Sprintf("detail=%s timestamps=%d", doc.Detail, len(doc.Timestamps))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", NameLocation: "middle", NameGap: 30}),
	)

	for _, ts := range doc.Timestamps {
		var data []opts.ScatterData
		for _, g := range doc.Entries[ts] {
			for _, key := range g.DensityKeys() {
				for _, p := range g.Densities[key].Points {
					data = append(data, opts.ScatterData{Value: []any{p.Longitude, p.Latitude, p.Density}})
				}
			}
		}
		scatter.AddSeries(ts, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	}
	return writeChartPage(w, scatter)
}
