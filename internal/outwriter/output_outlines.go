package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/huangsam/slick/core/algo"
	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// PrintOutlines outputs density outlines, dispatching based on the output format configured.
func PrintOutlines(outlines []schema.Outline, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteOutlines(w, outlines, cfg, duration)
	}, fmt.Sprintf("Wrote %s", cfg.Output))
}

// WriteOutlines writes density outlines to w. JSON output is a GeoJSON FeatureCollection.
func WriteOutlines(w io.Writer, outlines []schema.Outline, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, OutlineCollection(outlines))
	case schema.CSVOut:
		return writeOutlinesCSV(w, outlines)
	case schema.HTMLOut:
		return writeOutlinesHTML(w, outlines)
	case schema.ParquetOut:
		return unsupportedOutput("outline", cfg.Output)
	default:
		if err := writeOutlinesTable(w, outlines, cfg, duration); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
		return nil
	}
}

// OutlineCollection wraps outlines as GeoJSON features.
func OutlineCollection(outlines []schema.Outline) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, o := range outlines {
		fc.Append(algo.Feature(o))
	}
	return fc
}

// outlineWKT renders the outline ring as WKT, or EMPTY for degenerate hulls.
func outlineWKT(o schema.Outline) string {
	if len(o.Ring) == 0 {
		return "POLYGON EMPTY"
	}
	ring := make(orb.Ring, len(o.Ring))
	for i, p := range o.Ring {
		ring[i] = orb.Point{p[0], p[1]}
	}
	return wkt.MarshalString(orb.Polygon{ring})
}

func writeOutlinesTable(w io.Writer, outlines []schema.Outline, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Timestamp", "Spill", "Density", "Label", "Color", "Points", "Vertices"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var highest float64
	for _, o := range outlines {
		if v, err := strconv.ParseFloat(o.Density, 64); err == nil && v > highest {
			highest = v
		}
	}

	idWidth := GetMaxTableIDWidth(cfg, 6)
	var data [][]string
	for _, o := range outlines {
		vertices := max(len(o.Ring)-1, 0)
		data = append(data, []string{
			o.Timestamp,
			contract.TruncateID(o.ID, idWidth),
			o.Density,
			densityLabel(o.Density, highest, cfg.UseColors),
			o.Color,
			strconv.Itoa(o.Points),
			strconv.Itoa(vertices),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Computed %d outlines in %v\n", len(outlines), duration)
	return err
}

func writeOutlinesCSV(w io.Writer, outlines []schema.Outline) error {
	header := []string{"id", "timestamp", "density", "color", "points", "wkt"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, o := range outlines {
			row := []string{o.ID, o.Timestamp, o.Density, o.Color, strconv.Itoa(o.Points), outlineWKT(o)}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeOutlinesHTML plots each outline ring as a closed line.
func writeOutlinesHTML(w io.Writer, outlines []schema.Outline) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Spill Outlines", Width: "1000px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{Title: "Spill Outlines", Subtitle: fmt.Sprintf("outlines=%d", len(outlines))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Longitude", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Latitude", NameLocation: "middle", NameGap: 30}),
	)
	for _, o := range outlines {
		data := make([]opts.LineData, len(o.Ring))
		for i, p := range o.Ring {
			data[i] = opts.LineData{Value: []any{p[0], p[1]}}
		}
		line.AddSeries(fmt.Sprintf("%s %s", o.Timestamp, o.Density), data)
	}
	return writeChartPage(w, line)
}
