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
	"github.com/huangsam/slick/internal/parquet"
	"github.com/huangsam/slick/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// statsOutput is the JSON shape of a stats run.
type statsOutput struct {
	Stats  schema.FormattedStats          `json:"stats"`
	RankBy schema.StatField               `json:"rank_by"`
	Top    []schema.PrecomputedStatsEntry `json:"top"`
}

// PrintStats outputs aggregated stats, dispatching based on the output format configured.
func PrintStats(stats schema.FormattedStats, ranked []schema.PrecomputedStatsEntry, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteStats(w, stats, ranked, cfg, duration)
	}, fmt.Sprintf("Wrote %s", cfg.Output))
}

// WriteStats writes aggregated stats and the ranked entries to w.
func WriteStats(w io.Writer, stats schema.FormattedStats, ranked []schema.PrecomputedStatsEntry, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, statsOutput{Stats: stats, RankBy: cfg.RankBy, Top: ranked})
	case schema.CSVOut:
		return writeStatsCSV(w, stats, fmtFloat)
	case schema.ParquetOut:
		return writeParquet(w, parquet.ConvertStats(ranked))
	case schema.HTMLOut:
		return writeStatsHTML(w, stats, ranked, cfg.RankBy)
	default:
		if err := writeStatsTable(w, stats, ranked, cfg, fmtFloat, intFmt, duration); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
		return nil
	}
}

// statRows flattens the formatted stats into field rows, simple fields first.
func statRows(stats schema.FormattedStats, fmtFloat func(float64) string) [][]string {
	var rows [][]string
	for _, f := range schema.SimpleStatFields {
		v := stats.Simple(f)
		rows = append(rows, []string{string(f), fmtFloat(v.Min), fmtFloat(v.Max), fmtFloat(v.Average), "", ""})
	}
	for _, f := range schema.NestedStatFields {
		v := stats.Nested(f)
		rows = append(rows, []string{string(f), fmtFloat(v.Min), fmtFloat(v.Max), fmtFloat(v.Average), fmtFloat(v.MinAbs), fmtFloat(v.MaxAbs)})
	}
	return rows
}

func writeStatsTable(w io.Writer, stats schema.FormattedStats, ranked []schema.PrecomputedStatsEntry, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	summary := tablewriter.NewWriter(w)
	summary.Header([]string{"Field", "Min", "Max", "Average", "Min Abs", "Max Abs"})
	summary.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := summary.Bulk(statRows(stats, fmtFloat)); err != nil {
		return err
	}
	if err := summary.Render(); err != nil {
		return err
	}

	if len(ranked) > 0 {
		top := tablewriter.NewWriter(w)
		top.Header([]string{"Rank", "Spill", string(cfg.RankBy), "Label", "Area", "Duration", "Points"})
		top.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})

		highest := algo.SortValue(ranked[0], cfg.RankBy)
		idWidth := GetMaxTableIDWidth(cfg, 6)
		var data [][]string
		for i, e := range ranked {
			value := algo.SortValue(e, cfg.RankBy)
			percent := contract.RelativePercent(value, highest)
			label := contract.GetPlainLabel(percent)
			if cfg.UseColors {
				label = contract.GetColorLabel(percent)
			}
			data = append(data, []string{
				strconv.Itoa(i + 1),
				contract.TruncateID(e.ID, idWidth),
				fmtFloat(value),
				label,
				fmtFloat(e.Area),
				fmtFloat(e.Duration),
				fmt.Sprintf(intFmt, int(e.Points)),
			})
		}
		if err := top.Bulk(data); err != nil {
			return err
		}
		if err := top.Render(); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Aggregated %d spills, top %d by %s, in %v\n", stats.Count, len(ranked), cfg.RankBy, duration)
	return err
}

// writeStatsCSV writes the aggregated summary, one row per field.
func writeStatsCSV(w io.Writer, stats schema.FormattedStats, fmtFloat func(float64) string) error {
	header := []string{"field", "min", "max", "average", "min_abs", "max_abs"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, row := range statRows(stats, fmtFloat) {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writeStatsHTML renders the ranked entries as a bar chart.
func writeStatsHTML(w io.Writer, stats schema.FormattedStats, ranked []schema.PrecomputedStatsEntry, field schema.StatField) error {
	ids := make([]string, len(ranked))
	values := make([]opts.BarData, len(ranked))
	for i, e := range ranked {
		ids[i] = e.ID
		values[i] = opts.BarData{Value: algo.SortValue(e, field)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Spill Stats", Width: "100%", Height: "640px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Top spills by %s", field), Subtitle: fmt.Sprintf("spills=%d", stats.Count)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(ids).AddSeries(string(field), values,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return writeChartPage(w, bar)
}
