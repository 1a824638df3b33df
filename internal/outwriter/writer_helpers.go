package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/internal/parquet"
	"github.com/huangsam/slick/schema"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// writeParquet writes rows as a single Parquet file. Binary output to a
// terminal is refused, so an output file is required.
func writeParquet[T any](w io.Writer, rows []T) error {
	if f, ok := w.(*os.File); ok && f == os.Stdout {
		return fmt.Errorf("parquet output requires --output-file")
	}
	if err := parquet.Write(w, rows); err != nil {
		return fmt.Errorf("failed to write parquet: %w", err)
	}
	return nil
}

// writeChartPage renders one or more charts as a standalone HTML page.
func writeChartPage(w io.Writer, charts ...components.Charter) error {
	page := components.NewPage()
	page.PageTitle = "slick"
	page.AddCharts(charts...)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return nil
}

// createFormatters creates the common formatter closures used across multiple output types.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	numFmt := "%.*f"
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf(numFmt, precision, v)
	}
	return fmtFloat, intFmt
}

// unsupportedOutput reports a format that a listing cannot be written in.
func unsupportedOutput(kind string, mode schema.OutputMode) error {
	return fmt.Errorf("%s output does not support %s format", kind, mode)
}
