// Package main provides a performance benchmarking tool for the Slick CLI.
// It generates synthetic spill record files of increasing size, measures
// groups and stats execution times at every detail level, treating the first
// successful cached run as cold and averaging the rest as warm, and writes a
// CSV for performance analysis and documentation.
//
// Prerequisites:
// - slick binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated record files and the benchmark cache
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/slick/schema"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// Dataset describes one synthetic records file.
type Dataset struct {
	Name       string
	Spills     int
	Timestamps int
	Polygons   int // oil polygons per timestamp
	Vertices   int // vertices per polygon
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Datasets    []Dataset
	Details     []schema.DetailLevel
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Datasets: []Dataset{
			{Name: "small", Spills: 5, Timestamps: 4, Polygons: 6, Vertices: 12},
			{Name: "medium", Spills: 25, Timestamps: 12, Polygons: 12, Vertices: 24},
			{Name: "large", Spills: 100, Timestamps: 24, Polygons: 20, Vertices: 48},
		},
		Details: []schema.DetailLevel{schema.DetailLow, schema.DetailHigh},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results, config)
}

// checkPrerequisites verifies that the slick binary exists and the work dir is usable
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("slick"); err != nil {
		return fmt.Errorf("slick binary not found in PATH")
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("cannot create work dir %s: %w", config.WorkDir, err)
	}
	return nil
}

// generateDataset writes a synthetic records file and returns its path.
// Polygons are jittered rings around a per-spill center so clustering has real work to do.
func generateDataset(dir string, ds Dataset) (string, error) {
	rng := rand.New(rand.NewPCG(42, uint64(ds.Spills)))
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	records := make([]schema.RawSpillRecord, 0, ds.Spills)
	for s := range ds.Spills {
		lng, lat := -95+rng.Float64()*20, 20+rng.Float64()*15
		rec := schema.RawSpillRecord{
			ID:          fmt.Sprintf("%s-%03d", ds.Name, s),
			Area:        rng.Float64() * 500,
			Coordinates: &[2]float64{lng, lat},
		}
		for t := range ds.Timestamps {
			entry := schema.TimestampEntry{Timestamp: start.Add(time.Duration(t) * 6 * time.Hour).Format(time.RFC3339)}
			for p := range ds.Polygons {
				density := float64(p%4 + 1)
				ring := make([][2]float64, 0, ds.Vertices+1)
				cx, cy := lng+rng.NormFloat64()*0.2, lat+rng.NormFloat64()*0.2
				for v := range ds.Vertices {
					angle := 2 * math.Pi * float64(v) / float64(ds.Vertices)
					r := 0.02 + rng.Float64()*0.05
					ring = append(ring, [2]float64{cx + r*math.Cos(angle), cy + r*math.Sin(angle)})
				}
				ring = append(ring, ring[0])
				coords, err := json.Marshal([][][2]float64{ring})
				if err != nil {
					return "", err
				}
				entry.Actors = append(entry.Actors, schema.RawActor{
					Type:     schema.ActorOil,
					Density:  density,
					Color:    fmt.Sprintf("#%02x0000", int(density)*60),
					Geometry: &schema.Geometry{Type: schema.PolygonGeometry, Coordinates: coords},
				})
			}
			rec.Data = append(rec.Data, entry)
		}
		records = append(records, rec)
	}

	path := filepath.Join(dir, ds.Name+".json")
	data, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, data, 0o644)
}

// runBenchmarks executes all benchmark tests across configured datasets
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, ds := range config.Datasets {
		path, err := generateDataset(config.WorkDir, ds)
		if err != nil {
			fmt.Printf("Skipping %s: %v\n", ds.Name, err)
			continue
		}
		fmt.Printf("Benchmarking %s (%d spills x %d timestamps)\n", ds.Name, ds.Spills, ds.Timestamps)

		for _, detail := range config.Details {
			command := "groups:" + string(detail)
			result := runBenchmarkSuite(config, ds.Name, command, []string{"groups", path, "--detail", string(detail)})
			results = append(results, result)
		}
		results = append(results, runBenchmarkSuite(config, ds.Name, "stats", []string{"stats", path}))
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, dataset, command string, args []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, dataset)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, args, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs against a fresh cache file
	cacheFile := filepath.Join(config.WorkDir, "benchmark-cache.db")
	_ = os.Remove(cacheFile)
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:     dataset,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a slick command multiple times with the specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, baseArgs []string, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{}, baseArgs...)
	args = append(args,
		"--cache-backend", cacheBackend,
		"--cache-db-connect", cacheConnect(config, cacheBackend),
		"--store-backend", "none",
		"--workers", fmt.Sprint(config.Workers),
	)

	var times []float64
	for range numRuns {
		start := time.Now()

		cmd := exec.Command("slick", args...)
		cmd.Dir = config.WorkDir

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, baseArgs[0]) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
			<-done
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// cacheConnect returns the cache connection string for a backend.
func cacheConnect(config BenchmarkConfig, cacheBackend string) string {
	if cacheBackend == "sqlite" {
		return filepath.Join(config.WorkDir, "benchmark-cache.db")
	}
	return ""
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	outputStr := string(output)
	switch command {
	case "stats":
		return strings.Contains(outputStr, "Aggregated") && strings.Contains(outputStr, "spills")
	default:
		return strings.Contains(outputStr, "Built in") && strings.Contains(outputStr, "workers")
	}
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("slick_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult, config BenchmarkConfig) {
	fmt.Printf("Benchmark complete\n")

	for _, detail := range config.Details {
		printCommandSummary(results, "groups:"+string(detail), fmt.Sprintf("Groups (%s detail):", detail))
	}
	printCommandSummary(results, "stats", "Stats:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-8s: No-cache: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}
