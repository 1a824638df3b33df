package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Density label constants, relative to the densest bucket of a listing.
const (
	HeavyValue    = "Heavy"    // Heavy value
	ThickValue    = "Thick"    // Thick value
	ModerateValue = "Moderate" // Moderate value
	SheenValue    = "Sheen"    // Sheen value
)

// Color variables for console output.
var (
	HeavyColor    = color.New(color.FgRed, color.Bold)     // heavyColor represents the densest oil.
	ThickColor    = color.New(color.FgMagenta, color.Bold) // thickColor represents strong, distinct coverage.
	ModerateColor = color.New(color.FgYellow)              // moderateColor represents standard coverage, not bold.
	SheenColor    = color.New(color.FgCyan)                // sheenColor represents thin surface sheen.
)

// GetPlainLabel returns a plain text label for a density relative to the
// maximum density in view, expressed as a percentage. This is the core
// logic used for CSV, JSON, and table printing.
func GetPlainLabel(percent float64) string {
	switch {
	case percent >= 80:
		return HeavyValue
	case percent >= 60:
		return ThickValue
	case percent >= 40:
		return ModerateValue
	default:
		return SheenValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(percent float64) string {
	text := GetPlainLabel(percent)

	switch text {
	case HeavyValue:
		return HeavyColor.Sprint(text)
	case ThickValue:
		return ThickColor.Sprint(text)
	case ModerateValue:
		return ModerateColor.Sprint(text)
	default: // "Sheen"
		return SheenColor.Sprint(text)
	}
}

// RelativePercent returns value as a percentage of maxValue, or 0 when maxValue is not positive.
func RelativePercent(value, maxValue float64) float64 {
	if maxValue <= 0 {
		return 0
	}
	return value / maxValue * 100
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".slick_cache.db"
	}
	return filepath.Join(homeDir, ".slick_cache.db")
}

// GetStoreDBFilePath returns the path to the SQLite DB file for record storage.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".slick_store.db"
	}
	return filepath.Join(homeDir, ".slick_store.db")
}

// TruncateID truncates an identifier to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at least one character of content.
func TruncateID(id string, maxWidth int) string {
	runes := []rune(id)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return id
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
