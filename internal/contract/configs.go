package contract

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/huangsam/slick/schema"
)

// Default values for configuration.
const (
	DefaultPrecision     = 2
	DefaultResultLimit   = 25
	MaxResultLimit       = 1000
	DefaultPage          = 1
	DefaultPageSize      = 20
	MaxPageSize          = 500
	DefaultClusterScale  = 4e-4
	DefaultMaxIterations = 100
	DefaultEpsilon       = 1e-9
	DefaultListen        = "127.0.0.1:8080"
)

// Tie-break names accepted by --tie-break.
const (
	TieBreakFirst = "first"
	TieBreakLast  = "last"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for the pipeline.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath  string
	Detail     schema.DetailLevel
	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	Limit      int
	WithSun    bool

	ClusterScale  float64
	MaxIterations int
	Epsilon       float64
	TieBreak      string
	DropEmpty     bool

	SpillID   string
	Timestamp string
	Density   string
	RankBy    schema.StatField

	Query schema.RecordQuery

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	Listen string

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Detail         string `mapstructure:"detail"`
	Workers        int    `mapstructure:"workers"`
	Precision      int    `mapstructure:"precision"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Width          int    `mapstructure:"width"`
	Limit          int    `mapstructure:"limit"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	Emoji          string `mapstructure:"emoji"`
	Color          string `mapstructure:"color"`

	// --- Clustering, from rootCmd.PersistentFlags() or the config file ---
	ClusterScale  float64 `mapstructure:"cluster-scale"`
	MaxIterations int     `mapstructure:"max-iterations"`
	Epsilon       float64 `mapstructure:"epsilon"`
	TieBreak      string  `mapstructure:"tie-break"`
	DropEmpty     bool    `mapstructure:"drop-empty"`

	// --- Fields from groupsCmd / outlineCmd flags ---
	ID        string `mapstructure:"id"`
	Timestamp string `mapstructure:"timestamp"`
	Density   string `mapstructure:"density"`
	Sun       bool   `mapstructure:"sun"`

	// --- Fields from statsCmd flags ---
	RankBy string `mapstructure:"rank-by"`

	// --- Query fields from recordsCmd.PersistentFlags() ---
	Page       int    `mapstructure:"page"`
	Size       int    `mapstructure:"size"`
	IDContains string `mapstructure:"id-contains"`
	MinArea    string `mapstructure:"min-area"`
	MaxArea    string `mapstructure:"max-area"`
	Sort       string `mapstructure:"sort"`
	Order      string `mapstructure:"order"`

	// --- Fields from serveCmd.Flags() ---
	Listen string `mapstructure:"listen"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Query.MinArea != nil {
		v := *c.Query.MinArea
		clone.Query.MinArea = &v
	}
	if c.Query.MaxArea != nil {
		v := *c.Query.MaxArea
		clone.Query.MaxArea = &v
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processClustering(cfg, input); err != nil {
		return err
	}
	if err := processQuery(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and record store backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache-db-connect: %w", err)
	}

	// --- Record Store Backend Validation ---
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("store-db-connect: %w", err)
	}

	// Validate that cache and store use different SQLite files
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.StoreBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		storeDBPath := cfg.StoreDBConnect
		if storeDBPath == "" {
			storeDBPath = GetStoreDBFilePath()
		}
		if cacheDBPath == storeDBPath && cacheDBPath != ":memory:" {
			return fmt.Errorf("cache and record storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.InputPath = strings.TrimSpace(input.InputPathStr)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.SpillID = strings.TrimSpace(input.ID)
	cfg.Timestamp = strings.TrimSpace(input.Timestamp)
	cfg.Density = strings.TrimSpace(input.Density)
	cfg.WithSun = input.Sun
	cfg.Listen = input.Listen
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Detail Validation ---
	cfg.Detail = schema.DetailLevel(strings.ToLower(strings.TrimSpace(input.Detail)))
	if cfg.Detail == "" {
		cfg.Detail = schema.DetailMedium
	}
	if _, ok := schema.DetailCeilings[cfg.Detail]; !ok {
		return fmt.Errorf("invalid detail '%s'. must be single, low, medium, high", input.Detail)
	}

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Limit Validation ---
	if input.Limit < 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit cannot be negative or exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.Limit = input.Limit

	// --- 4. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet, html", input.Output)
	}

	// --- 5. Rank field ---
	cfg.RankBy = schema.AreaField
	if input.RankBy != "" {
		cfg.RankBy = schema.StatField(input.RankBy)
		if !isStatField(cfg.RankBy) {
			return fmt.Errorf("invalid rank field '%s'", input.RankBy)
		}
	}
	return nil
}

// processClustering validates the clustering knobs.
func processClustering(cfg *Config, input *ConfigRawInput) error {
	cfg.ClusterScale = input.ClusterScale
	if cfg.ClusterScale == 0 {
		cfg.ClusterScale = DefaultClusterScale
	}
	if cfg.ClusterScale < 0 {
		return fmt.Errorf("cluster-scale must be greater than 0 (received %g)", input.ClusterScale)
	}

	cfg.MaxIterations = input.MaxIterations
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.MaxIterations < 0 {
		return fmt.Errorf("max-iterations must be at least 1 (received %d)", input.MaxIterations)
	}

	if input.Epsilon < 0 {
		return fmt.Errorf("epsilon cannot be negative (received %g)", input.Epsilon)
	}
	cfg.Epsilon = input.Epsilon

	cfg.TieBreak = strings.ToLower(strings.TrimSpace(input.TieBreak))
	switch cfg.TieBreak {
	case "":
		cfg.TieBreak = TieBreakFirst
	case TieBreakFirst, TieBreakLast:
	default:
		return fmt.Errorf("invalid tie-break '%s'. must be first or last", input.TieBreak)
	}
	cfg.DropEmpty = input.DropEmpty
	return nil
}

// processQuery converts the record query flags into a schema.RecordQuery.
func processQuery(cfg *Config, input *ConfigRawInput) error {
	q := schema.RecordQuery{
		Page:       input.Page,
		Size:       input.Size,
		IDContains: strings.TrimSpace(input.IDContains),
		SortBy:     schema.SortField(strings.ToLower(input.Sort)),
		SortDir:    schema.SortDirection(strings.ToLower(input.Order)),
	}
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Page < 0 {
		return fmt.Errorf("page must be at least 1 (received %d)", input.Page)
	}
	if q.Size == 0 {
		q.Size = DefaultPageSize
	}
	if q.Size < 0 || q.Size > MaxPageSize {
		return fmt.Errorf("size must be between 1 and %d (received %d)", MaxPageSize, input.Size)
	}

	if q.SortBy == "" {
		q.SortBy = schema.SortByID
	}
	if _, ok := schema.ValidSortFields[q.SortBy]; !ok {
		return fmt.Errorf("invalid sort field '%s'. must be id, area, imported_at", input.Sort)
	}
	switch q.SortDir {
	case "":
		q.SortDir = schema.SortAsc
	case schema.SortAsc, schema.SortDesc:
	default:
		return fmt.Errorf("invalid order '%s'. must be asc or desc", input.Order)
	}

	var err error
	if q.MinArea, err = ParseOptionalFloat(input.MinArea); err != nil {
		return fmt.Errorf("invalid --min-area: %w", err)
	}
	if q.MaxArea, err = ParseOptionalFloat(input.MaxArea); err != nil {
		return fmt.Errorf("invalid --max-area: %w", err)
	}
	if q.MinArea != nil && q.MaxArea != nil && *q.MinArea > *q.MaxArea {
		return fmt.Errorf("min-area (%g) cannot exceed max-area (%g)", *q.MinArea, *q.MaxArea)
	}

	cfg.Query = q
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// ParseOptionalFloat parses s as a float, returning nil for an empty string.
func ParseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func isStatField(f schema.StatField) bool {
	for _, s := range schema.SimpleStatFields {
		if s == f {
			return true
		}
	}
	for _, s := range schema.NestedStatFields {
		if s == f {
			return true
		}
	}
	return false
}

// RevalidateDetail re-parses a detail level for a request that overrides the base config.
// An empty value keeps the current detail.
func RevalidateDetail(cfg *Config, detail string) error {
	if detail == "" {
		return nil
	}
	level := schema.DetailLevel(strings.ToLower(strings.TrimSpace(detail)))
	if _, ok := schema.DetailCeilings[level]; !ok {
		return fmt.Errorf("invalid detail '%s'. must be single, low, medium, high", detail)
	}
	cfg.Detail = level
	return nil
}

// RevalidateRankBy re-parses the stats ranking field for a request.
// An empty value keeps the current field.
func RevalidateRankBy(cfg *Config, rankBy string) error {
	if rankBy == "" {
		return nil
	}
	if !isStatField(schema.StatField(rankBy)) {
		return fmt.Errorf("invalid rank field '%s'", rankBy)
	}
	cfg.RankBy = schema.StatField(rankBy)
	return nil
}

// RevalidateQuery rebuilds cfg.Query from request parameters.
func RevalidateQuery(cfg *Config, input *ConfigRawInput) error {
	return processQuery(cfg, input)
}
