package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/schema"
	"github.com/klauspost/compress/zstd"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL is how long a cached build stays valid.
const cacheTTL = 7 * 24 * time.Hour

// CacheVersion reports the cache schema version new entries are written with.
func CacheVersion() int {
	return currentCacheVersion
}

// Encoder and decoder are safe for concurrent EncodeAll / DecodeAll calls.
var (
	cacheEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	cacheDecoder, _ = zstd.NewReader(nil)
)

// cachedGroups is the cached part of a groups build.
type cachedGroups struct {
	Entries     schema.GroupedEntries `json:"entries"`
	Diagnostics []string              `json:"diagnostics,omitempty"`
}

// cachedBuildGroups builds groups, reading and writing the groups cache when available.
func cachedBuildGroups(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, records []schema.RawSpillRecord) (schema.GroupedEntries, []string, error) {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetGroupsStore()
	}
	if store == nil {
		// Fallback to direct computation
		return computeGroups(ctx, cfg, records)
	}

	key, err := generateCacheKey(cfg, records)
	if err != nil {
		return computeGroups(ctx, cfg, records)
	}

	// Check for cache hit
	if hit, ok := checkCacheHit(store, key); ok {
		return hit.Entries, hit.Diagnostics, nil
	}

	// Cache miss: compute and store
	entries, diagnostics, err := computeGroups(ctx, cfg, records)
	if err != nil {
		return nil, nil, err
	}
	if data, err := json.Marshal(cachedGroups{Entries: entries, Diagnostics: diagnostics}); err == nil {
		if err := store.Set(key, cacheEncoder.EncodeAll(data, nil), currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to write groups cache", err)
		}
	}
	return entries, diagnostics, nil
}

func computeGroups(ctx context.Context, cfg *contract.Config, records []schema.RawSpillRecord) (schema.GroupedEntries, []string, error) {
	entries, report, err := buildGroups(ctx, cfg, records)
	if err != nil {
		return nil, nil, err
	}
	diagnostics := report.Diagnostics()
	for _, d := range diagnostics {
		if !isQuiet(ctx) {
			contract.LogWarn("Clustering", fmt.Errorf("%s", d))
		}
	}
	return entries, diagnostics, nil
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string) (cachedGroups, bool) {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return cachedGroups{}, false // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return cachedGroups{}, false
	}

	raw, err := cacheDecoder.DecodeAll(data, nil)
	if err != nil {
		return cachedGroups{}, false
	}
	var result cachedGroups
	if err := json.Unmarshal(raw, &result); err != nil {
		return cachedGroups{}, false
	}
	if result.Entries == nil {
		result.Entries = schema.GroupedEntries{}
	}
	return result, true
}

// generateCacheKey hashes the records together with every option that shapes the output.
func generateCacheKey(cfg *contract.Config, records []schema.RawSpillRecord) (string, error) {
	h := sha256.New()
	if err := json.NewEncoder(h).Encode(records); err != nil {
		return "", err
	}
	_, _ = fmt.Fprintf(h, "%s:%g:%d:%g:%s:%t",
		cfg.Detail,
		cfg.ClusterScale,
		cfg.MaxIterations,
		cfg.Epsilon,
		cfg.TieBreak,
		cfg.DropEmpty,
	)
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
