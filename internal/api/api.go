// Package api serves spill groups, stats, outlines and stored records over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/slick/core"
	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/internal/iocache"
	"github.com/huangsam/slick/internal/outwriter"
)

// shutdownTimeout bounds how long in-flight requests may finish after a stop signal.
const shutdownTimeout = 10 * time.Second

// errBadRequest marks request parameters that failed validation.
var errBadRequest = errors.New("invalid parameters")

// server holds the base configuration every request starts from.
type server struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// NewRouter builds the gin engine for the HTTP API.
func NewRouter(baseCfg *contract.Config, mgr contract.CacheManager) *gin.Engine {
	s := &server{baseCfg: baseCfg, mgr: mgr}

	r := gin.New()
	r.Use(gin.Recovery())

	// Map clients fetch straight from the browser
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/spills", s.listSpills)
		api.GET("/spills/:id", s.getSpill)
		api.GET("/spills/:id/groups", s.getGroups)
		api.GET("/spills/:id/outline", s.getOutline)
		api.GET("/stats", s.getStats)
	}
	return r
}

// Serve runs the HTTP API on cfg.Listen until ctx is done or the process is interrupted.
func Serve(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           NewRouter(cfg, mgr),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		_, _ = fmt.Fprintf(os.Stderr, "Serving on http://%s (store backend: %s)\n", cfg.Listen, cfg.StoreBackend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// respondError maps pipeline errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, iocache.ErrRecordNotFound), errors.Is(err, core.ErrNoRecords):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// queryInt parses an optional integer query parameter.
func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(fmt.Errorf("%s must be an integer", key))
	}
	return v, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(c *gin.Context, key string, fallback bool) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := contract.ParseBoolString(raw)
	if err != nil {
		return false, badRequest(fmt.Errorf("%s: %v", key, err))
	}
	return v, nil
}

func (s *server) listSpills(c *gin.Context) {
	cfg := s.baseCfg.Clone()
	page, err := queryInt(c, "page")
	if err != nil {
		respondError(c, err)
		return
	}
	size, err := queryInt(c, "size")
	if err != nil {
		respondError(c, err)
		return
	}
	input := &contract.ConfigRawInput{
		Page:       page,
		Size:       size,
		IDContains: c.Query("id_contains"),
		MinArea:    c.Query("min_area"),
		MaxArea:    c.Query("max_area"),
		Sort:       c.Query("sort"),
		Order:      c.Query("order"),
	}
	if err := contract.RevalidateQuery(cfg, input); err != nil {
		respondError(c, badRequest(err))
		return
	}

	result, err := core.GetRecordPage(core.WithQuiet(c.Request.Context()), cfg, s.mgr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *server) getSpill(c *gin.Context) {
	cfg := s.baseCfg.Clone()
	cfg.SpillID = c.Param("id")

	stored, err := core.GetStoredRecord(core.WithQuiet(c.Request.Context()), cfg, s.mgr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

func (s *server) getGroups(c *gin.Context) {
	cfg := s.baseCfg.Clone()
	cfg.InputPath = ""
	cfg.SpillID = c.Param("id")
	if err := contract.RevalidateDetail(cfg, c.Query("detail")); err != nil {
		respondError(c, badRequest(err))
		return
	}
	withSun, err := queryBool(c, "sun", cfg.WithSun)
	if err != nil {
		respondError(c, err)
		return
	}
	cfg.WithSun = withSun

	doc, err := core.GetGroupsDocument(core.WithQuiet(c.Request.Context()), cfg, s.mgr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *server) getOutline(c *gin.Context) {
	cfg := s.baseCfg.Clone()
	cfg.InputPath = ""
	cfg.SpillID = c.Param("id")
	cfg.Timestamp = c.Query("timestamp")
	cfg.Density = c.Query("density")
	if err := contract.RevalidateDetail(cfg, c.Query("detail")); err != nil {
		respondError(c, badRequest(err))
		return
	}

	outlines, err := core.GetOutlines(core.WithQuiet(c.Request.Context()), cfg, s.mgr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outwriter.OutlineCollection(outlines))
}

func (s *server) getStats(c *gin.Context) {
	cfg := s.baseCfg.Clone()
	cfg.InputPath = ""
	if err := contract.RevalidateRankBy(cfg, c.Query("rank_by")); err != nil {
		respondError(c, badRequest(err))
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, err)
		return
	}
	if limit < 0 || limit > contract.MaxResultLimit {
		respondError(c, badRequest(fmt.Errorf("limit cannot be negative or exceed %d", contract.MaxResultLimit)))
		return
	}
	if limit > 0 {
		cfg.Limit = limit
	}

	stats, ranked, err := core.GetStatsResults(core.WithQuiet(c.Request.Context()), cfg, s.mgr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":   stats,
		"rank_by": cfg.RankBy,
		"top":     ranked,
	})
}
