package cmd

import (
	"github.com/huangsam/slick/internal/api"
	"github.com/spf13/cobra"
)

// serveCmd exposes the pipeline over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve groups, stats, outlines and stored records over HTTP",
	Long: `Start a JSON HTTP API backed by the record store.

Routes:
  GET /healthz
  GET /api/spills                  - list stored records (page, size, id_contains, min_area, max_area, sort, order)
  GET /api/spills/:id              - one stored record with its stats
  GET /api/spills/:id/groups       - grouped points (detail, sun)
  GET /api/spills/:id/outline      - GeoJSON outlines (timestamp, density, detail)
  GET /api/stats                   - aggregated stats (rank_by, limit)

Examples:
  slick serve --listen 0.0.0.0:8080`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return api.Serve(rootCtx, cfg, cacheManager)
	},
}
