package handlers

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"predicta/internal/config"
	"predicta/internal/core"
	"predicta/internal/llm"
	"predicta/internal/orchestrator"

	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command for a one-shot intelligence feed
func NewScanCmd() *cobra.Command {
	var (
		interests []string
		regions   []string
		lat       float64
		lng       float64
	)

	cmd := &cobra.Command{
		Use:   "scan [query]",
		Short: "Run a one-shot global intelligence scan and print the reports as JSON",
		Long: `Run a feed-mode intelligence scan.

An explicit query overrides interest-based personalization. Without a query,
--lat/--lng bias the feed toward that location, and --interests/--regions
drive the rest.

Examples:
  predicta scan "oil shock"
  predicta scan --interests Energy,Technology --regions Europe
  predicta scan --lat 48.85 --lng 2.35`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = strings.TrimSpace(args[0])
			}

			var location *core.LocationCoordinates
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
				location = &core.LocationCoordinates{Lat: lat, Lng: lng}
			}

			cfg := config.Get()
			genClient, err := llm.NewClient(cmd.Context(), cfg.AI.Gemini)
			if err != nil {
				return err
			}

			orch := orchestrator.New(genClient,
				orchestrator.WithThinkingBudget(cfg.AI.Gemini.ThinkingBudget))

			prefs := core.UserPreferences{Interests: interests, Regions: regions}
			reports, err := orch.FetchGlobalIntelligence(cmd.Context(), prefs, query, location)
			if err != nil {
				return fmt.Errorf("intelligence scan failed: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		},
	}

	cmd.Flags().StringSliceVar(&interests, "interests", nil, "interest topics for the feed")
	cmd.Flags().StringSliceVar(&regions, "regions", nil, "priority regions for the feed")
	cmd.Flags().Float64Var(&lat, "lat", 0, "location latitude for a mixed local/global feed")
	cmd.Flags().Float64Var(&lng, "lng", 0, "location longitude for a mixed local/global feed")

	return cmd
}
