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

// NewSimulateCmd creates the simulate command for hypothetical scenarios
func NewSimulateCmd() *cobra.Command {
	var deep bool

	cmd := &cobra.Command{
		Use:   "simulate <scenario>",
		Short: "Simulate a hypothetical scenario and print the resulting report as JSON",
		Long: `Run a scenario simulation through the intelligence pipeline.

With --deep the generator is asked for an exhaustive analysis: historical
precedents, second and third order risks, and commodity-level financial
impact.

Examples:
  predicta simulate "sudden closure of the Strait of Hormuz"
  predicta simulate --deep "global semiconductor export ban"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario := strings.TrimSpace(strings.Join(args, " "))
			if scenario == "" {
				return fmt.Errorf("scenario text is required")
			}

			cfg := config.Get()
			genClient, err := llm.NewClient(cmd.Context(), cfg.AI.Gemini)
			if err != nil {
				return err
			}

			orch := orchestrator.New(genClient,
				orchestrator.WithThinkingBudget(cfg.AI.Gemini.ThinkingBudget))

			rpt, err := orch.RunScenarioSimulation(cmd.Context(), core.UserPreferences{}, scenario, deep)
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}
			if rpt == nil {
				fmt.Fprintln(os.Stderr, "no signal: the simulation produced no report")
				return nil
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rpt)
		},
	}

	cmd.Flags().BoolVar(&deep, "deep", false, "run the deep research protocol")

	return cmd
}
