// cmd/tools/health-report/cmd_registry.go
package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/config"
	loadsurveybatch "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/data-access/load-survey-batch"
	aggregatesignals "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/aggregate-signals"
	analyzesurvey "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/analyze-survey"
	evaluateconfidence "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/evaluate-confidence"
	predictimpact "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/predict-impact"
	rankinterventions "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/rank-interventions"
	scorethemehealth "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/score-theme-health"
	synthesizerootcauses "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/synthesize-root-causes"
	notifycriticalthemes "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/reporting/notify-critical-themes"
	publishhealthreport "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/reporting/publish-health-report"
	"github.com/mstoerum/wisdom-ground-work-sub002/pkg/registry"
)

// servedTaskTypes mirrors the workers started by worker-manager.
var servedTaskTypes = []string{
	loadsurveybatch.TaskType,
	scorethemehealth.TaskType,
	evaluateconfidence.TaskType,
	aggregatesignals.TaskType,
	synthesizerootcauses.TaskType,
	rankinterventions.TaskType,
	predictimpact.TaskType,
	analyzesurvey.TaskType,
	publishhealthreport.TaskType,
	notifycriticalthemes.TaskType,
}

var registryFlags struct {
	path       string
	configPath string
}

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the activity registry",
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the registry against the served task types",
	Long: `Validate loads the activity registry and checks that every activity is
complete, names a task type served by worker-manager and, with --config, has
a workers entry in config.yaml. Served task types missing from the registry
are reported too.`,
	Args: cobra.NoArgs,
	RunE: runRegistryValidate,
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered activities by category",
	Args:  cobra.NoArgs,
	RunE:  runRegistryList,
}

func init() {
	registryCmd.PersistentFlags().StringVar(&registryFlags.path, "path", "configs/activity-registry.json", "Path to the registry file")
	registryValidateCmd.Flags().StringVar(&registryFlags.configPath, "config", "", "config.yaml to cross-check the workers section")
	registryCmd.AddCommand(registryValidateCmd, registryListCmd)
}

func runRegistryValidate(cmd *cobra.Command, args []string) error {
	reg, err := registry.LoadRegistry(registryFlags.path)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	var configured map[string]bool
	if registryFlags.configPath != "" {
		cfg, err := config.LoadFromFile(registryFlags.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		configured = make(map[string]bool, len(cfg.Workers))
		for name := range cfg.Workers {
			configured[name] = true
		}
	}

	if err := registry.Validate(reg, servedTaskTypes, configured); err != nil {
		return fmt.Errorf("registry validation failed:\n%w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

func runRegistryList(cmd *cobra.Command, args []string) error {
	reg, err := registry.LoadRegistry(registryFlags.path)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	groups := registry.ByCategory(reg)
	categories := make([]string, 0, len(groups))
	for c := range groups {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	w := cmd.OutOrStdout()
	for _, c := range categories {
		fmt.Fprintf(w, "%s:\n", c)
		for _, id := range groups[c] {
			fmt.Fprintf(w, "  %s\n", id)
		}
	}
	return nil
}
