package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [tool]",
	Short: "Show per-tool usage statistics",
	Long: `Show usage statistics collected by the running Toolgate daemon.
Without arguments all tools with recorded invocations are listed;
with a tool name only that tool's statistics are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

type usageListing struct {
	Total                int64         `json:"total"`
	Successful           int64         `json:"successful"`
	Failed               int64         `json:"failed"`
	TotalCost            float64       `json:"total_cost"`
	AverageExecutionTime time.Duration `json:"average_execution_time"`
}

func runStats(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		body, err := apiGet("/v1/stats?tool=" + url.QueryEscape(args[0]))
		if err != nil {
			return err
		}
		var u usageListing
		if err := json.Unmarshal(body, &u); err != nil {
			return fmt.Errorf("failed to decode statistics: %w", err)
		}
		printUsage(cmd, args[0], u)
		return nil
	}

	body, err := apiGet("/v1/stats")
	if err != nil {
		return err
	}
	var all map[string]usageListing
	if err := json.Unmarshal(body, &all); err != nil {
		return fmt.Errorf("failed to decode statistics: %w", err)
	}

	if len(all) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No invocations recorded")
		return nil
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		printUsage(cmd, name, all[name])
	}
	return nil
}

func printUsage(cmd *cobra.Command, name string, u usageListing) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", name)
	fmt.Fprintf(cmd.OutOrStdout(), "  total: %d  successful: %d  failed: %d\n", u.Total, u.Successful, u.Failed)
	fmt.Fprintf(cmd.OutOrStdout(), "  avg execution: %s  total cost: $%.4f\n", u.AverageExecutionTime, u.TotalCost)
}
