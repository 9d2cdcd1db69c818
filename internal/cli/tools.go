package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"toolgate/internal/config"
)

var toolsLevel string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List tools registered with the running daemon",
	Long: `List the tools registered with the running Toolgate daemon.
With --level, only tools accessible to that permission level are shown.`,
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().StringVar(&toolsLevel, "level", "", "filter by permission level (basic, standard, admin)")
	rootCmd.AddCommand(toolsCmd)
}

type toolListing struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"display_name"`
	Description  string   `json:"description"`
	Aliases      []string `json:"aliases,omitempty"`
	Category     string   `json:"category"`
	Capabilities []string `json:"capabilities,omitempty"`
	Active       bool     `json:"active"`
}

func runTools(cmd *cobra.Command, args []string) error {
	path := "/v1/tools"
	if toolsLevel != "" {
		path += "?level=" + url.QueryEscape(toolsLevel)
	}

	body, err := apiGet(path)
	if err != nil {
		return err
	}

	var tools []toolListing
	if err := json.Unmarshal(body, &tools); err != nil {
		return fmt.Errorf("failed to decode tool list: %w", err)
	}

	if len(tools) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tools registered")
		return nil
	}

	for _, t := range tools {
		state := ""
		if !t.Active {
			state = " (disabled)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", t.Name, state)
		if len(t.Aliases) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  aliases: %s\n", strings.Join(t.Aliases, ", "))
		}
		if len(t.Capabilities) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  requires: %s\n", strings.Join(t.Capabilities, ", "))
		}
		if t.Description != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", t.Description)
		}
	}
	return nil
}

// apiGet performs a GET against the daemon API using the configured address.
func apiGet(path string) ([]byte, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	addr := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addr + path)
	if err != nil {
		return nil, fmt.Errorf("daemon unreachable at %s (is it running?): %w", addr, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("daemon returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}
