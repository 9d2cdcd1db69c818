package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"toolgate/internal/config"
)

var (
	configurePort      int
	configureWorkspace string
	configureArchive   bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write a configuration file with sensible defaults",
	Long: `Write a Toolgate configuration file with sensible defaults.
Flags override individual settings; everything else can be edited in
the generated JSON file afterwards.`,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().IntVar(&configurePort, "port", 0, "HTTP API port")
	configureCmd.Flags().StringVar(&configureWorkspace, "workspace", "", "workspace root for filesystem tools")
	configureCmd.Flags().BoolVar(&configureArchive, "archive", false, "enable the durable call archive")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if configurePort != 0 {
		cfg.Server.Port = configurePort
	}
	if configureWorkspace != "" {
		cfg.Workspace.Root = configureWorkspace
	}
	cfg.Archive.Enabled = configureArchive
	config.ApplyDerivedDefaults(cfg)

	validator := config.NewValidator()
	if errs := validator.ValidateConfig(cfg); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %v", errs[0])
	}

	loader := config.NewLoader(cfgFile)
	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to: %s\n", loader.GetConfigPath())
	fmt.Fprintln(cmd.OutOrStdout(), "Start the daemon with: toolgate serve")
	return nil
}
