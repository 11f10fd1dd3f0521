package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ylingtech/updatewatch/internal/config"
)

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage user settings",
	Long: `Read and write settings stored at ~/.updatewatch/config.yaml.
Every key can also be set with an UPDATEWATCH_<KEY> environment variable,
with dots replaced by underscores (store.backend -> UPDATEWATCH_STORE_BACKEND).`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Init()
		key, value := args[0], args[1]
		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
		if _, err := config.Load(); err != nil {
			return fmt.Errorf("config saved but no longer valid: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Init()
		if !config.IsKnown(args[0]) {
			return fmt.Errorf("unknown config key %q", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.Get(args[0]))
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every configuration value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Init()
		for _, key := range config.Keys {
			fmt.Fprintf(cmd.OutOrStdout(), "%-17s %s\n", key, config.Get(key))
		}
		return nil
	},
}
