package cmd

import (
	"encoding/json"
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/pagelist/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configPathCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write configuration values",
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print the effective value of a configuration key",
	Example: `
pagelist config get paging.page_size
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		v, ok := cfg.ConfigField(args[0])
		if !ok {
			return fmt.Errorf("%s is not set", args[0])
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Write a configuration value to the user data config",
	Long: `Write a configuration value to the user data config. VALUE is parsed as
JSON when possible and stored as a string otherwise.`,
	Example: `
pagelist config set paging.page_size 50
pagelist config set paging.enable_placeholders false
pagelist config set sort id
  `,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.SetConfigField(args[0], parseValue(args[1])); err != nil {
			return err
		}
		lipgloss.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓"), args[0], faintStyle.Render("→"), args[1])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file paths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		lipgloss.Fprintln(w, faintStyle.Render("global"), config.GlobalConfig())
		lipgloss.Fprintln(w, faintStyle.Render("data  "), config.GlobalConfigData())
		return nil
	},
}

func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}
