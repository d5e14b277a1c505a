package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/levtrader/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print or write the default configuration",
	Long: `Print the default configuration as YAML, or write it to a file with --write.

Example:
  levtrader config --write levtrader.yaml`,
	RunE: runConfig,
}

var configWritePath string

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().StringVarP(&configWritePath, "write", "w", "", "write the default config to this path")
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := config.Default()

	if configWritePath != "" {
		if err := cfg.SaveToFile(configWritePath); err != nil {
			return err
		}
		fmt.Printf("Default config written to %s\n", configWritePath)
		return nil
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
