package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("levtrader version %s\n", version)
		fmt.Println("A leveraged order-execution and capital-accounting engine")
		fmt.Println("https://github.com/rustyeddy/levtrader")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
