package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "marketmaker",
		Short: "A price-time-priority limit order book market maker",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	cmd.AddCommand(newBacktestCmd(&configPath))
	cmd.AddCommand(newLiveCmd(&configPath))
	return cmd
}
