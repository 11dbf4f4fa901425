package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "inkpost",
		Short:         "inkpost - a blogging platform built with Go, Echo, and templ",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./inkpost.yaml or /etc/inkpost/inkpost.yaml)")

	load := func() (settings, error) {
		return loadSettings(configPath)
	}
	root.AddCommand(
		newServeCmd(load),
		newTokenCmd(load),
		newGenerateCmd(load),
		&cobra.Command{
			Use:   "version",
			Short: "Print the inkpost version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "inkpost %s\n", version)
			},
		},
	)
	return root
}
