package main

import (
	"github.com/aluiziolira/go-tse-id/browser"
	"github.com/spf13/cobra"
)

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Installs the playwright driver and Chromium",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return browser.Install(cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}
