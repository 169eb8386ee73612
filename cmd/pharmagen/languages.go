package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pharmagen-dev/pharmagen/internal/translate"
)

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported conversation languages",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range translate.SupportedLanguages() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
