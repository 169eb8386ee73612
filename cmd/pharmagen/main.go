// PharmaGEN is a conversational medical assistant: it collects a
// patient's language, symptoms, and allergies, produces a hypothetical
// diagnosis with a generated drug suggestion, and answers follow-up
// questions, all in the patient's language.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pharmagen-dev/pharmagen/internal/app"
	"github.com/pharmagen-dev/pharmagen/pkg/config"
)

// Version is set via ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "pharmagen",
		Short:         "Conversational medical assistant",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "configuration file")

	root.AddCommand(newServeCmd(&configFile))
	root.AddCommand(newChatCmd(&configFile))
	root.AddCommand(newLanguagesCmd())
	return root
}

func loadApp(configFile string) (*app.App, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(cfg)
}
