// Command matholymp maintains the static archive site of an olympiad and
// generates documents for the current event.
package main

import (
	"context"
	"fmt"
	"os"

	"matholymp/pkg/utils/logger"

	"github.com/spf13/cobra"
)

var (
	flagTopDir   string
	flagLogLevel string
)

var argparser = &cobra.Command{
	Use:   "matholymp {[flags]|SUBCOMMAND...}",
	Short: "Manage olympiad static sites and documents",

	Args: onlySubcommands,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(logger.Config{
			Level:      flagLogLevel,
			Format:     "console",
			OutputPath: "stderr",
			ErrorPath:  "stderr",
		})
	},

	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	argparser.PersistentFlags().StringVarP(&flagTopDir, "directory", "C", ".",
		"top-level directory of the site or document tree")
	argparser.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info",
		"log level: debug, info, warn or error")
}

func onlySubcommands(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("invalid subcommand %q", args[0])
	}
	return nil
}

func main() {
	ctx := context.Background()
	err := argparser.ExecuteContext(ctx)
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(argparser.ErrOrStderr(), "%s: error: %v\n", argparser.CommandPath(), err)
		os.Exit(1)
	}
}
