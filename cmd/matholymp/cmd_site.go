package main

import (
	"matholymp/internal/sitegen"
	"matholymp/internal/staticimport"
	"matholymp/pkg/utils/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	argparser.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Regenerate every page and CSV file of the static site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sitegen.ReadConfig(flagTopDir)
			if err != nil {
				return err
			}
			group, err := sitegen.LoadEventGroup(flagTopDir, cfg)
			if err != nil {
				return err
			}
			return sitegen.New(cfg, group, flagTopDir).Generate(cmd.Context())
		},
	})

	argparser.AddCommand(&cobra.Command{
		Use:   "import INPUT_DIR",
		Short: "Import the registration data of a finished event",
		Long: "Import countries.csv, people.csv, flags/, photos/ and scores-rss.xml " +
			"downloaded from the registration system into the static site data.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sitegen.ReadConfig(flagTopDir)
			if err != nil {
				return err
			}
			if err := staticimport.Import(cmd.Context(), cfg, flagTopDir, args[0]); err != nil {
				return err
			}
			logger.Info(cmd.Context(), "import finished", zap.String("input", args[0]))
			return nil
		},
	})

	var papers staticimport.PapersOptions
	papersCmd := &cobra.Command{
		Use:   "papers-import [flags] DOC_DIR",
		Short: "Import the papers of the current event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sitegen.ReadConfig(flagTopDir)
			if err != nil {
				return err
			}
			return staticimport.PapersImport(cmd.Context(), cfg, flagTopDir, args[0], papers)
		},
	}
	papersCmd.Flags().StringVar(&papers.Day, "day", "", "only import papers for this day")
	papersCmd.Flags().BoolVar(&papers.Background, "background", false, "papers use preprinted backgrounds")
	argparser.AddCommand(papersCmd)

	argparser.AddCommand(&cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade the site data files to the current format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sitegen.ReadConfig(flagTopDir)
			if err != nil {
				return err
			}
			return staticimport.Upgrade(cmd.Context(), cfg, flagTopDir)
		},
	})
}
