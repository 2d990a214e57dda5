package main

import (
	"fmt"
	"strings"

	"matholymp/internal/docgen"
	"matholymp/pkg/utils/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	var (
		opts        docgen.Options
		inputDir    string
		outputDir   string
		problemsDir string
		noCompile   bool
	)
	cmd := &cobra.Command{
		Use:   "document [flags] TYPE ID",
		Short: "Generate LaTeX documents for the current event",
		Long: "Generate documents of TYPE for ID, which is \"all\" or a selector for the type.\n" +
			"Types: " + strings.Join(docgen.Types, ", ") + ".",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := docgen.ReadConfig(flagTopDir)
			if err != nil {
				return err
			}
			dirs := docgen.DefaultDirs(flagTopDir, cfg)
			if inputDir != "" {
				dirs.Data = inputDir
			}
			if outputDir != "" {
				dirs.Out = outputDir
			}
			if problemsDir != "" {
				dirs.Problems = problemsDir
			}
			event, err := docgen.LoadEvent(dirs.Data, cfg)
			if err != nil {
				return fmt.Errorf("load event data: %w", err)
			}
			var run docgen.Runner
			if !noCompile {
				run = docgen.PDFLaTeX()
				if run == nil {
					logger.Warn(cmd.Context(), "pdflatex not found, writing .tex files only")
				}
			}
			if err := docgen.New(cfg, event, dirs, run).Generate(cmd.Context(), args[0], args[1], opts); err != nil {
				return err
			}
			logger.Info(cmd.Context(), "documents generated",
				zap.String("type", args[0]), zap.String("id", args[1]), zap.String("out", dirs.Out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.Background, "background", false, "include background in output")
	cmd.Flags().StringVar(&opts.Day, "day", "", "day for papers")
	cmd.Flags().StringVar(&inputDir, "input-directory", "", "directory with CSV files and unpacked flags and photos")
	cmd.Flags().StringVar(&outputDir, "output-directory", "", "directory for output files")
	cmd.Flags().StringVar(&problemsDir, "problems-directory", "", "directory for problems")
	cmd.Flags().BoolVar(&noCompile, "no-compile", false, "only write .tex files")
	argparser.AddCommand(cmd)
}
