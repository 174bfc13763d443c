package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yacobolo/stylec/internal/report"
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen", "build"},
	Short:   "Build all stylesheets and minimized sources",
	Long: `Walk the project for style files, evaluate them and write one stylesheet
per exported entity, the config stylesheets, index.css and minimized sources
into the output directory.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.String("output-dir", "", "Output directory (default stylegen)")
	f.String("import-strategy", "", "Stylesheet layout: root|component")
	f.String("output-format", "", "Output format: issues|summary|full|json")
	f.Bool("strict", false, "Exit 1 on warnings too (CI mode)")
	f.Bool("print-lines", true, "Show source lines with issues")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	c, err := newCompiler(cmd, log)
	if err != nil {
		return err
	}
	res, err := c.GenerateAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	summary := res.Summary()
	quiet := getBoolWithDefault("quiet", false)
	if !quiet {
		format := report.DetermineOutputFormat(getStringWithDefault("output-format", ""), quiet)
		opts := report.Options{
			Color:      getBoolWithDefault("color", false),
			PrintLines: getBoolWithDefault("print-lines", true),
		}
		if err := report.WriteOutput(cmd.OutOrStdout(), summary, format, opts); err != nil {
			return err
		}
	}

	// errors always fail the build; warnings only in strict mode
	errs, warnings := summary.Counts()
	if errs > 0 || (warnings > 0 && getBoolWithDefault("strict", false)) {
		return errBuildFailed
	}
	return nil
}
