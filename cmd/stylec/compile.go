package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var compileCmd = &cobra.Command{
	Use:   "compile FILE...",
	Short: "Recompile single style files against the last full build",
	Long: `Recompile the given style files using the cached config of the last
generate run. Aggregate stylesheets are only appended to.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		defer func() { _ = log.Sync() }()

		c, err := newCompiler(cmd, log)
		if err != nil {
			return err
		}

		quiet := getBoolWithDefault("quiet", false)
		var errs error
		for _, path := range args {
			if c.ShouldInvalidate(path) {
				log.Warn("file changes the project config, run generate for a full build")
			}
			files, err := c.CompileOne(cmd.Context(), path)
			if err != nil {
				errs = multierr.Append(errs, err)
			}
			if quiet {
				continue
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
		}
		return errs
	},
}
