package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stylec",
	Short: "Compile-time CSS extraction for styled components",
	Long: `Extracts static CSS from *.css.ts style files into cacheable stylesheets
and rewrites each declaration into a minimal runtime call.`,
	// Default behavior: run generate when no subcommand is given.
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		return runGenerate(cmd, nil)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global persistent flags (inherited by all subcommands)
	pf := rootCmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.Bool("quiet", false, "Suppress all output (exit code only)")
	pf.Bool("color", false, "Force color output")
	pf.String("root", ".", "Project root")
	pf.String("config", "", "Config file path (default {root}/stylec.yaml)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(minimizeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}
