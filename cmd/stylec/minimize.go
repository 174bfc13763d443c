package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var minimizeCmd = &cobra.Command{
	Use:   "minimize FILE",
	Short: "Print the minimized source of a style file",
	Long: `Print the rewritten source of a style file. Files that cannot be
minimized are printed unchanged. FILE is relative to the project root.`,
	Args: cobra.ExactArgs(1),
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
		path := args[0]
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.Root(), path)
		}
		text, ok, err := c.MinimizeSource(cmd.Context(), path)
		if err != nil {
			return err
		}
		if !ok {
			log.Warn("source left unchanged")
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			text = string(src)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	},
}
