package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yacobolo/stylec/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default stylec.yaml config file",
	Long:  `Create a stylec.yaml configuration file in the project root with sensible defaults.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")
		root, _ := cmd.Flags().GetString("root")
		path := filepath.Join(root, config.FileName)

		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
		return nil
	},
}

const defaultConfig = `# stylec configuration

# Build settings
import-strategy: root     # root | component
output-dir: stylegen
default-unit: px
reset: default            # default | none | custom
range-timeout: 5s
markers: [css, styles, styled, stylec]
ignore: []
external: []

# Design tokens, referenced as {colors.brand} in style files
variables:
  colors:
    brand: "#3b82f6"
  responsive:
    base:
      spacing:
        gutter: 16px
    tablet:
      spacing:
        gutter: 24px
  conditional:
    theme:
      dark:
        colors:
          background: "#0b0b0b"

media-queries:
  tablet: "@media (min-width: 768px)"

global: {}
templates: {}

# CLI settings
verbose: false
output-format: issues     # issues | summary | full | json
strict: false
`

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
