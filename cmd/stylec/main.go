// Package main provides the stylec CLI, which extracts static CSS from style
// files and rewrites them into minimal runtime calls.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/yacobolo/stylec/internal/report"
)

// errBuildFailed signals a finished build that reported errors. The report
// has already been printed.
var errBuildFailed = errors.New("build failed")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errBuildFailed) {
			msg := report.RenderStyle(report.StyleRed, "Error:", report.ShouldUseColors(false))
			fmt.Fprintln(os.Stderr, msg, err)
		}
		os.Exit(1)
	}
}
