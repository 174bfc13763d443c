package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yacobolo/stylec"
	"github.com/yacobolo/stylec/internal/config"
	"github.com/yacobolo/stylec/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Build, then recompile style files as they change",
	Long: `Run a full build, then watch the project. Changed style files are
recompiled one by one; changes to the config, .env or config-bearing files
trigger a full rebuild.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("delay", watch.DefaultDelay, "Debounce window for file changes")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newCompiler(cmd, log)
	if err != nil {
		return err
	}
	if err := rebuild(ctx, c, log); err != nil {
		return err
	}

	w := watch.New(c.Root(),
		watch.WithDelay(k.Duration("delay")),
		watch.WithSkipDir(c.SkipDir),
		watch.WithFilter(func(path string) bool {
			base := filepath.Base(path)
			return c.IsStyleFile(path) || base == ".env" || base == config.FileName || path == c.Config().Path
		}),
		watch.WithLogger(log),
	)
	log.Info("watching for changes", zap.String("root", c.Root()))

	return w.Run(ctx, func(ctx context.Context, events []watch.Event) error {
		full := false
		for _, ev := range events {
			if ev.Op == watch.Removed || ev.Op == watch.Renamed || c.ShouldInvalidate(ev.Path) {
				full = true
				break
			}
		}
		if full {
			// the config itself may have changed
			next, err := newCompiler(cmd, log)
			if err != nil {
				return err
			}
			c = next
			return rebuild(ctx, c, log)
		}
		for _, ev := range events {
			files, err := c.CompileOne(ctx, ev.Path)
			if err != nil {
				log.Error("recompile failed", zap.String("path", ev.Path), zap.Error(err))
				continue
			}
			log.Info("recompiled", zap.String("path", ev.Path), zap.Int("files", len(files)))
		}
		return nil
	})
}

func rebuild(ctx context.Context, c *stylec.Compiler, log *zap.Logger) error {
	res, err := c.GenerateAll(ctx)
	if err != nil {
		return err
	}
	errs, warnings := res.Summary().Counts()
	log.Info("built",
		zap.Int("entities", res.Entities),
		zap.Int("css", len(res.CSSFiles)),
		zap.Int("errors", errs),
		zap.Int("warnings", warnings),
		zap.Duration("took", res.Duration))
	return nil
}
