package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spacetraveling/internal/importer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	seedWatch    bool
	seedDebounce = importer.DefaultDebounce
)

var seedCmd = &cobra.Command{
	Use:   "seed [dir]",
	Short: "Import Markdown and YAML documents into the local content store",
	Long: `seed imports every .md/.markdown file (YAML front matter plus body) and
every .yaml/.yml document under dir (default ./content) into the sqlite
content store. With --watch it keeps running and re-imports on change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "content"
		if len(args) == 1 {
			dir = args[0]
		}

		docs, err := openDocuments(appConfig)
		if err != nil {
			return err
		}
		im := importer.New(docs, logger.Named("importer"))

		result, err := im.ImportDir(cmd.Context(), dir)
		logger.Info("seed finished",
			zap.String("dir", dir),
			zap.Int("imported", result.Imported),
			zap.Int("skipped", result.Skipped))
		if !seedWatch {
			return err
		}
		if err != nil {
			logger.Warn("initial import had errors", zap.Error(err))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		logger.Info("watching for changes", zap.String("dir", dir), zap.Duration("debounce", seedDebounce))
		return im.Watch(ctx, dir, seedDebounce, nil)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedWatch, "watch", false, "re-import when files change")
	seedCmd.Flags().DurationVar(&seedDebounce, "debounce", importer.DefaultDebounce, "quiet period before re-importing")
	rootCmd.AddCommand(seedCmd)
}
