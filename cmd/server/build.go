package main

import (
	"github.com/spacetraveling/internal/router"
	"github.com/spacetraveling/internal/site"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Pre-render the site into the output directory",
	Long: `build renders the listing page, every published post, the RSS feed and the
sitemap through the same handlers that serve them, and writes the result to
OUTPUT_DIR. serve picks these files up before rendering on demand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newFrontend(appConfig)
		if err != nil {
			return err
		}
		// 构建时不读取旧的输出目录
		r := router.SetupRouter(api, router.Options{
			SessionSecret: appConfig.SessionSecret,
			Logger:        logger.Named("build"),
		})

		builder := site.NewBuilder(r, api.Articles(), appConfig.OutputDir, appConfig.BuildConcurrency, logger)
		_, err = builder.Build(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
