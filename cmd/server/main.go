package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spacetraveling/internal/cms"
	"github.com/spacetraveling/internal/config"
	"github.com/spacetraveling/internal/handler"
	"github.com/spacetraveling/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	appConfig config.AppConfig
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "spacetraveling",
	Short: "Blog front-end for a Prismic-style headless CMS",
	Long: `spacetraveling renders a paginated post listing and article pages from a
headless CMS, supports draft previews, and can pre-render the whole site.
It also ships a local content API backed by sqlite for development.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

func initialize() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	appConfig = cfg

	l, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger = l

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	return nil
}

// newFrontend 按配置构造 CMS 客户端与前台处理器。
func newFrontend(cfg config.AppConfig) (*handler.API, error) {
	client, err := cms.NewClient(cfg.CMSEndpoint, cfg.CMSAccessToken, cfg.CMSTimeout)
	if err != nil {
		return nil, err
	}
	client.SetLogger(logger.Named("cms"))
	return handler.NewAPI(client, cfg.PageSize, handler.SiteFromConfig(cfg), logger), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
