package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacetraveling/internal/config"
	"github.com/spacetraveling/internal/db"
	"github.com/spacetraveling/internal/handler"
	"github.com/spacetraveling/internal/router"
	"github.com/spacetraveling/internal/service"
	"github.com/spf13/cobra"
)

var cmsCmd = &cobra.Command{
	Use:   "cms",
	Short: "Serve the local content API",
	Long: `cms serves documents from the sqlite content store through a
Prismic-compatible read API (GET /api/v2 and /api/v2/documents/search).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := newContentServer(appConfig)
		if err != nil {
			return err
		}
		return runServers(ctx, srv)
	},
}

func init() {
	rootCmd.AddCommand(cmsCmd)
}

// openDocuments 初始化内容库并返回文档服务。
func openDocuments(cfg config.AppConfig) (*service.DocumentService, error) {
	if err := db.Init(cfg.DatabasePath); err != nil {
		return nil, err
	}
	return service.NewDocumentService(db.DB), nil
}

func newContentServer(cfg config.AppConfig) (*http.Server, error) {
	docs, err := openDocuments(cfg)
	if err != nil {
		return nil, err
	}
	api := handler.NewContentAPI(docs, cfg.CMSAccessToken, logger.Named("content"))
	return &http.Server{
		Addr:              cfg.CMSListenAddr,
		Handler:           router.SetupContentRouter(api, logger.Named("content")),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}
