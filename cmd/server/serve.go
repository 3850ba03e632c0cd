package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacetraveling/internal/router"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveWithCMS bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the blog front-end",
	Long: `serve starts the blog front-end. Pages found in the build output directory
are served as-is; everything else is rendered on demand. With --with-cms the
local content API is started in the same process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		api, err := newFrontend(appConfig)
		if err != nil {
			return err
		}
		frontend := &http.Server{
			Addr: appConfig.ListenAddr,
			Handler: router.SetupRouter(api, router.Options{
				SessionSecret: appConfig.SessionSecret,
				OutputDir:     appConfig.OutputDir,
				Logger:        logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		servers := []*http.Server{frontend}

		if serveWithCMS {
			content, err := newContentServer(appConfig)
			if err != nil {
				return err
			}
			servers = append(servers, content)
		}

		return runServers(ctx, servers...)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveWithCMS, "with-cms", false, "also start the local content API")
	rootCmd.AddCommand(serveCmd)
}

// runServers 启动所有服务，ctx 结束或任一服务出错时优雅关闭。
func runServers(ctx context.Context, servers ...*http.Server) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			logger.Info("listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}
