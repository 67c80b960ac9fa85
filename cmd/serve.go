package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fintrack/config"
	"fintrack/database"
	"fintrack/logger"
	"fintrack/middleware"
	"fintrack/router"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// 命令行参数覆盖端口配置
			if port != "" {
				if !strings.HasPrefix(port, ":") {
					port = ":" + port
				}
				cfg.Server.Port = port
			}

			logConfig(logger.Base(), cfg)

			if err := database.Init(cfg); err != nil {
				return err
			}
			middleware.InitJWT(cfg)

			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port, e.g. 8080 or :8080")
	return cmd
}

// logConfig 输出当前配置（隐藏敏感信息）
func logConfig(log *zerolog.Logger, cfg *config.Config) {
	ev := log.Info().
		Str("port", cfg.Server.Port).
		Str("mode", cfg.Server.Mode).
		Str("db_driver", cfg.Database.Driver).
		Bool("email", cfg.Email.Enabled)
	if cfg.Database.Driver == config.DriverSQLite {
		ev = ev.Str("db_path", cfg.Database.Path)
	} else {
		ev = ev.Str("db_addr", fmt.Sprintf("%s@%s:%s/%s",
			cfg.Database.Username, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName))
	}
	ev.Msg("config loaded")
}

// run 启动服务并在收到信号后优雅退出
func run(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.SetupRouter(ctx, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log := logger.Base()
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Port).
			Str("swagger", "http://localhost"+cfg.Server.Port+"/swagger/index.html").
			Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
