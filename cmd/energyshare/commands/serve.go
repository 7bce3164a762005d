package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"energyshare/internal/app"
	"energyshare/internal/logger"
)

func serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				cfg.Server.Port = port
			}
			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			a, err := app.New(cfg, log)
			if err != nil {
				log.Error("[app][init] failed", zap.Error(err))
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := a.Run(ctx); err != nil {
				log.Error("[app][run] stopped", zap.Error(err))
				return err
			}
			log.Info("[app][run] stopped cleanly")
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port, overrides server.port")
	return cmd
}
