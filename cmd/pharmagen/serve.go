package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pharmagen-dev/pharmagen/internal/server"
)

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configFile)
			if err != nil {
				return err
			}

			addr := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)
			srv := server.New(addr, a.Engine, a.Exporter, a.Health, a.Logger)

			errChan := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil {
					errChan <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errChan:
				return err
			case <-quit:
				a.Logger.Info("shutting down")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}
