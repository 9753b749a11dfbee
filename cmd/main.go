package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"bookhive/cmd/bootstrap"
	"bookhive/internal/pkg/config"
)

func init() {
	// Failsafe default; GIN_MODE still wins when set.
	gin.SetMode(gin.ReleaseMode)
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}
}

func main() {
	app := fx.New(
		bootstrap.Module,
		fx.Provide(gin.New),
		fx.Invoke(startServer),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("failed to stop application", "error", err)
		os.Exit(1)
	}
}

func startServer(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, logger *slog.Logger) {
	addr := fmt.Sprintf(":%s", cfg.Server.Port)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				logger.Info("starting http server", "addr", addr)
				if err := engine.Run(addr); err != nil {
					logger.Error("http server exited", "error", err)
				}
			}()
			return nil
		},
	})
}
