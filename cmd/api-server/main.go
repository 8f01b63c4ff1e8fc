// Command api-server serves the POS REST API.
//
// Configuration is read from config.yaml, /etc/pos/config.yaml and POS_*
// environment variables. See internal/app.Config for the full list.
package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	server "github.com/HanzKay/KrasandApps-V1/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, t *app.Telemetry) error {
		cfg, err := server.LoadConfig()
		if err != nil {
			return errors.Wrap(err, "load config")
		}
		return server.Run(ctx, lg, t, cfg)
	})
}
