package telemetry

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/config"
)

// RunUntilSignal waits for the upload host, then runs the simulator until
// parent is cancelled or SIGINT/SIGTERM arrives. Stopping that way is not an
// error.
func RunUntilSignal(parent context.Context, cfg config.TelemetryConfig, log *logrus.Entry) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := WaitForNetwork(ctx, cfg.UploadURL, log); err != nil {
		if ctx.Err() != nil {
			log.Info("simulator stopped before network was ready")
			return nil
		}
		return err
	}
	err := NewSimulator(cfg, nil, log).Run(ctx)
	if ctx.Err() != nil {
		log.Info("simulator stopped")
		return nil
	}
	return err
}
