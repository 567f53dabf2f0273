// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/maestros-community/backend/internal/app/discord/bridge"
)

// Shutdown cleanly tears down the Discord bot and DB connections.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	bridge.Clear()

	if botCancel != nil {
		logger.Info("stopping discord bot")
		botCancel()
		if err := botGroup.Wait(); err != nil {
			logger.Warn("discord bot shutdown", zap.Error(err))
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
