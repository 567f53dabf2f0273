// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/maestros-community/backend/internal/app/discord/botcore"
	"github.com/maestros-community/backend/internal/app/discord/bridge"
	"github.com/maestros-community/backend/internal/app/music/saavn"
	eventstore "github.com/maestros-community/backend/internal/app/store/events"
	syslogstore "github.com/maestros-community/backend/internal/app/store/syslogs"
	userstore "github.com/maestros-community/backend/internal/app/store/users"
	"github.com/maestros-community/backend/internal/app/system/authz"
)

// The bot outlives Startup's context; it runs until Shutdown cancels it.
var (
	botCancel context.CancelFunc
	botGroup  *errgroup.Group
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. The
// Discord bot is launched here in a background goroutine and registers
// itself with the bridge; the HTTP layer keeps working (answering 503 on
// bot-backed endpoints) if the gateway connection drops.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase
	checker := authz.New(appCfg.CEORoleID, appCfg.ManagerRoleID, appCfg.MemberRoleID, appCfg.AdminIDs)

	bot, err := botcore.New(
		botcore.Config{
			Token:       appCfg.BotToken,
			GuildID:     appCfg.GuildID,
			Status:      appCfg.BotStatus,
			FrontendURL: appCfg.FrontendURL,
		},
		botcore.Deps{
			Users:   userstore.New(db),
			Events:  eventstore.New(db),
			Syslogs: syslogstore.New(db),
			Saavn:   saavn.New(appCfg.SaavnBaseURL, logger),
			Checker: checker,
			Logger:  logger,
		},
	)
	if err != nil {
		return err
	}

	bridge.Set(bot)

	runCtx, cancel := context.WithCancel(context.Background())
	botCancel = cancel
	botGroup, runCtx = errgroup.WithContext(runCtx)
	botGroup.Go(func() error {
		if err := bot.Run(runCtx); err != nil {
			logger.Error("discord bot stopped", zap.Error(err))
			return err
		}
		return nil
	})

	logger.Info("discord bot launched", zap.String("guild_id", appCfg.GuildID))
	return nil
}
