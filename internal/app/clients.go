package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-completion/internal/domain/completion"
	"github.com/yungbote/neurobridge-completion/internal/platform/logger"
	"github.com/yungbote/neurobridge-completion/internal/platform/switches"
)

type Clients struct {
	Redis    *goredis.Client
	Switches switches.Provider
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, db *gorm.DB) (Clients, error) {
	log.Info("Wiring clients...", "switch_backend", cfg.SwitchBackend)

	switch cfg.SwitchBackend {
	case SwitchBackendRedis:
		rdb, err := switches.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis switch provider: %w", err)
		}
		return Clients{Redis: rdb, Switches: switches.NewRedis(rdb, "")}, nil
	case SwitchBackendDB:
		return Clients{Switches: switches.NewGorm(db)}, nil
	case SwitchBackendStatic:
		return Clients{Switches: switches.NewStatic(map[string]bool{completion.TrackingSwitch: true})}, nil
	case SwitchBackendEnv, "":
		return Clients{Switches: switches.Env{Vars: map[string]string{
			completion.TrackingSwitch: "COMPLETION_TRACKING_ENABLED",
		}}}, nil
	default:
		return Clients{}, fmt.Errorf("unknown SWITCH_BACKEND %q", cfg.SwitchBackend)
	}
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
