package cpi

import (
	"time"

	"github.com/smallbiznis/payrelay/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.cpi",
	fx.Provide(provideConfig),
	fx.Provide(func(cfg Config, log *zap.Logger) Forwarder {
		return NewClient(cfg, log)
	}),
)

func provideConfig(appCfg config.Config) Config {
	return Config{
		Enabled: appCfg.ForwardEnabled,
		URL:     appCfg.ForwardURL,
		Timeout: time.Duration(appCfg.ForwardTimeoutSec) * time.Second,
	}
}
