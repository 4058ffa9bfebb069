package jenni

import (
	"net/http"
	"time"

	"github.com/shinertx/jenni-shopify/internal/clock"
	"github.com/shinertx/jenni-shopify/internal/config"
	"github.com/shinertx/jenni-shopify/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("jenni",
	fx.Provide(func(cfg config.Config, log *zap.Logger, clk clock.Clock) *TokenManager {
		return NewTokenManager(cfg.Jenni, newHTTPClient(), log, clk)
	}),
	fx.Provide(func(cfg config.Config, tokens *TokenManager, log *zap.Logger) *Client {
		return NewClient(cfg.Jenni, tokens, newHTTPClient(), log)
	}),
)

func newHTTPClient() *http.Client {
	return tracing.WrapHTTPClient(&http.Client{Timeout: 5 * time.Second})
}
