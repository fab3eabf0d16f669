package telegram

import (
	"strings"
	"time"

	"github.com/samber/lo"

	coreconfig "github.com/m3rciful/celebguess/core/config"
	"github.com/m3rciful/celebguess/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the global chain: panic recovery, the optional
// per-user rate limit, the update logger and the message counters.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}

	if cfg != nil && cfg.RateLimit.IntervalMS > 0 {
		exclude := lo.SliceToMap(cfg.RateLimit.ExcludeUpdates, func(kind string) (string, struct{}) {
			return strings.ToLower(strings.TrimSpace(kind)), struct{}{}
		})
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
				Exclude:   exclude,
				OnLimited: onLimited,
			}),
		})
	}

	return append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}
