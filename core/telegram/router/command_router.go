package router

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/m3rciful/celebguess/core/logger"
	tg "github.com/m3rciful/celebguess/core/telegram"
	"github.com/m3rciful/celebguess/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered command, wrapped with
// recovery, logging and, for admin commands, the admin check. Aliases are
// resolved by the text route.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for _, name := range slices.Sorted(maps.Keys(cmds)) {
		def := cmds[name]
		h := summarized(handlerName(name), def.Handler)
		if def.AdminOnly {
			h = adminOnly(h)
		}
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h)),
		})
	}

	logger.TWire.Info("tg.wire.complete",
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

func summarized(name string, fn tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		return dispatch(c, summary{handler: name, start: time.Now()}, fn)
	}
}
