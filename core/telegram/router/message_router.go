package router

import (
	"log/slog"
	"strings"
	"time"

	tg "github.com/m3rciful/celebguess/core/telegram"
	"github.com/m3rciful/celebguess/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	// UnknownCommand handles "/something" that is not registered. Nil skips it.
	UnknownCommand tele.HandlerFunc
	// UnknownText handles plain text when the registry has no text fallback.
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the OnText handler. Slash-prefixed text is resolved
// against registered commands and aliases and never reaches the text
// fallback; everything else goes to reg.TextFallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := strings.TrimSpace(c.Text())

		if strings.HasPrefix(text, "/") {
			return routeCommand(c, reg, opts, commandName(text), start)
		}

		var fn tele.HandlerFunc
		name := "unknown_text"
		if reg != nil {
			fn = reg.TextFallback()
		}
		if fn != nil {
			name = "fallback"
		} else {
			fn = opts.UnknownText
		}
		return dispatch(c, summary{handler: name, start: start}, fn)
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
	}
}

func routeCommand(c tele.Context, reg *tg.Registry, opts TextOptions, name string, start time.Time) error {
	if reg != nil {
		if key, cmd, ok := reg.LookupCommand(name); ok && cmd.Handler != nil {
			return dispatch(c, summary{handler: handlerName(key), start: start}, cmd.Handler)
		}
	}
	s := summary{
		handler: "unknown_command",
		start:   start,
		extras:  []slog.Attr{slog.String("command", name)},
	}
	return dispatch(c, s, opts.UnknownCommand)
}

// dispatch runs fn under s, or logs a skip when there is nothing to run.
func dispatch(c tele.Context, s summary, fn tele.HandlerFunc) error {
	if fn == nil {
		s.status = "skip"
		s.log(c, nil)
		return nil
	}
	return s.run(c, func() error { return fn(c) })
}

// commandName extracts "/cmd" from "/cmd@bot_name args".
func commandName(text string) string {
	name, _, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(strings.TrimSpace(name), "@")
	if i := strings.IndexAny(name, "\t\n"); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}
