package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/celebguess/core/telegram"
	"github.com/m3rciful/celebguess/core/telegram/callbacks"
	"github.com/m3rciful/celebguess/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	// NotFound runs when neither the registry nor its not-found handler match.
	NotFound tele.HandlerFunc
}

// CallbackRoute routes inline button presses through the registry.
// Matched callbacks are acknowledged before the handler runs; unmatched ones
// are left to the not-found handler, which usually answers with a toast.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key := callbacks.CallbackKey(c)
		s := summary{
			handler: "callback." + handlerName(key),
			start:   time.Now(),
			extras:  []slog.Attr{slog.String("cb_key", key)},
		}

		if h, ok := reg.GetCallback(key); ok && h != nil {
			_ = c.Respond()
			return s.run(c, func() error { return h(c) })
		}

		notFound := reg.CallbackNotFound()
		if notFound == nil {
			notFound = opts.NotFound
		}
		s.extras = append(s.extras, slog.String("reason", "not_found"))
		if notFound == nil {
			_ = c.Respond()
			s.status = "skip"
			s.log(c, nil)
			return nil
		}
		return s.run(c, func() error { return notFound(c) })
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
