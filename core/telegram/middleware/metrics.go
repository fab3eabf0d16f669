package middleware

import tele "gopkg.in/telebot.v4"

const (
	keyMessages = "messages"
	keyKeyboard = "kb"
	keyPhotos   = "photos"
)

// countingContext wraps tele.Context to count sent messages, photos and keyboards.
type countingContext struct{ tele.Context }

func (m countingContext) record(what any, opts []any) {
	bump(m.Context, keyMessages)
	if _, ok := what.(*tele.Photo); ok {
		bump(m.Context, keyPhotos)
	}
	if hasKeyboard(opts) {
		m.Set(keyKeyboard, true)
	}
}

func bump(c tele.Context, key string) {
	n, _ := c.Get(key).(int)
	c.Set(key, n+1)
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Send proxies tele.Context.Send while updating counters.
func (m countingContext) Send(what any, opts ...any) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.record(what, opts)
	}
	return err
}

// Reply proxies tele.Context.Reply while updating counters.
func (m countingContext) Reply(what any, opts ...any) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.record(what, opts)
	}
	return err
}

// EditOrSend proxies tele.Context.EditOrSend while updating counters.
func (m countingContext) EditOrSend(what any, opts ...any) error {
	err := m.Context.EditOrSend(what, opts...)
	if err == nil {
		m.record(what, opts)
	}
	return err
}

// MessageMetricsMiddleware instruments the context so handler summaries can
// report how many messages and round cards an update produced.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(keyMessages, 0)
		c.Set(keyPhotos, 0)
		c.Set(keyKeyboard, false)
		return next(countingContext{Context: c})
	}
}

// Counters is the per-update summary collected by MessageMetricsMiddleware.
type Counters struct {
	Messages int
	Photos   int
	Keyboard bool
}

// GetCounters reads the counters from context; missing values read as zero.
func GetCounters(c tele.Context) Counters {
	messages, _ := c.Get(keyMessages).(int)
	photos, _ := c.Get(keyPhotos).(int)
	kb, _ := c.Get(keyKeyboard).(bool)
	return Counters{Messages: messages, Photos: photos, Keyboard: kb}
}
