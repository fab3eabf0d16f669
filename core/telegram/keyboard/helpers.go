// Package keyboard builds inline keyboards whose buttons carry the callback
// unique keys the router dispatches on.
package keyboard

import (
	"github.com/samber/lo"
	tele "gopkg.in/telebot.v4"
)

// InlineBtn is one inline button. Unique is the callback key and Data its
// optional payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

func (b InlineBtn) inline(m *tele.ReplyMarkup) tele.InlineButton {
	return *m.Data(b.Text, b.Unique, b.Data).Inline()
}

// Rows builds an inline keyboard with one keyboard row per argument.
func Rows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.InlineKeyboard = lo.Map(rows, func(row []InlineBtn, _ int) []tele.InlineButton {
		return lo.Map(row, func(b InlineBtn, _ int) tele.InlineButton { return b.inline(m) })
	})
	return m
}

// InlineRow builds a single-row inline keyboard.
func InlineRow(buttons ...InlineBtn) *tele.ReplyMarkup {
	return Rows(buttons)
}
