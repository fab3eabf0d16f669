package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/m3rciful/celebguess/core/telegram"
	"github.com/m3rciful/celebguess/game"
	"github.com/m3rciful/celebguess/game/mocks"
)

func newTestHandlers(t *testing.T, renderer game.Renderer) (*Handlers, game.Store) {
	t.Helper()
	catalog, err := game.NewCatalog([]string{"Shah Rukh Khan", "Madonna"})
	require.NoError(t, err)
	store := game.NewMemoryStore()
	engine, err := game.NewEngine(store, catalog, renderer, game.WithPicker(func(int) int { return 0 }))
	require.NoError(t, err)
	return NewHandlers(engine, HandlerOptions{}), store
}

func okRenderer(t *testing.T) *mocks.MockRenderer {
	r := mocks.NewMockRenderer(gomock.NewController(t))
	r.EXPECT().Render(gomock.Any(), gomock.Any()).Return(game.Card{PNG: []byte("png")}, nil).AnyTimes()
	return r
}

func TestCheck_SendsCardWithKeyboard(t *testing.T) {
	req := require.New(t)
	h, store := newTestHandlers(t, okRenderer(t))
	c := newFakeContext(42, "/check")

	req.NoError(h.Check(c))
	req.Len(c.sent, 1)

	photo, ok := c.sent[0].what.(*tele.Photo)
	req.True(ok)
	req.Equal(game.Caption, photo.Caption)

	opts := c.lastOptions()
	req.NotNil(opts)
	req.Equal(tele.ModeMarkdown, opts.ParseMode)
	req.Len(opts.ReplyMarkup.InlineKeyboard, 1)
	req.Equal(callbackReveal, opts.ReplyMarkup.InlineKeyboard[0][0].Unique)
	req.Equal(callbackNext, opts.ReplyMarkup.InlineKeyboard[0][1].Unique)

	r, ok := store.Get(42)
	req.True(ok)
	req.Equal("shah rukh khan", r.Answer)
}

func TestCheck_RenderFailureSendsPlainText(t *testing.T) {
	r := mocks.NewMockRenderer(gomock.NewController(t))
	r.EXPECT().Render(gomock.Any(), gomock.Any()).Return(game.Card{}, errors.New("font exploded"))
	h, store := newTestHandlers(t, r)
	c := newFakeContext(7, "/check")

	require.NoError(t, h.Check(c))
	require.Equal(t, renderFailedText, c.lastText())
	require.Nil(t, c.lastOptions())
	require.Equal(t, 0, store.Len())
}

func TestCheck_RenderTimeout(t *testing.T) {
	r := mocks.NewMockRenderer(gomock.NewController(t))
	r.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ string) (game.Card, error) {
		<-ctx.Done()
		return game.Card{}, ctx.Err()
	})
	h, _ := newTestHandlers(t, r)
	h.renderTimeout = 10 * time.Millisecond
	c := newFakeContext(7, "/check")

	require.NoError(t, h.Check(c))
	require.Equal(t, renderFailedText, c.lastText())
}

func TestGuessFlow(t *testing.T) {
	req := require.New(t)
	h, store := newTestHandlers(t, okRenderer(t))

	silent := newFakeContext(5, "madonna")
	req.NoError(h.Guess(silent))
	req.Empty(silent.sent, "no round, no reply")

	req.NoError(h.Check(newFakeContext(5, "/check")))

	wrong := newFakeContext(5, "tom cruise")
	req.NoError(h.Guess(wrong))
	req.Contains(wrong.lastText(), "Not quite!")
	req.Equal(1, store.Len())

	right := newFakeContext(5, "  SHAH RUKH KHAN ")
	req.NoError(h.Guess(right))
	req.Contains(right.lastText(), "It's *Shah Rukh Khan*!")
	req.Equal(0, store.Len())
}

func TestAnswer(t *testing.T) {
	h, store := newTestHandlers(t, okRenderer(t))

	none := newFakeContext(9, "/answer")
	require.NoError(t, h.Answer(none))
	require.Equal(t, noRoundText, none.lastText())

	require.NoError(t, h.Check(newFakeContext(9, "/check")))
	revealed := newFakeContext(9, "/answer")
	require.NoError(t, h.Answer(revealed))
	require.Contains(t, revealed.lastText(), "The answer is: *Shah Rukh Khan*")
	require.Equal(t, 0, store.Len())
}

func TestStats(t *testing.T) {
	h, _ := newTestHandlers(t, okRenderer(t))
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	h.startedAt = start
	h.now = func() time.Time { return now }
	now = start.Add(2 * time.Hour)

	require.NoError(t, h.Check(newFakeContext(1, "/check")))
	c := newFakeContext(1, "/stats")
	require.NoError(t, h.Stats(c))
	require.Contains(t, c.lastText(), "Active rounds: 1")
	require.Contains(t, c.lastText(), "Uptime: 2h0m0s")
}

func TestRateLimited(t *testing.T) {
	h, _ := newTestHandlers(t, okRenderer(t))

	msg := newFakeContext(1, "spam")
	require.NoError(t, h.RateLimited(msg))
	require.Equal(t, rateLimitedText, msg.lastText())

	cb := newFakeContext(1, "")
	cb.callback = &tele.Callback{Data: "\fnext"}
	require.NoError(t, h.RateLimited(cb))
	require.Empty(t, cb.sent)
	require.Len(t, cb.responses, 1)
}

func TestRegister(t *testing.T) {
	req := require.New(t)
	h, _ := newTestHandlers(t, okRenderer(t))
	reg := coretelegram.NewRegistry()
	req.NoError(h.Register(reg))

	visible := reg.ListCommands(true)
	names := make([]string, 0, len(visible))
	for _, c := range visible {
		names = append(names, c.Text)
	}
	req.Equal([]string{"/answer", "/check", "/help", "/start"}, names)

	key, _, ok := reg.LookupCommand("/reveal")
	req.True(ok)
	req.Equal("/answer", key)

	_, ok = reg.GetCallback(callbackNext)
	req.True(ok)
	req.NotNil(reg.TextFallback())

	req.ErrorIs(h.Register(reg), coretelegram.ErrDuplicate)
}

func TestChatlessUpdateIsSkipped(t *testing.T) {
	h, _ := newTestHandlers(t, okRenderer(t))
	c := newFakeContext(1, "madonna")
	c.chat = nil
	require.NoError(t, h.Guess(c))
	require.NoError(t, h.Check(c))
	require.Empty(t, c.sent)
}
