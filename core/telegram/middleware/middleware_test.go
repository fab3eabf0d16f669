package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	update tele.Update
	sender *tele.User
	chat   *tele.Chat
	store  map[string]any
	sent   []any
}

func newFake(userID int64, upd tele.Update) *fakeContext {
	f := &fakeContext{update: upd, store: map[string]any{}}
	if userID != 0 {
		f.sender = &tele.User{ID: userID}
		f.chat = &tele.Chat{ID: userID}
	}
	return f
}

func (f *fakeContext) Update() tele.Update     { return f.update }
func (f *fakeContext) Sender() *tele.User      { return f.sender }
func (f *fakeContext) Chat() *tele.Chat        { return f.chat }
func (f *fakeContext) Get(key string) any      { return f.store[key] }
func (f *fakeContext) Set(key string, val any) { f.store[key] = val }
func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func (f *fakeContext) Text() string {
	if f.update.Message != nil {
		return f.update.Message.Text
	}
	return ""
}

func messageUpdate() tele.Update  { return tele.Update{Message: &tele.Message{Text: "hi"}} }
func callbackUpdate() tele.Update { return tele.Update{Callback: &tele.Callback{Data: "\freveal"}} }

func counting(calls *int) tele.HandlerFunc {
	return func(tele.Context) error {
		*calls++
		return nil
	}
}

func TestAdminOnly(t *testing.T) {
	cases := []struct {
		name    string
		adminID int64
		userID  int64
		allowed bool
	}{
		{"admin passes", 7, 7, true},
		{"other user rejected", 7, 8, false},
		{"unset admin rejects everyone", 0, 8, false},
		{"no sender", 7, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls, rejects int
			mw := AdminOnlyMiddleware(AdminOptions{AdminID: tc.adminID, OnReject: counting(&rejects)})
			require.NoError(t, mw(counting(&calls))(newFake(tc.userID, messageUpdate())))
			if tc.allowed {
				require.Equal(t, 1, calls)
				require.Zero(t, rejects)
			} else {
				require.Zero(t, calls)
				require.Equal(t, 1, rejects)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var calls, limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: counting(&limited),
		Now:       func() time.Time { return now },
	})
	h := mw(counting(&calls))

	require.NoError(t, h(newFake(1, messageUpdate())))
	require.NoError(t, h(newFake(1, messageUpdate())))
	require.Equal(t, 1, calls)
	require.Equal(t, 1, limited)

	// other users and excluded update kinds are not limited
	require.NoError(t, h(newFake(2, messageUpdate())))
	require.NoError(t, h(newFake(1, callbackUpdate())))
	require.Equal(t, 3, calls)

	now = now.Add(time.Second)
	require.NoError(t, h(newFake(1, messageUpdate())))
	require.Equal(t, 4, calls)
	require.Equal(t, 1, limited)
}

func TestRateLimit_DisabledOrAnonymous(t *testing.T) {
	var calls int
	h := RateLimitMiddleware(RateLimitOptions{})(counting(&calls))
	require.NoError(t, h(newFake(1, messageUpdate())))
	require.NoError(t, h(newFake(1, messageUpdate())))

	h = RateLimitMiddleware(RateLimitOptions{Interval: time.Hour})(counting(&calls))
	require.NoError(t, h(newFake(0, messageUpdate())))
	require.NoError(t, h(newFake(0, messageUpdate())))
	require.Equal(t, 4, calls)
}

func TestUpdateKind(t *testing.T) {
	require.Equal(t, "message", UpdateKind(messageUpdate()))
	require.Equal(t, "callback", UpdateKind(callbackUpdate()))
	require.Equal(t, "inline_query", UpdateKind(tele.Update{Query: &tele.Query{}}))
	require.Equal(t, "other", UpdateKind(tele.Update{}))
}

func TestMessageMetrics(t *testing.T) {
	f := newFake(1, messageUpdate())
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		if err := c.Send("hello"); err != nil {
			return err
		}
		return c.Send(&tele.Photo{Caption: "who?"}, &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}})
	})
	require.NoError(t, h(f))
	require.Len(t, f.sent, 2)
	require.Equal(t, Counters{Messages: 2, Photos: 1, Keyboard: true}, GetCounters(f))
}

func TestRecover(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	require.NotPanics(t, func() { _ = h(newFake(1, messageUpdate())) })

	want := errors.New("plain")
	h = RecoverMiddleware(func(tele.Context) error { return want })
	require.ErrorIs(t, h(newFake(1, messageUpdate())), want)
}

func TestLoggerMiddleware_StoresRID(t *testing.T) {
	f := newFake(5, tele.Update{ID: 12, Message: &tele.Message{Text: "madonna"}})
	h := LoggerMiddleware(func(c tele.Context) error {
		require.Equal(t, "12:5:5", c.Get("rid"))
		return nil
	})
	require.NoError(t, h(f))
	_, ok := f.store["update_start"].(time.Time)
	require.True(t, ok)
}
