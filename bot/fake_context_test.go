package bot

import (
	tele "gopkg.in/telebot.v4"
)

type sentMessage struct {
	what any
	opts []any
}

// fakeContext implements the slice of tele.Context the handlers touch.
type fakeContext struct {
	tele.Context

	chat      *tele.Chat
	sender    *tele.User
	text      string
	callback  *tele.Callback
	store     map[string]any
	sent      []sentMessage
	responses []*tele.CallbackResponse
}

func newFakeContext(chatID int64, text string) *fakeContext {
	return &fakeContext{
		chat:   &tele.Chat{ID: chatID, Type: tele.ChatGroup},
		sender: &tele.User{ID: 1000 + chatID},
		text:   text,
		store:  map[string]any{},
	}
}

func (f *fakeContext) Chat() *tele.Chat { return f.chat }
func (f *fakeContext) Sender() *tele.User { return f.sender }
func (f *fakeContext) Text() string { return f.text }
func (f *fakeContext) Callback() *tele.Callback { return f.callback }
func (f *fakeContext) Update() tele.Update { return tele.Update{ID: 1} }
func (f *fakeContext) Get(key string) any { return f.store[key] }
func (f *fakeContext) Set(key string, val any) { f.store[key] = val }

func (f *fakeContext) Send(what any, opts ...any) error {
	f.sent = append(f.sent, sentMessage{what: what, opts: opts})
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.responses = append(f.responses, resp...)
	return nil
}

func (f *fakeContext) lastText() string {
	if len(f.sent) == 0 {
		return ""
	}
	s, _ := f.sent[len(f.sent)-1].what.(string)
	return s
}

func (f *fakeContext) lastOptions() *tele.SendOptions {
	if len(f.sent) == 0 {
		return nil
	}
	for _, o := range f.sent[len(f.sent)-1].opts {
		if so, ok := o.(*tele.SendOptions); ok {
			return so
		}
	}
	return nil
}
