// Package bot maps Telegram updates onto the round engine.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/celebguess/core/buildinfo"
	"github.com/m3rciful/celebguess/core/logger"
	coretelegram "github.com/m3rciful/celebguess/core/telegram"
	"github.com/m3rciful/celebguess/core/telegram/commands"
	tghelpers "github.com/m3rciful/celebguess/core/telegram/helpers"
	"github.com/m3rciful/celebguess/core/telegram/keyboard"
	"github.com/m3rciful/celebguess/game"
)

const (
	callbackReveal = "reveal"
	callbackNext   = "next"
)

// Engine is the part of *game.Engine the handlers drive.
type Engine interface {
	StartRound(ctx context.Context, chatID int64) (game.Reply, error)
	SubmitGuess(ctx context.Context, chatID int64, text string) game.Reply
	RevealAnswer(ctx context.Context, chatID int64) game.Reply
	ActiveRounds() int
}

// HandlerOptions tunes Handlers. Zero values are valid.
type HandlerOptions struct {
	// RenderTimeout bounds StartRound; 0 means no extra deadline.
	RenderTimeout time.Duration
	Now           func() time.Time
}

// Handlers holds the Telegram entry points of the game.
type Handlers struct {
	engine        Engine
	renderTimeout time.Duration
	now           func() time.Time
	startedAt     time.Time
}

// NewHandlers binds handlers to an engine.
func NewHandlers(engine Engine, opts HandlerOptions) *Handlers {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Handlers{
		engine:        engine,
		renderTimeout: opts.RenderTimeout,
		now:           now,
		startedAt:     now(),
	}
}

// Register wires commands, callbacks and the guess fallback into reg.
func (h *Handlers) Register(reg *coretelegram.Registry) error {
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: h.Start, Description: "Welcome message"}},
		{"/help", commands.Command{Handler: h.Help, Description: "How to play"}},
		{"/check", commands.Command{Handler: h.Check, Description: "Get a celebrity photo to guess", Aliases: []string{"next"}}},
		{"/answer", commands.Command{Handler: h.Answer, Description: "Reveal the answer", Aliases: []string{"reveal"}}},
		{"/stats", commands.Command{Handler: h.Stats, Description: "Bot statistics", AdminOnly: true, Hidden: true}},
	}
	var errs []error
	for _, c := range cmds {
		errs = append(errs, reg.RegisterCommand(c.name, c.cmd))
	}
	errs = append(errs,
		reg.RegisterCallback(callbackReveal, h.Answer),
		reg.RegisterCallback(callbackNext, h.Check),
	)
	if err := errors.Join(errs...); err != nil {
		return err
	}
	reg.SetTextFallback(h.Guess)
	return nil
}

// Start greets the user.
func (h *Handlers) Start(c tele.Context) error {
	return tghelpers.SendMD(c, welcomeText)
}

// Help lists the commands.
func (h *Handlers) Help(c tele.Context) error {
	return tghelpers.SendMD(c, helpText)
}

// Check starts a new round in the chat and sends its card.
func (h *Handlers) Check(c tele.Context) error {
	chatID, ok := chatOf(c)
	if !ok {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	if h.renderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.renderTimeout)
		defer cancel()
	}

	reply, err := h.engine.StartRound(ctx, chatID)
	if err != nil {
		if !errors.Is(err, game.ErrRendering) {
			return err
		}
		return h.deliver(c, reply)
	}
	return tghelpers.SendPhotoMD(c, reply.Card.PNG, reply.Caption, roundKeyboard())
}

// Answer reveals the answer of the chat's round.
func (h *Handlers) Answer(c tele.Context) error {
	chatID, ok := chatOf(c)
	if !ok {
		return nil
	}
	return h.deliver(c, h.engine.RevealAnswer(tghelpers.BuildContext(c), chatID))
}

// Guess evaluates any non-command text as a guess.
func (h *Handlers) Guess(c tele.Context) error {
	chatID, ok := chatOf(c)
	if !ok {
		return nil
	}
	return h.deliver(c, h.engine.SubmitGuess(tghelpers.BuildContext(c), chatID, c.Text()))
}

// Stats reports runtime figures to the admin.
func (h *Handlers) Stats(c tele.Context) error {
	text := statsText(h.engine.ActiveRounds(), h.now().Sub(h.startedAt), buildinfo.Summary())
	return tghelpers.SendMD(c, text)
}

// RateLimited answers updates dropped by the rate limiter.
func (h *Handlers) RateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: rateLimitedText})
	}
	return tghelpers.SendText(c, rateLimitedText)
}

func (h *Handlers) deliver(c tele.Context, reply game.Reply) error {
	msg, ok := messageFor(reply)
	if !ok {
		return nil
	}
	if msg.Markdown {
		return tghelpers.SendMD(c, msg.Text)
	}
	return tghelpers.SendText(c, msg.Text)
}

func chatOf(c tele.Context) (int64, bool) {
	chat := c.Chat()
	if chat == nil {
		logger.Debug(tghelpers.BuildContext(c), "game", "update.no_chat",
			slog.String("status", "skip"),
		)
		return 0, false
	}
	return chat.ID, true
}

func roundKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineRow(
		keyboard.InlineBtn{Text: "🔍 Reveal", Unique: callbackReveal},
		keyboard.InlineBtn{Text: "🔄 Next", Unique: callbackNext},
	)
}
