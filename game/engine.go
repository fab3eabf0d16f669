//go:generate go run go.uber.org/mock/mockgen -source=engine.go -destination=mocks/mock_engine.go -package=mocks
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/m3rciful/celebguess/core/logger"
)

// Caption accompanies every freshly rendered card.
const Caption = "🎬 *Who is this celebrity?*\n\nType your guess in chat!"

// Card is an opaque rendered image for a round.
type Card struct {
	PNG []byte
}

// Renderer draws the card for a chosen celebrity. It may be slow.
type Renderer interface {
	Render(ctx context.Context, name string) (Card, error)
}

// Observer receives one notification per engine outcome.
type Observer interface {
	Observe(outcome Outcome)
}

// Outcome names every result the engine can produce.
type Outcome string

const (
	OutcomeStarted      Outcome = "started"
	OutcomeRenderFailed Outcome = "render_failed"
	OutcomeCorrect      Outcome = "correct"
	OutcomeWrong        Outcome = "wrong"
	OutcomeIgnored      Outcome = "ignored"
	OutcomeRevealed     Outcome = "revealed"
	OutcomeNoRound      Outcome = "no_round"
)

// Reply is the structured payload handed to the delivery layer.
type Reply struct {
	Outcome Outcome
	// Answer is the display form, set for correct and revealed outcomes.
	Answer string
	// Hint is set for wrong guesses.
	Hint string
	// Card and Caption are set for started rounds.
	Card    *Card
	Caption string
}

// Silent reports whether the delivery layer must not answer at all.
func (r Reply) Silent() bool {
	return r.Outcome == OutcomeIgnored
}

// Option customises an Engine.
type Option func(*Engine)

// WithPicker replaces the uniform random index picker. pick(n) must return a value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(e *Engine) {
		if pick != nil {
			e.pick = pick
		}
	}
}

// WithObserver attaches an outcome observer (metrics).
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// Engine implements the round rules on top of a Store.
type Engine struct {
	store    Store
	catalog  *Catalog
	renderer Renderer
	observer Observer
	pick     func(n int) int
}

// NewEngine wires the engine. An empty catalog is a configuration error.
func NewEngine(store Store, catalog *Catalog, renderer Renderer, opts ...Option) (*Engine, error) {
	if catalog.Len() == 0 {
		return nil, ErrEmptyCatalog
	}
	if store == nil {
		return nil, fmt.Errorf("game: nil store")
	}
	if renderer == nil {
		return nil, fmt.Errorf("game: nil renderer")
	}
	e := &Engine{
		store:    store,
		catalog:  catalog,
		renderer: renderer,
		pick:     rand.IntN,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// StartRound picks a celebrity, renders its card and records the round.
// Any previous round of the chat is abandoned. When rendering fails the
// store is left untouched and the returned error wraps ErrRendering.
func (e *Engine) StartRound(ctx context.Context, chatID int64) (Reply, error) {
	name := e.catalog.At(e.pick(e.catalog.Len()))
	answer := Normalize(name)

	start := time.Now()
	card, err := e.renderer.Render(ctx, name)
	if err != nil {
		logger.Warn(ctx, "game", "render.fail",
			slog.String("status", "fail"),
			slog.String("outcome", string(OutcomeRenderFailed)),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		return e.reply(Reply{Outcome: OutcomeRenderFailed}), fmt.Errorf("%w: %q: %w", ErrRendering, name, err)
	}

	r := e.store.Put(chatID, answer)
	logger.Info(ctx, "game", "round.start",
		slog.String("status", "ok"),
		slog.String("outcome", string(OutcomeStarted)),
		slog.Int64("chat_id", chatID),
		slog.String("round_id", r.ID.String()),
		slog.Duration("render_duration", logger.RoundMS(time.Since(start))),
	)
	return e.reply(Reply{Outcome: OutcomeStarted, Card: &card, Caption: Caption}), nil
}

// SubmitGuess evaluates free text against the chat's active round.
// Without an active round the guess is ignored and nothing must be sent.
func (e *Engine) SubmitGuess(ctx context.Context, chatID int64, text string) Reply {
	r, ok := e.store.Get(chatID)
	if !ok {
		logger.Debug(ctx, "game", "guess.ignored",
			slog.String("status", "skip"),
			slog.String("outcome", string(OutcomeIgnored)),
			slog.Int64("chat_id", chatID),
		)
		return e.reply(Reply{Outcome: OutcomeIgnored})
	}

	if Normalize(text) != r.Answer {
		logger.Debug(ctx, "game", "guess.wrong",
			slog.String("status", "ok"),
			slog.String("outcome", string(OutcomeWrong)),
			slog.Int64("chat_id", chatID),
			slog.String("round_id", r.ID.String()),
		)
		return e.reply(Reply{Outcome: OutcomeWrong, Hint: Hint(r.Answer)})
	}

	removed := e.store.RemoveRound(r)
	logger.Info(ctx, "game", "guess.correct",
		slog.String("status", "ok"),
		slog.String("outcome", string(OutcomeCorrect)),
		slog.Int64("chat_id", chatID),
		slog.String("round_id", r.ID.String()),
		slog.Bool("removed", removed),
		slog.Duration("round_duration", logger.RoundMS(time.Since(r.StartedAt))),
	)
	return e.reply(Reply{Outcome: OutcomeCorrect, Answer: r.Display()})
}

// RevealAnswer ends the chat's active round and discloses its answer.
func (e *Engine) RevealAnswer(ctx context.Context, chatID int64) Reply {
	r, ok := e.store.Get(chatID)
	if !ok {
		return e.reply(Reply{Outcome: OutcomeNoRound})
	}

	removed := e.store.RemoveRound(r)
	logger.Info(ctx, "game", "round.reveal",
		slog.String("status", "ok"),
		slog.String("outcome", string(OutcomeRevealed)),
		slog.Int64("chat_id", chatID),
		slog.String("round_id", r.ID.String()),
		slog.Bool("removed", removed),
	)
	return e.reply(Reply{Outcome: OutcomeRevealed, Answer: r.Display()})
}

// ActiveRounds reports how many chats currently have a round in progress.
func (e *Engine) ActiveRounds() int {
	return e.store.Len()
}

func (e *Engine) reply(r Reply) Reply {
	if e.observer != nil {
		e.observer.Observe(r.Outcome)
	}
	return r
}
