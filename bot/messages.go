package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/celebguess/core/telegram/format"
	"github.com/m3rciful/celebguess/game"
)

const welcomeText = `🎬 *Celebrity Guess Bot* 🎬

Simply guess the celebrity name!

🤔 *How to Play:*
1. Use /check to get a celebrity photo
2. Type the celebrity name in chat
3. Bot will tell you if you're correct!

🎯 *Example:*
/check (get photo)
Then type: "Shah Rukh Khan"

Let's get started! 🚀`

const helpText = `🆘 *Help - Celebrity Guess Bot*

📌 *Commands:*
/start - Welcome message
/check - Get a celebrity photo to guess
/answer - Reveal the answer
/help - This message

🎮 *How to play:*
1. Type /check to get a photo
2. Type the celebrity's name in chat
3. Bot will tell you if you're right!

🔘 Under every photo, 🔍 Reveal shows the answer and 🔄 Next starts a new round.

💡 *Tips:*
- Names are case-insensitive
- Use full names (e.g., "Shah Rukh Khan")
- You can try multiple times

Happy guessing! 🎬`

const (
	noRoundText      = "No active game! Use /check first."
	renderFailedText = "⚠️ Couldn't draw the celebrity card. Please try /check again."
	rateLimitedText  = "⏳ Easy there! Wait a moment before the next try."
)

// message is one outbound chat text.
type message struct {
	Text     string
	Markdown bool
}

// messageFor turns a text-only engine reply into a chat message.
// It reports false for replies that must stay silent or carry a card.
func messageFor(r game.Reply) (message, bool) {
	switch r.Outcome {
	case game.OutcomeCorrect:
		return message{
			Text:     fmt.Sprintf("🎉 *CORRECT!* 🎉\n\n✅ It's *%s*!\n\nUse /check for another celebrity!", format.Escape(r.Answer)),
			Markdown: true,
		}, true
	case game.OutcomeWrong:
		lead := "❌ Wrong!"
		if strings.Contains(r.Hint, " ") {
			lead = "❌ Not quite!"
		}
		return message{
			Text:     fmt.Sprintf("%s Hint: %s\n\nTry again!", lead, format.Escape(r.Hint)),
			Markdown: true,
		}, true
	case game.OutcomeRevealed:
		return message{
			Text:     fmt.Sprintf("🔍 The answer is: *%s*\n\nUse /check for new game.", format.Escape(r.Answer)),
			Markdown: true,
		}, true
	case game.OutcomeNoRound:
		return message{Text: noRoundText}, true
	case game.OutcomeRenderFailed:
		return message{Text: renderFailedText}, true
	}
	return message{}, false
}

func statsText(active int, uptime time.Duration, build string) string {
	return fmt.Sprintf("📊 *Stats*\n\nActive rounds: %d\nUptime: %s\nBuild: %s",
		active,
		uptime.Round(time.Second),
		format.Escape(build),
	)
}
