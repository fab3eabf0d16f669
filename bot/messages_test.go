package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/celebguess/game"
)

func TestMessageFor(t *testing.T) {
	cases := []struct {
		name     string
		reply    game.Reply
		want     string
		markdown bool
	}{
		{
			name:     "correct",
			reply:    game.Reply{Outcome: game.OutcomeCorrect, Answer: "Tom Cruise"},
			want:     "🎉 *CORRECT!* 🎉\n\n✅ It's *Tom Cruise*!\n\nUse /check for another celebrity!",
			markdown: true,
		},
		{
			name:     "wrong multi word",
			reply:    game.Reply{Outcome: game.OutcomeWrong, Hint: "S*** R*** K***"},
			want:     "❌ Not quite! Hint: S\\*\\*\\* R\\*\\*\\* K\\*\\*\\*\n\nTry again!",
			markdown: true,
		},
		{
			name:     "wrong single word",
			reply:    game.Reply{Outcome: game.OutcomeWrong, Hint: "M***A"},
			want:     "❌ Wrong! Hint: M\\*\\*\\*A\n\nTry again!",
			markdown: true,
		},
		{
			name:     "revealed",
			reply:    game.Reply{Outcome: game.OutcomeRevealed, Answer: "Ms Dhoni"},
			want:     "🔍 The answer is: *Ms Dhoni*\n\nUse /check for new game.",
			markdown: true,
		},
		{
			name:  "no round",
			reply: game.Reply{Outcome: game.OutcomeNoRound},
			want:  noRoundText,
		},
		{
			name:  "render failed",
			reply: game.Reply{Outcome: game.OutcomeRenderFailed},
			want:  renderFailedText,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, ok := messageFor(tc.reply)
			require.True(t, ok)
			require.Equal(t, tc.want, msg.Text)
			require.Equal(t, tc.markdown, msg.Markdown)
		})
	}
}

func TestMessageFor_Silent(t *testing.T) {
	for _, o := range []game.Outcome{game.OutcomeIgnored, game.OutcomeStarted} {
		_, ok := messageFor(game.Reply{Outcome: o})
		require.False(t, ok, o)
	}
}

func TestMessageFor_EscapesAnswer(t *testing.T) {
	msg, ok := messageFor(game.Reply{Outcome: game.OutcomeRevealed, Answer: "Snake_Case"})
	require.True(t, ok)
	require.Contains(t, msg.Text, `*Snake\_Case*`)
}

func TestStatsText(t *testing.T) {
	got := statsText(3, 90*time.Minute+400*time.Millisecond, "dev (local)")
	require.Equal(t, "📊 *Stats*\n\nActive rounds: 3\nUptime: 1h30m0s\nBuild: dev (local)", got)
}
