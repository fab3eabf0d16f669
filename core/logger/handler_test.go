package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/celebguess/core/config"
)

// capture runs fn against a handler writing into a buffer and returns the trimmed output.
func capture(t *testing.T, format logFormat, fn func(log *slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]sink{{w: buf}}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: defaultKeyOrder,
	})
	fn(slog.New(handler))
	require.NoError(t, aw.Flush())
	require.NoError(t, aw.Close())
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	line := capture(t, formatKV, func(log *slog.Logger) {
		LogEvent(ctx, log.With("component", "game"), slog.LevelInfo, "round.start",
			slog.String("status", "ok"),
			slog.String("round_id", "5f1d"),
		)
	})
	require.NotEmpty(t, line)

	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=game", "event=round.start", "status=ok", "rid=rid-123"}
	require.GreaterOrEqual(t, len(tokens), len(expected), line)
	for i, prefix := range expected {
		require.Truef(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, expected prefix %s", i, tokens[i], prefix)
	}
	require.Contains(t, line, "round_id=5f1d")
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	line := capture(t, formatJSON, func(log *slog.Logger) {
		LogEvent(ctx, log.With("component", "render"), slog.LevelError, "render.fail",
			slog.String("status", "fail"),
			slog.String("err", "boom"),
			slog.String("err_code", "RENDER_FAIL"),
		)
	})
	require.True(t, strings.HasPrefix(line, "{"), line)

	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"render"`, `"event":"render.fail"`, `"status":"fail"`, `"rid":"rid-json"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		require.Truef(t, idx != -1 && idx >= pos, "prefix %s not found in order within %s", pref, line)
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	rawRID := "123:456:789"
	ctx := WithRID(context.Background(), rawRID)

	kv := capture(t, formatKV, func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "rid.test", slog.String("status", "ok"))
	})
	require.Contains(t, kv, "rid="+CompactRID(rawRID))
	require.NotContains(t, kv, "rid_full=")

	js := capture(t, formatJSON, func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "rid.test", slog.String("status", "ok"))
	})
	require.Contains(t, js, `"rid":"`+CompactRID(rawRID)+`"`)
	require.Contains(t, js, `"rid_full":"`+rawRID+`"`)
	require.Contains(t, js, `"ts_unix_nano"`)
}

func TestStructuredHandlerOutcomeEnumeration(t *testing.T) {
	line := capture(t, formatKV, func(log *slog.Logger) {
		LogEvent(context.Background(), log, slog.LevelInfo, "guess.wrong", slog.String("outcome", "Wrong"))
		LogEvent(context.Background(), log, slog.LevelInfo, "guess.odd", slog.String("outcome", "maybe"))
	})
	lines := strings.Split(line, "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "outcome=wrong")
	require.NotContains(t, lines[1], "outcome=")
}

func TestPackageLoggersUsableBeforeInit(t *testing.T) {
	require.NotPanics(t, func() {
		GAME.Info("noop")
		Warn(context.Background(), "render", "font.fallback")
	})
}

func TestStructuredHandlerDurationsAndGroups(t *testing.T) {
	line := capture(t, formatKV, func(log *slog.Logger) {
		log.WithGroup("db").Info("query",
			slog.Duration("duration", 1500*time.Microsecond),
			slog.String("table", "celebrities"),
		)
	})
	require.Contains(t, line, "db.duration_ms=2")
	require.Contains(t, line, "db.table=celebrities")
	require.Contains(t, line, "event=query")
	require.Contains(t, line, "component=app")
}

func TestStructuredHandlerQuotesAndEmpty(t *testing.T) {
	line := capture(t, formatKV, func(log *slog.Logger) {
		log.Info("x", slog.String("err", "bad thing"), slog.String("empty", "  "))
	})
	require.Contains(t, line, `err="bad thing"`)
	require.NotContains(t, line, "empty=")
}

func TestAsyncWriterErrorsSink(t *testing.T) {
	all, errs := &bytes.Buffer{}, &bytes.Buffer{}
	aw := newAsyncWriter([]sink{{w: all}, {w: errs, warnOnly: true}}, 0)
	require.NoError(t, aw.Write(slog.LevelInfo, []byte("info\n")))
	require.NoError(t, aw.Write(slog.LevelError, []byte("error\n")))
	require.NoError(t, aw.Flush())
	require.NoError(t, aw.Close())

	require.Equal(t, "info\nerror\n", all.String())
	require.Equal(t, "error\n", errs.String())
	require.ErrorIs(t, aw.Write(slog.LevelInfo, []byte("late")), errWriterClosed)
	require.NoError(t, aw.Close())
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	require.Equal(t, []bool{true, false, false, true}, got)

	s.Set(0, 0)
	require.True(t, s.Allow())

	cases := map[string][2]int{"2/10": {2, 10}, "50": {1, 50}, "0": {0, 0}, "x/y": {0, 0}, "": {0, 0}}
	for spec, want := range cases {
		num, den := parseRatioSpec(spec)
		require.Equal(t, want, [2]int{num, den}, spec)
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(context.Background(), "1:2:3"), 1, 3, 2)
	ctx = WithHandler(ctx, "check")
	require.Equal(t, "1:2:3", RIDFrom(ctx))
	require.Equal(t, 1, UpdateIDFrom(ctx))
	require.Equal(t, int64(3), UserIDFrom(ctx))
	require.Equal(t, int64(2), ChatIDFrom(ctx))
	require.Equal(t, "check", HandlerFrom(ctx))
	require.Same(t, L, FromContext(ctx))

	custom := slog.New(slog.DiscardHandler)
	require.Same(t, custom, FromContext(WithLogger(ctx, custom)))
	require.Zero(t, UserIDFrom(context.Background()))
}

func TestRIDAndSanitize(t *testing.T) {
	require.Equal(t, "1:-5:7", BuildRID(1, -5, 7))
	require.Equal(t, "z.-5.10", CompactRID("35:-5:36"))
	require.Equal(t, "a:b", CompactRID(" a:b "))
	require.Equal(t, "ab\tc", Sanitize("a\x00b\tc\u200b"))
	require.Equal(t, "héll", SanitizeLimit("héllo", 4))
	require.Empty(t, SanitizeLimit("x", 0))
}

func TestSettingsFromPicksFormat(t *testing.T) {
	require.Equal(t, formatJSON, settingsFrom(nil).format)

	cases := []struct {
		format, profile string
		want            logFormat
	}{
		{"", "", formatJSON},
		{"json", "dev", formatJSON},
		{"text", "", formatKV},
		{" Pretty ", "", formatKV},
		{"", "debug", formatKV},
	}
	for _, tc := range cases {
		cfg := &coreconfig.Config{Logging: coreconfig.LoggingConfig{Format: tc.format, Profile: tc.profile}}
		require.Equal(t, tc.want, settingsFrom(cfg).format, "%q/%q", tc.format, tc.profile)
	}

	s := settingsFrom(&coreconfig.Config{Logging: coreconfig.LoggingConfig{
		Level:       "warning",
		KeysOrder:   " event, ,ts ",
		DebugSample: "0",
		Stacks:      "true",
	}})
	require.Equal(t, slog.LevelWarn, s.level)
	require.Equal(t, []string{"event", "ts"}, s.keyOrder)
	require.Zero(t, s.sampleDen)
	require.True(t, s.stacks)
	require.Equal(t, "prod", s.profile)
}
