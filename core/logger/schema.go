package logger

import "strings"

// LevelFatal is accepted in level names for compatibility with other tooling.
const LevelFatal = "FATAL"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
	"fatal":   LevelFatal,
}

// Known status values pass through lowercased; others are kept as given.
var knownStatus = set("ok", "fail", "skip", "retry", "rate_limited", "cancelled")

// Outcomes outside this set are dropped from the line.
var knownOutcome = set(
	"ok", "fail", "cancelled", "rate_limited",
	// round outcomes
	"started", "render_failed", "correct", "wrong", "ignored", "revealed", "no_round",
)

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if name, ok := levelNames[strings.ToLower(level)]; ok {
		return name
	}
	return strings.ToUpper(level)
}

func normalizeStatus(status string) string {
	lower := strings.ToLower(strings.TrimSpace(status))
	if _, ok := knownStatus[lower]; ok {
		return lower
	}
	return status
}

func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	_, ok := knownOutcome[outcome]
	return outcome, ok
}

// defaultKeyOrder fixes the leading keys of every line; the rest follow sorted.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type", "handler",
	"round_id", "outcome", "removed", "cb_key",
	"duration_ms", "render_duration_ms", "round_duration_ms",
	"messages", "photos", "kb", "payload", "lang", "username",
	"mode", "listen", "public_url", "http_code",
	"catalog_source", "celebrities", "font",
	"db", "host", "port",
	"err", "err_code", "cause", "retryable", "attempts", "backoff_ms", "rate_limited",
}
