// Package commands describes slash commands exposed by the bot.
package commands

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are wrapped with the admin check and never listed.
	AdminOnly bool
	// Hidden commands work but are left out of the Telegram menu.
	Hidden bool
	// Aliases are extra names, with or without the leading slash.
	Aliases []string
}

// Validate reports why a command cannot be registered under name.
func (c Command) Validate(name string) error {
	switch {
	case c.Handler == nil:
		return errors.New("nil handler")
	case strings.TrimSpace(c.Description) == "":
		return errors.New("empty description")
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		return errors.New("name must start with a slash")
	}
	return nil
}

// Listed reports whether the command belongs in the Telegram command menu.
func (c Command) Listed() bool {
	return !c.Hidden && !c.AdminOnly
}

// Normalize lowercases name and adds the leading slash.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}
