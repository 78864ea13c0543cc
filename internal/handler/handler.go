// Package handler provides Telegram bot command handlers.
package handler

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"
)

const (
	msgFailed     = "❌ Something went wrong, please try again later"
	msgNoProfile  = "👋 Send /start to create your character first"
	msgBadIndex   = "❌ No entry with that number"
	msgAlreadyHit = "⏰ Already done today"
)

// DisplayName prefers the Telegram username and falls back to the first name.
func DisplayName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// parseIndex converts a 1-based list position into a slice index.
func parseIndex(arg string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(arg), "#"))
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

// reply answers with an optional inline keyboard.
func reply(c tele.Context, msg string, markup *tele.ReplyMarkup) error {
	if markup == nil {
		return c.Reply(msg)
	}
	return c.Reply(msg, markup)
}

// edit replaces the message a callback came from.
func edit(c tele.Context, msg string, markup *tele.ReplyMarkup) error {
	if markup == nil {
		return c.Edit(msg)
	}
	return c.Edit(msg, markup)
}

// toast answers a callback with a short notice.
func toast(c tele.Context, text string, alert bool) error {
	return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: alert})
}

// CallbackData returns callback data without the telebot unique marker.
func CallbackData(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	return strings.TrimPrefix(cb.Data, "\f")
}
