package session

import (
	"regexp"
	"strings"
)

// timestampedChat matches console-style relays such as
// "[12:00:00] [Server] ..." or "[9:41][Player] ...".
var timestampedChat = regexp.MustCompile(`(?i)^\[\d{1,2}:\d{2}(:\d{2})?\]\s*\[(server|player)`)

// IsSystemMessage reports whether a generic server message should be
// shown as a system line. The adapter's message event also carries
// player chat, which is recognised by its formatting and rejected here.
// The patterns are best effort.
func IsSystemMessage(text string) bool {
	t := strings.TrimSpace(text)

	switch {
	case t == "":
		return false
	case strings.HasPrefix(t, "<"):
		return false
	case strings.Contains(t, "»"):
		return false
	case strings.Contains(t, "[Player]"):
		return false
	case timestampedChat.MatchString(t):
		return false
	}

	return true
}
