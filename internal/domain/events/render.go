package events

import (
	"strconv"
	"strings"
)

// Mention renders a Discord user mention. Discord resolves the markup
// client-side, so no member lookup is needed.
func Mention(userID int64) string {
	return "<@" + strconv.FormatInt(userID, 10) + ">"
}

// Roster renders the signup overview appended below the event header.
func (e *Event) Roster() string {
	var b strings.Builder
	b.WriteString("**📋 Eventübersicht:**\n")
	for _, slot := range e.Slots {
		b.WriteString("\n")
		b.WriteString(slot.Emoji)
		b.WriteString(" (")
		b.WriteString(strconv.Itoa(len(slot.Main)))
		b.WriteString("/")
		b.WriteString(strconv.Itoa(slot.Limit))
		b.WriteString("): ")
		b.WriteString(mentionList(slot.Main))
		if len(slot.Waitlist) > 0 {
			b.WriteString("\n   ⏳ Warteliste: ")
			b.WriteString(mentionList(slot.Waitlist))
		}
	}
	return b.String()
}

// Content is the full anchor message body: header, blank line, roster.
func (e *Event) Content() string {
	return e.Header + "\n\n" + e.Roster()
}

func mentionList(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = Mention(id)
	}
	return strings.Join(parts, ", ")
}
