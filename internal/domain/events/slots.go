package events

import (
	"regexp"
	"strconv"
	"strings"
)

// slotPattern matches one slot declaration: a custom emoji tag or a bare
// token, a colon, and a capacity, e.g. `⚔️:3` or `<:tank:123456789>:1`.
var slotPattern = regexp.MustCompile(`(<a?:\w+:\d+>|[^\s:]+)\s*:\s*(\d+)`)

var customEmojiPattern = regexp.MustCompile(`^<a?:\w+:\d+>$`)

// IsCustomEmoji reports whether the emoji is a guild custom emoji tag.
func IsCustomEmoji(emoji string) bool {
	return customEmojiPattern.MatchString(emoji)
}

// ParseSlots parses a slot specification string. A duplicate emoji replaces
// the earlier capacity but keeps its original position, so editing a spec
// never reorders the roster.
func ParseSlots(spec string) ([]*Slot, error) {
	matches := slotPattern.FindAllStringSubmatch(spec, -1)
	if len(matches) == 0 {
		return nil, ErrNoSlots
	}

	var slots []*Slot
	index := make(map[string]*Slot)
	for _, m := range matches {
		emoji := strings.TrimSpace(m[1])
		limit, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, err
		}
		if existing, ok := index[emoji]; ok {
			existing.Limit = limit
			existing.Main = nil
			existing.Waitlist = nil
			existing.Reminded = nil
			continue
		}
		slot := &Slot{Emoji: emoji, Limit: limit}
		index[emoji] = slot
		slots = append(slots, slot)
	}
	return slots, nil
}

// ValidateSlots checks that every custom emoji in the slots exists in the
// guild. The first unknown emoji is returned.
func ValidateSlots(slots []*Slot, guildEmoji []string) (string, bool) {
	known := make(map[string]bool, len(guildEmoji))
	for _, e := range guildEmoji {
		known[e] = true
	}
	for _, s := range slots {
		if IsCustomEmoji(s.Emoji) && !known[s.Emoji] {
			return s.Emoji, false
		}
	}
	return "", true
}
