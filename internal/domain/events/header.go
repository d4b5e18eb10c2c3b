package events

import (
	"regexp"
	"strings"
)

// Labeled header lines. The labels are part of the stored message text, so
// they also serve as anchors when edits rewrite individual lines.
const (
	LabelType     = "🗡️ **Art:**"
	LabelPurpose  = "🎯 **Zweck:**"
	LabelPlace    = "📍 **Ort:**"
	LabelSchedule = "🕒 **Datum/Zeit:**"
	LabelLevel    = "⚔️ **Levelbereich:**"
	LabelStyle    = "💬 **Stil:**"
	LabelKind     = "🏷️ **Typ:**"
	LabelLead     = "👑 **Gruppenlead:**"
	LabelNote     = "📝 **Anmerkung:**"
)

const headerBanner = "📣 **@here — Neue Gruppensuche!**"

// HeaderInput carries the rendered values for a fresh event header.
type HeaderInput struct {
	Type     string
	Purpose  string
	Place    string
	Schedule string
	Level    string
	Style    string
	Kind     string // optional
	Lead     string // optional
	Note     string // optional
}

// BuildHeader renders the announcement header for a new event.
func BuildHeader(in HeaderInput) string {
	var b strings.Builder
	b.WriteString(headerBanner)
	b.WriteString("\n\n")
	writeLine(&b, LabelType, in.Type)
	writeLine(&b, LabelPurpose, in.Purpose)
	writeLine(&b, LabelPlace, in.Place)
	writeLine(&b, LabelSchedule, in.Schedule)
	writeLine(&b, LabelLevel, in.Level)
	writeLine(&b, LabelStyle, in.Style)
	if in.Kind != "" {
		writeLine(&b, LabelKind, in.Kind)
	}
	if in.Lead != "" {
		writeLine(&b, LabelLead, in.Lead)
	}
	if in.Note != "" {
		writeLine(&b, LabelNote, in.Note)
	}
	return b.String()
}

func writeLine(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(" ")
	b.WriteString(value)
	b.WriteString("\n")
}

var struckPattern = regexp.MustCompile(`~~(.*?)~~\s*→\s*(.*)`)

// CurrentValue extracts the effective value of a labeled header line. A line
// already edited reads `label ~~old~~ → new`; only the new part counts.
func CurrentValue(header, label string) string {
	line, ok := findLine(header, label)
	if !ok {
		return ""
	}
	val := strings.TrimSpace(strings.TrimPrefix(line, label))
	if strings.Contains(val, "~~") && strings.Contains(val, "→") {
		parts := strings.SplitN(val, "→", 2)
		return strings.TrimSpace(parts[1])
	}
	return val
}

// StrikeValue rewrites a labeled line to show the change as
// `label ~~old~~ → new`. Only the most recent change is kept: editing an
// already-struck line strikes its current value, not the original one.
// A missing line is appended.
func StrikeValue(header, label, oldVisible, newValue string) string {
	lineRe := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(label) + ` .*?$`)
	if lineRe.MatchString(header) {
		return lineRe.ReplaceAllStringFunc(header, func(line string) string {
			if m := struckPattern.FindStringSubmatch(line); m != nil {
				current := strings.TrimSpace(m[2])
				return label + " ~~" + current + "~~ → " + newValue
			}
			original := strings.TrimSpace(strings.TrimPrefix(line, label))
			return label + " ~~" + original + "~~ → " + newValue
		})
	}
	if oldVisible == "" {
		oldVisible = "?"
	}
	return strings.TrimRight(header, "\n") + "\n" + label + " ~~" + oldVisible + "~~ → " + newValue
}

// SetNote replaces the annotation line, or appends one if absent. Notes are
// overwritten in place rather than struck through.
func SetNote(header, note string) string {
	lineRe := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(LabelNote) + ` .*$`)
	if lineRe.MatchString(header) {
		return lineRe.ReplaceAllString(header, LabelNote+" "+note)
	}
	if !strings.HasSuffix(header, "\n") {
		header += "\n"
	}
	return header + LabelNote + " " + note + "\n"
}

func findLine(header, label string) (string, bool) {
	for _, line := range strings.Split(header, "\n") {
		if strings.HasPrefix(line, label+" ") {
			return line, true
		}
	}
	return "", false
}
