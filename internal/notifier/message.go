package notifier

import (
	"html"
	"strings"
)

// Level selects the marker shown before a message title.
type Level int

const (
	LevelPlain Level = iota
	LevelReport
	LevelDrift
	LevelFailure
)

func (l Level) icon() string {
	switch l {
	case LevelReport:
		return "📊"
	case LevelDrift:
		return "⚠️"
	case LevelFailure:
		return "❌"
	}
	return ""
}

// Message is a notification about scenario runs. Title and Lines are plain
// text; Block is shown preformatted, usually a report summary.
type Message struct {
	Level Level
	Title string
	Lines []string
	Block string
}

// Reply builds a plain message from lines.
func Reply(lines ...string) Message {
	return Message{Lines: lines}
}

// Empty reports whether there is nothing to send.
func (m Message) Empty() bool {
	return m.Title == "" && len(m.Lines) == 0 && m.Block == ""
}

// HTML renders m for Telegram's HTML parse mode.
func (m Message) HTML() string {
	return m.render(func(s string) string { return html.EscapeString(s) }, "<b>", "</b>", "<pre>", "</pre>")
}

// Text renders m without markup.
func (m Message) Text() string {
	return m.render(func(s string) string { return s }, "", "", "", "")
}

func (m Message) render(esc func(string) string, b0, b1, pre0, pre1 string) string {
	var b strings.Builder
	if m.Title != "" {
		if icon := m.Level.icon(); icon != "" {
			b.WriteString(icon + " ")
		}
		b.WriteString(b0 + esc(m.Title) + b1 + "\n")
	}
	for _, line := range m.Lines {
		b.WriteString(esc(line) + "\n")
	}
	if m.Block != "" {
		b.WriteString(pre0 + esc(strings.TrimRight(m.Block, "\n")) + pre1)
	}
	return strings.TrimRight(b.String(), "\n")
}
