package report

import (
	"io"
	"strings"
)

const ruleWidth = 60

// Text renders the section as it appears on the console: a ruled title
// followed by the body lines.
func (s Section) Text(emoji bool) string {
	var b strings.Builder
	rule := strings.Repeat("=", ruleWidth)
	if s.Title != "" {
		b.WriteString(rule)
		b.WriteByte('\n')
		if emoji && s.Icon != "" {
			b.WriteString(s.Icon)
			b.WriteByte(' ')
		}
		b.WriteString(s.Title)
		b.WriteByte('\n')
		b.WriteString(rule)
		b.WriteByte('\n')
	}
	for _, line := range s.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Render writes sections separated by blank lines.
func Render(w io.Writer, sections []Section, emoji bool) error {
	for _, s := range sections {
		if _, err := io.WriteString(w, "\n"+s.Text(emoji)); err != nil {
			return err
		}
	}
	return nil
}
