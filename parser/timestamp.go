package parser

import (
	"regexp"
	"time"
)

// TimestampLayout is the wall-clock layout used by the gateway console and by
// fallback timestamps.
const TimestampLayout = "15:04:05"

// Clock supplies the capture time used for lines without a timestamp.
type Clock func() time.Time

var timestampRe = regexp.MustCompile(`\[(\d{2}:\d{2}:\d{2})\]`)

// ExtractTimestamp returns the bracketed HH:MM:SS token of line verbatim.
// When the line has none it returns fallback and inferred=true.
func ExtractTimestamp(line, fallback string) (ts string, inferred bool) {
	if m := timestampRe.FindStringSubmatch(line); len(m) == 2 {
		return m[1], false
	}
	return fallback, true
}

// Now reads the clock; a nil Clock is time.Now.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func (c Clock) captureTime() string {
	return c.Now().Format(TimestampLayout)
}
