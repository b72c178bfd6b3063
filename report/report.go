// Package report turns computed mesh statistics into titled text sections.
package report

import (
	"fmt"
	"strings"
	"time"

	"meshlog/mesh"
	"meshlog/stats"
	"meshlog/strutil"

	"github.com/dustin/go-humanize"
)

// Section is one titled block of the report.
type Section struct {
	Key   string
	Icon  string
	Title string
	Lines []string
}

// Options carries run details and display limits.
type Options struct {
	Emoji       bool
	MaxErrors   int
	ErrorWidth  int
	Source      string
	InputBytes  int64
	InputLines  int
	Digest      uint64
	GeneratedAt time.Time
	// Outputs lists files written by the run, shown in the closing section.
	Outputs []string
}

// Bar renders percent as floor(percent/2) block characters.
func Bar(percent float64) string {
	n := int(percent / 2)
	if n <= 0 {
		return ""
	}
	return strings.Repeat("█", n)
}

// Header is the banner shown before parsing starts.
func Header(opts Options) Section {
	lines := []string{"File: " + opts.Source}
	if !opts.GeneratedAt.IsZero() {
		lines = append(lines, "Date: "+opts.GeneratedAt.Format("2006-01-02 15:04:05"))
	}
	return Section{Key: "header", Icon: "🔍", Title: "BLE MESH NETWORK LOG ANALYZER", Lines: lines}
}

// NoData is shown instead of the analysis when the log had no sensor events.
func NoData(opts Options) Section {
	return Section{
		Key:  "nodata",
		Icon: "❌",
		Lines: []string{
			mark(opts.Emoji, "❌") + "No sensor data found in log file!",
			"Make sure the log contains 'Sensor Status received' messages.",
		},
	}
}

// Build assembles every analysis section in display order.
func Build(sum stats.Summary, errs []mesh.ErrorRecord, opts Options) []Section {
	return []Section{
		inputSection(sum, errs, opts),
		deliverySection(sum),
		latencySection(sum, opts),
		hopSection(sum),
		sensorSection(sum, opts),
		relaySection(sum),
		errorSection(errs, opts),
		summarySection(sum, errs, opts),
	}
}

func inputSection(sum stats.Summary, errs []mesh.ErrorRecord, opts Options) Section {
	lines := []string{
		fmt.Sprintf("Lines scanned:    %s (%s)", humanize.Comma(int64(opts.InputLines)), humanize.Bytes(uint64(opts.InputBytes))),
		fmt.Sprintf("Sensor messages:  %s", humanize.Comma(int64(sum.Messages))),
		fmt.Sprintf("Errors:           %s", humanize.Comma(int64(len(errs)))),
	}
	if opts.Digest != 0 {
		lines = append(lines, fmt.Sprintf("Input digest:     %016x", opts.Digest))
	}
	if sum.Duplicates > 0 {
		lines = append(lines, fmt.Sprintf("Repeated reports: %s", humanize.Comma(int64(sum.Duplicates))))
	}
	return Section{Key: "input", Icon: "📖", Title: "INPUT", Lines: lines}
}

func deliverySection(sum stats.Summary) Section {
	var lines []string
	for _, d := range sum.Delivery {
		lines = append(lines, "", d.Node+":")
		lines = append(lines, fmt.Sprintf("  Messages received: %s", humanize.Comma(int64(d.Messages))))
		if d.HasInterval {
			lines = append(lines, fmt.Sprintf("  Average interval: %.1f minutes", d.AvgIntervalMin))
		}
	}
	return Section{Key: "delivery", Icon: "📊", Title: "MESSAGE DELIVERY ANALYSIS", Lines: lines}
}

func latencySection(sum stats.Summary, opts Options) Section {
	l := sum.Latency
	lines := []string{
		"",
		mark(opts.Emoji, "📈") + "Overall Statistics:",
		fmt.Sprintf("  Average delay: %.2f ms", l.MeanMS),
		fmt.Sprintf("  Median delay:  %.2f ms", l.MedianMS),
		fmt.Sprintf("  Min delay:     %d ms", l.MinMS),
		fmt.Sprintf("  Max delay:     %d ms", l.MaxMS),
		fmt.Sprintf("  Std deviation: %.2f ms", l.StdDevMS),
		"",
		mark(opts.Emoji, "📊") + "Latency by Hop Count:",
	}
	for _, g := range l.ByHops {
		lines = append(lines, fmt.Sprintf("  %d hop(s): %.2f ms (n=%d)", g.Hops, g.MeanMS, g.Samples))
	}
	return Section{Key: "latency", Icon: "⏱️", Title: "NETWORK LATENCY ANALYSIS", Lines: lines}
}

func hopSection(sum stats.Summary) Section {
	var lines []string
	for _, b := range sum.Hops.Buckets {
		lines = append(lines, fmt.Sprintf("  %d hop(s): %3s messages (%5.1f%%) %s",
			b.Hops, humanize.Comma(int64(b.Count)), b.Percent, Bar(b.Percent)))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("  Average hops: %.2f", sum.Hops.Mean),
		fmt.Sprintf("  Max hops:     %d", sum.Hops.Max),
	)
	return Section{Key: "hops", Icon: "🔗", Title: "HOP COUNT DISTRIBUTION", Lines: lines}
}

func sensorSection(sum stats.Summary, opts Options) Section {
	t := sum.Readings.Temperature
	h := sum.Readings.Humidity
	q := sum.Quality
	lines := []string{
		"",
		mark(opts.Emoji, "📊") + "Temperature:",
		fmt.Sprintf("  Average: %.2f°C", t.Mean),
		fmt.Sprintf("  Min:     %.2f°C", t.Min),
		fmt.Sprintf("  Max:     %.2f°C", t.Max),
		fmt.Sprintf("  Range:   %.2f°C", t.Span),
		"",
		mark(opts.Emoji, "💧") + "Humidity:",
		fmt.Sprintf("  Average: %.2f%%", h.Mean),
		fmt.Sprintf("  Min:     %.2f%%", h.Min),
		fmt.Sprintf("  Max:     %.2f%%", h.Max),
		fmt.Sprintf("  Range:   %.2f%%", h.Span),
		"",
		mark(opts.Emoji, "🌿") + fmt.Sprintf("Basil Growth Conditions (%.0f-%.0f°C, %.0f-%.0f%%):",
			stats.TempMinC, stats.TempMaxC, stats.HumidityMinPct, stats.HumidityMaxPct),
		fmt.Sprintf("  Temperature optimal: %.1f%% of time", q.TemperatureOK*100),
		fmt.Sprintf("  Humidity optimal:    %.1f%% of time", q.HumidityOK*100),
		fmt.Sprintf("  Both optimal:        %.1f%% of time", q.BothOK*100),
	}
	return Section{Key: "sensor", Icon: "🌡️", Title: "SENSOR DATA ANALYSIS", Lines: lines}
}

func relaySection(sum stats.Summary) Section {
	s := Section{Key: "relay", Icon: "🔄", Title: "RELAY NODE EFFICIENCY"}
	r := sum.Relays
	if len(r.Nodes) == 0 {
		s.Lines = []string{"  No relay statistics found"}
		return s
	}
	s.Lines = []string{
		"",
		"  Total messages relayed: " + humanize.Comma(int64(r.Total)),
		"",
		"  By node:",
	}
	for _, n := range r.Nodes {
		s.Lines = append(s.Lines, fmt.Sprintf("    %s: %3s messages (%5.1f%%) %s",
			n.Node, humanize.Comma(int64(n.Count)), n.Percent, Bar(n.Percent)))
	}
	return s
}

func errorSection(errs []mesh.ErrorRecord, opts Options) Section {
	s := Section{Key: "errors", Icon: "❌", Title: "ERRORS AND WARNINGS"}
	if len(errs) == 0 {
		s.Lines = []string{"  " + mark(opts.Emoji, "✅") + "No errors found!"}
		return s
	}
	s.Lines = []string{"", fmt.Sprintf("  Found %s error(s):", humanize.Comma(int64(len(errs))))}
	shown := errs
	if len(shown) > opts.MaxErrors {
		shown = shown[:opts.MaxErrors]
	}
	for _, e := range shown {
		s.Lines = append(s.Lines, fmt.Sprintf("    Line %d: %s", e.Line, strutil.TruncateRunes(e.Message, opts.ErrorWidth)))
	}
	if rest := len(errs) - len(shown); rest > 0 {
		s.Lines = append(s.Lines, fmt.Sprintf("    ... and %s more", humanize.Comma(int64(rest))))
	}
	return s
}

func summarySection(sum stats.Summary, errs []mesh.ErrorRecord, opts Options) Section {
	lines := []string{
		"",
		"Summary:",
		"  Total messages analyzed: " + humanize.Comma(int64(sum.Messages)),
		fmt.Sprintf("  Average latency: %.2f ms", sum.Latency.MeanMS),
		fmt.Sprintf("  Average hops: %.2f", sum.Hops.Mean),
		"  Errors found: " + humanize.Comma(int64(len(errs))),
	}
	if len(opts.Outputs) > 0 {
		lines = append(lines, "", mark(opts.Emoji, "📁")+"Outputs:")
		for _, out := range opts.Outputs {
			lines = append(lines, "  - "+out)
		}
	}
	return Section{Key: "summary", Icon: "✅", Title: "ANALYSIS COMPLETE", Lines: lines}
}

func mark(emoji bool, icon string) string {
	if !emoji {
		return ""
	}
	return icon + " "
}
