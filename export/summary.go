package export

import (
	"fmt"
	"os"
	"time"

	"meshlog/mesh"
	"meshlog/parser"
	"meshlog/stats"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Summary is the JSON document written for one analysis run.
type Summary struct {
	GeneratedAt  string             `json:"generated_at"`
	LogFile      string             `json:"log_file"`
	InputDigest  string             `json:"input_digest"`
	InputLines   int                `json:"input_lines"`
	InputBytes   int64              `json:"input_bytes"`
	LongLines    int                `json:"long_lines_skipped"`
	CaptureTime  string             `json:"capture_time"`
	Stats        stats.Summary      `json:"stats"`
	RelayTally   map[string]int     `json:"relay_tally"`
	ErrorCount   int                `json:"error_count"`
	Errors       []mesh.ErrorRecord `json:"errors"`
	InferredTime int                `json:"events_without_timestamp"`
}

// NewSummary gathers the parse result and its statistics into a Summary.
func NewSummary(logFile string, generated time.Time, res parser.Result, sum stats.Summary) Summary {
	inferred := 0
	for _, ev := range res.Events {
		if ev.TimestampInferred {
			inferred++
		}
	}
	errs := res.Errors
	if errs == nil {
		errs = []mesh.ErrorRecord{}
	}
	return Summary{
		GeneratedAt:  generated.UTC().Format(time.RFC3339),
		LogFile:      logFile,
		InputDigest:  fmt.Sprintf("%016x", res.Digest),
		InputLines:   res.Lines,
		InputBytes:   res.Bytes,
		LongLines:    res.LongLines,
		CaptureTime:  res.CaptureTime,
		Stats:        sum,
		RelayTally:   res.Relays.Snapshot(),
		ErrorCount:   len(errs),
		Errors:       errs,
		InferredTime: inferred,
	}
}

// MarshalSummary renders s as indented JSON.
func MarshalSummary(s Summary) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// WriteSummaryFile writes s to path, creating the directory when needed.
func WriteSummaryFile(path string, s Summary) error {
	data, err := MarshalSummary(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
