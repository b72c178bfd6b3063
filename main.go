// Program meshlog analyzes a BLE mesh gateway serial log: it extracts sensor
// status reports, relay activity and error lines, prints delivery, latency,
// hop, sensor-quality and relay statistics, and writes the record table and
// charts for offline use.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"meshlog/config"
	"meshlog/export"
	"meshlog/parser"
	"meshlog/plot"
	"meshlog/recorder"
	"meshlog/report"
	"meshlog/stats"
	"meshlog/strutil"
	"meshlog/ui"

	"golang.org/x/term"
)

const (
	envConfigPath = "MESHLOG_CONFIG"

	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// runEnv carries the process surroundings so run can be driven from tests.
type runEnv struct {
	stdout      io.Writer
	stderr      io.Writer
	getenv      func(string) string
	clock       parser.Clock
	interactive bool
}

type cliFlags struct {
	configPath  string
	csvOut      string
	plotOut     string
	jsonOut     string
	sqliteOut   string
	metricsOut  string
	logFile     string
	uiMode      string
	emoji       string
	printConfig bool
}

func main() {
	os.Exit(run(os.Args[1:], runEnv{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		getenv:      os.Getenv,
		clock:       time.Now,
		interactive: isStdoutTTY(),
	}))
}

// Purpose: Report whether stdout is a TTY for emoji and viewer gating.
// Key aspects: Uses term.IsTerminal on stdout fd.
// Upstream: main.
// Downstream: term.IsTerminal.
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Purpose: Run one analysis and return the process exit code.
// Key aspects: Exports never change the exit code; missing sensor data does.
// Upstream: main and tests.
// Downstream: parser, stats, report, export, plot, recorder, ui.
func run(args []string, env runEnv) int {
	fs := flag.NewFlagSet("meshlog", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	var fl cliFlags
	fs.StringVar(&fl.configPath, "config", "", "YAML config file or directory (default $"+envConfigPath+")")
	fs.StringVar(&fl.csvOut, "csv-out", "", "CSV record table path (empty disables)")
	fs.StringVar(&fl.plotOut, "plot-out", "", "PNG chart sheet path (empty disables)")
	fs.StringVar(&fl.jsonOut, "json-out", "", "JSON summary path (empty disables)")
	fs.StringVar(&fl.sqliteOut, "sqlite-out", "", "SQLite snapshot path (empty disables)")
	fs.StringVar(&fl.metricsOut, "metrics-out", "", "Prometheus textfile path (empty disables)")
	fs.StringVar(&fl.logFile, "log-file", "", "append operational log lines to this file")
	fs.StringVar(&fl.uiMode, "ui", "", "report display: text or tview")
	fs.StringVar(&fl.emoji, "emoji", "", "section icons: auto, always or never")
	fs.BoolVar(&fl.printConfig, "print-config", false, "print the effective configuration and exit")
	fs.Usage = func() {
		fmt.Fprintln(env.stderr, "Usage: meshlog [flags] <log_file>")
		fmt.Fprintln(env.stderr, "\nExample: meshlog gateway_log.txt")
		fmt.Fprintln(env.stderr, "\nFlags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := loadConfig(fl.configPath, env.getenv)
	if err != nil {
		fmt.Fprintf(env.stderr, "Error loading config: %v\n", err)
		return exitFailure
	}
	applyFlags(fs, fl, cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(env.stderr, "Invalid option: %v\n", err)
		return exitUsage
	}
	if fl.printConfig {
		cfg.Print(env.stdout)
		return exitOK
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	logPath := fs.Arg(0)

	fanout, err := setupLogging(cfg.Logging, env.stderr)
	log.SetFlags(0)
	log.SetOutput(fanout)
	defer func() {
		log.SetOutput(os.Stderr)
		_ = fanout.Close()
	}()
	if err != nil {
		log.Printf("Warning: file logging disabled: %v", err)
	}
	if cfg.LoadedFrom != "" {
		log.Printf("Loaded configuration from %s", cfg.LoadedFrom)
	}

	emoji := emojiEnabled(cfg.Report.Emoji, env.interactive)
	generated := env.clock.Now()
	opts := report.Options{
		Emoji:       emoji,
		MaxErrors:   cfg.Report.MaxErrors,
		ErrorWidth:  cfg.Report.ErrorWidth,
		Source:      logPath,
		GeneratedAt: generated,
	}
	header := report.Header(opts)
	if err := report.Render(env.stdout, []report.Section{header}, emoji); err != nil {
		log.Printf("Error: write report: %v", err)
		return exitFailure
	}

	log.Printf("Parsing log file: %s", logPath)
	res, err := parser.ParseFile(logPath, env.clock)
	if err != nil {
		log.Printf("Error: %v", err)
		return exitFailure
	}
	log.Printf("Parsed %d sensor messages, %d errors", len(res.Events), len(res.Errors))
	if res.LongLines > 0 {
		log.Printf("Warning: skipped %d overlong lines", res.LongLines)
	}

	sum, err := stats.Compute(res.Events, res.Relays)
	if errors.Is(err, stats.ErrNoSensorData) {
		_ = report.Render(env.stdout, []report.Section{report.NoData(opts)}, emoji)
		return exitFailure
	}
	if err != nil {
		log.Printf("Error: %v", err)
		return exitFailure
	}

	opts.InputBytes = res.Bytes
	opts.InputLines = res.Lines
	opts.Digest = res.Digest
	opts.Outputs = writeOutputs(context.Background(), cfg.Outputs, logPath, generated, res, sum)

	fanout.WriteFileOnlyLine(fmt.Sprintf("run file=%s digest=%016x lines=%d events=%d relays=%d errors=%d",
		logPath, res.Digest, res.Lines, len(res.Events), res.Relays.Total(), len(res.Errors)), time.Now())

	sections := report.Build(sum, res.Errors, opts)
	if cfg.UI.Mode == config.UITview {
		if !env.interactive {
			log.Printf("UI disabled (tview requires an interactive console)")
		} else if err := showViewer(fanout, cfg.Logging.Timestamps, env.stderr, header, sections, emoji); err != nil {
			log.Printf("Warning: viewer failed: %v", err)
		} else {
			return exitOK
		}
	}
	if err := report.Render(env.stdout, sections, emoji); err != nil {
		log.Printf("Error: write report: %v", err)
		return exitFailure
	}
	return exitOK
}

// Purpose: Resolve the configuration source.
// Key aspects: Flag path wins over the environment; no path means defaults.
// Upstream: run.
// Downstream: config.Load.
func loadConfig(flagPath string, getenv func(string) string) (*config.Config, error) {
	path := strings.TrimSpace(flagPath)
	if path == "" && getenv != nil {
		path = strings.TrimSpace(getenv(envConfigPath))
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// applyFlags copies explicitly set flags over the config. Setting an output
// flag to the empty string disables that output.
func applyFlags(fs *flag.FlagSet, fl cliFlags, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "csv-out":
			cfg.Outputs.CSV = strings.TrimSpace(fl.csvOut)
		case "plot-out":
			cfg.Outputs.Plot = strings.TrimSpace(fl.plotOut)
		case "json-out":
			cfg.Outputs.JSON = strings.TrimSpace(fl.jsonOut)
		case "sqlite-out":
			cfg.Outputs.SQLite = strings.TrimSpace(fl.sqliteOut)
		case "metrics-out":
			cfg.Outputs.Metrics = strings.TrimSpace(fl.metricsOut)
		case "log-file":
			cfg.Logging.File = strings.TrimSpace(fl.logFile)
		case "ui":
			cfg.UI.Mode = strutil.NormalizeLower(fl.uiMode)
		case "emoji":
			cfg.Report.Emoji = strutil.NormalizeLower(fl.emoji)
		}
	})
}

func emojiEnabled(mode string, interactive bool) bool {
	switch mode {
	case config.EmojiAlways:
		return true
	case config.EmojiNever:
		return false
	default:
		return interactive
	}
}

// Purpose: Write every configured output file.
// Key aspects: Failures are logged as warnings and skipped.
// Upstream: run after statistics are computed.
// Downstream: export, plot, recorder.
func writeOutputs(ctx context.Context, outs config.OutputsConfig, logPath string, generated time.Time, res parser.Result, sum stats.Summary) []string {
	var written []string
	if outs.CSV != "" {
		if err := export.WriteCSVFile(outs.CSV, res.Events); err != nil {
			log.Printf("Warning: could not export CSV: %v", err)
		} else {
			log.Printf("Data exported to: %s", outs.CSV)
			written = append(written, outs.CSV+" (raw data)")
		}
	}
	if outs.Plot != "" {
		if err := plot.WriteFile(outs.Plot, res.Events, sum.Hops); err != nil {
			log.Printf("Warning: could not generate plots: %v", err)
		} else {
			log.Printf("Plot saved to: %s", outs.Plot)
			written = append(written, outs.Plot+" (visualizations)")
		}
	}
	if outs.JSON != "" {
		if err := export.WriteSummaryFile(outs.JSON, export.NewSummary(logPath, generated, res, sum)); err != nil {
			log.Printf("Warning: could not write JSON summary: %v", err)
		} else {
			log.Printf("Summary written to: %s", outs.JSON)
			written = append(written, outs.JSON+" (summary)")
		}
	}
	if outs.SQLite != "" {
		if err := recorder.WriteSnapshot(ctx, outs.SQLite, res); err != nil {
			log.Printf("Warning: could not write SQLite snapshot: %v", err)
		} else {
			log.Printf("Records stored in: %s", outs.SQLite)
			written = append(written, outs.SQLite+" (sqlite)")
		}
	}
	if outs.Metrics != "" {
		metrics := export.NewRunMetrics()
		metrics.Observe(res, sum)
		if err := metrics.WriteFile(outs.Metrics); err != nil {
			log.Printf("Warning: could not write metrics: %v", err)
		} else {
			log.Printf("Metrics written to: %s", outs.Metrics)
			written = append(written, outs.Metrics+" (metrics)")
		}
	}
	return written
}

// Purpose: Show the report in the interactive viewer.
// Key aspects: Console logging is paused while tview owns the screen.
// Upstream: run when ui.mode is tview on a TTY.
// Downstream: ui.NewViewer.
func showViewer(fanout *logFanout, timestamps bool, console io.Writer, header report.Section, sections []report.Section, emoji bool) error {
	fanout.SetConsoleSink(nil, false)
	defer fanout.SetConsoleSink(console, timestamps)
	all := append([]report.Section{header}, sections...)
	return ui.NewViewer(all, emoji).Run()
}
