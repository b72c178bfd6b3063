package ui

import (
	"context"
	"testing"
	"time"
)

func TestSearchFilterDebounce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	filter := NewSearchFilter(ctx)
	filter.SetQuery("0x00AB", nil)
	if got := filter.ActiveQuery(); got != "" {
		t.Fatalf("expected query to wait for debounce, got %q", got)
	}
	time.Sleep(300 * time.Millisecond)
	if got := filter.ActiveQuery(); got != "0x00ab" {
		t.Fatalf("expected active query '0x00ab', got %q", got)
	}
	filter.Clear()
	if got := filter.ActiveQuery(); got != "" {
		t.Fatalf("expected cleared query, got %q", got)
	}
}

func TestSearchFilterCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	filter := NewSearchFilter(ctx)
	filter.SetQuery("relay", nil)
	time.Sleep(300 * time.Millisecond)
	if got := filter.ActiveQuery(); got != "" {
		t.Fatalf("expected no activation after cancel, got %q", got)
	}
}

func TestFilterLines(t *testing.T) {
	text := "Total messages relayed: 4\n\n    0x0034:   3 messages\n    0x0012:   1 messages\n"
	if got := filterLines(text, ""); got != text {
		t.Fatalf("empty query should keep text, got %q", got)
	}
	if got := filterLines(text, "0x0034"); got != "    0x0034:   3 messages\n" {
		t.Fatalf("unexpected filter result %q", got)
	}
	if got := filterLines(text, "total"); got != "Total messages relayed: 4\n" {
		t.Fatalf("expected case-insensitive match, got %q", got)
	}
	if got := filterLines(text, "0x9999"); got != "(no lines match \"0x9999\")\n" {
		t.Fatalf("unexpected no-match text %q", got)
	}
}
