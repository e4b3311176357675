package cache

import (
	"testing"
	"time"
)

func TestPolicy_Directive_NoCeiling(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	nextUpdate := now.Add(24 * time.Hour)

	p := Policy{}
	got := p.Directive(now, nextUpdate)
	want := "max-age=86400,public,no-transform,must-revalidate"
	if got != want {
		t.Errorf("Directive() = %q, want %q", got, want)
	}
}

func TestPolicy_Directive_CeilingBelowWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	nextUpdate := now.Add(24 * time.Hour)
	ceiling := 3600

	p := Policy{MaxAge: &ceiling}
	got := p.Directive(now, nextUpdate)
	want := "max-age=3600,public,no-transform,must-revalidate"
	if got != want {
		t.Errorf("Directive() = %q, want %q", got, want)
	}
}

func TestPolicy_Directive_CeilingAboveWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	nextUpdate := now.Add(1 * time.Hour)
	ceiling := 999999

	p := Policy{MaxAge: &ceiling}
	got := p.Directive(now, nextUpdate)
	want := "max-age=3600,public,no-transform,must-revalidate"
	if got != want {
		t.Errorf("Directive() = %q, want %q", got, want)
	}
}

func TestPolicy_Directive_NegativeWindowClampsToZero(t *testing.T) {
	now := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
	nextUpdate := now.Add(-1 * time.Hour) // already stale

	p := Policy{}
	got := p.Directive(now, nextUpdate)
	want := "max-age=0,public,no-transform,must-revalidate"
	if got != want {
		t.Errorf("Directive() = %q, want %q", got, want)
	}
}

func TestLogIfStale_DoesNotPanicOnFreshOrStale(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	LogIfStale(now, now.Add(time.Hour), "serial=01 issuerKeyHash=AB")
	LogIfStale(now, now.Add(-time.Hour), "serial=01 issuerKeyHash=AB")
}
