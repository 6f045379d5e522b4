package utils

import (
	"strings"
	"testing"
)

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("TruncateString(short) = %q", got)
	}

	long := strings.Repeat("x", 600)
	got := TruncateString(long, 0)
	if !strings.Contains(got, "(truncated, total: 600 chars)") {
		t.Errorf("truncated string missing diagnostic suffix: %q", got[500:])
	}
	if !strings.HasPrefix(got, strings.Repeat("x", DefaultMaxStringLength)) {
		t.Error("truncated string does not keep the leading content")
	}
}

func TestEllipsize(t *testing.T) {
	if got := Ellipsize("short", 10); got != "short" {
		t.Errorf("Ellipsize(short) = %q", got)
	}
	if got := Ellipsize("abcdef", 3); got != "abc..." {
		t.Errorf("Ellipsize(abcdef, 3) = %q, want abc...", got)
	}
	// Rune-safe: multibyte characters are never split.
	if got := Ellipsize("héllo wörld", 5); got != "héllo..." {
		t.Errorf("Ellipsize multibyte = %q", got)
	}
}
