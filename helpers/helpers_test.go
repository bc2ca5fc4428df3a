package helpers

import (
	"strings"
	"testing"
	"time"

	"ec-console/ledger"
)

func TestShortenID(t *testing.T) {
	full := strings.Repeat("A", 81)
	got := ShortenID(full)
	if got != strings.Repeat("A", 30)+"…" {
		t.Errorf("ShortenID(full) = %q", got)
	}
	if ShortenID("ABC") != "ABC" {
		t.Errorf("short ids must be returned as is")
	}
}

func TestRandomSeed(t *testing.T) {
	seed := RandomSeed()
	if _, err := ledger.ParseID(seed.String()); err != nil {
		t.Fatalf("RandomSeed produced invalid seed: %v", err)
	}
	if RandomSeed() == seed {
		t.Errorf("two consecutive seeds are equal")
	}
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Percent(0.25), "25.0%"},
		{Percent(1), "100.0%"},
		{Trust(2), "2"},
		{Trust(0.5), "0.5"},
		{Trust(1.23456), "1.2346"},
		{LoadedAt(time.Time{}, false), "never"},
		{LoadedAt(time.Now(), true), "loading…"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 3) != 2 || Clamp(-1, 3) != 0 || Clamp(4, 0) != 0 || Clamp(1, 3) != 1 {
		t.Errorf("Clamp misbehaves")
	}
}

func TestQRCode(t *testing.T) {
	if QRCode(strings.Repeat("A", 81)) == "" {
		t.Errorf("QRCode returned nothing")
	}
}

func TestFadeString(t *testing.T) {
	if FadeString("", "#000000", "#FFFFFF") != "" {
		t.Errorf("empty string must stay empty")
	}
	if !strings.Contains(stripANSI(FadeString("ABC", "#7D5AFC", "#FF87D7")), "ABC") {
		t.Errorf("FadeString lost characters")
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	esc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			esc = true
		case esc && r == 'm':
			esc = false
		case !esc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
