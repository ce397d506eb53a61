package decode

import (
	"strings"
	"testing"
)

func TestParseRational(t *testing.T) {
	cases := map[string]float64{
		"30/1":       30,
		"30000/1001": 29.97002997002997,
		"25":         25,
		"0/0":        0,
		"garbage":    0,
	}
	for in, want := range cases {
		if got := parseRational(in); got != want {
			t.Errorf("parseRational(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseBannerDuration(t *testing.T) {
	out := `Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'chunk.mp4':
  Duration: 00:01:02.50, start: 0.000000, bitrate: 1234 kb/s`
	d, err := parseBannerDuration(out)
	if err != nil {
		t.Fatalf("parseBannerDuration: %v", err)
	}
	if d != 62.5 {
		t.Errorf("duration = %v, want 62.5", d)
	}

	if _, err := parseBannerDuration("no duration here"); err == nil {
		t.Error("expected error for missing duration")
	}
	if _, err := parseBannerDuration("Duration: bogus"); err == nil {
		t.Error("expected error for malformed duration")
	}
}

func TestStderrTail(t *testing.T) {
	if got := stderrTail("  short  "); got != "short" {
		t.Errorf("stderrTail = %q", got)
	}

	long := strings.Repeat("x", 1000)
	got := stderrTail(long)
	if len(got) != 303 || !strings.HasPrefix(got, "...") {
		t.Errorf("tail length = %d, prefix = %q", len(got), got[:3])
	}
}
