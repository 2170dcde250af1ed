package utils

import (
	"testing"
	"time"
)

func TestUTCISOFrom(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{
			name:     "already UTC",
			input:    time.Date(2026, 1, 15, 14, 30, 45, 0, time.UTC),
			expected: "2026-01-15T14:30:45Z",
		},
		{
			name:     "non-UTC converted",
			input:    time.Date(2026, 1, 15, 14, 30, 45, 0, time.FixedZone("UTC+3", 3*3600)),
			expected: "2026-01-15T11:30:45Z",
		},
		{
			name:     "sub-second precision dropped",
			input:    time.Date(2026, 1, 15, 14, 30, 45, 987654321, time.UTC),
			expected: "2026-01-15T14:30:45Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := UTCISOFrom(tt.input)
			if result != tt.expected {
				t.Errorf("UTCISOFrom(%v) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNowUTCISO(t *testing.T) {
	result := NowUTCISO()

	parsed, err := time.Parse(ISOLayout, result)
	if err != nil {
		t.Fatalf("NowUTCISO() = %q, not parseable as %q: %v", result, ISOLayout, err)
	}

	if d := time.Since(parsed); d < -2*time.Second || d > 2*time.Second {
		t.Errorf("NowUTCISO() = %q, too far from now", result)
	}
}

func TestRemainingSleep(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		elapsed  time.Duration
		expected time.Duration
	}{
		{"fast tick", 3 * time.Second, 1 * time.Second, 2 * time.Second},
		{"slow tick clamped to zero", 3 * time.Second, 5 * time.Second, 0},
		{"exact interval", 3 * time.Second, 3 * time.Second, 0},
		{"instant tick", 3 * time.Second, 0, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RemainingSleep(tt.interval, tt.elapsed)
			if result != tt.expected {
				t.Errorf("RemainingSleep(%v, %v) = %v, want %v", tt.interval, tt.elapsed, result, tt.expected)
			}
		})
	}
}

func TestUnixMillisRoundTrip(t *testing.T) {
	ms := UnixMillis()
	back := FromUnixMillis(ms)

	if back.Location() != time.UTC {
		t.Error("FromUnixMillis should return UTC time")
	}
	if back.UnixMilli() != ms {
		t.Errorf("round trip mismatch: %d != %d", back.UnixMilli(), ms)
	}
}
