package xl

import (
	"math"
	"testing"
	"time"
)

func TestDateSerial(t *testing.T) {
	tests := []struct {
		name               string
		y, mo, d, h, mi, s int
		want               float64
	}{
		{"epoch", 1900, 1, 1, 0, 0, 0, 1},
		{"before phantom day", 1900, 2, 28, 0, 0, 0, 59},
		{"phantom leap day", 1900, 2, 29, 0, 0, 0, 60},
		{"after phantom day", 1900, 3, 1, 0, 0, 0, 61},
		{"end of 1900", 1900, 12, 31, 0, 0, 0, 366},
		{"y2k", 2000, 1, 1, 0, 0, 0, 36526},
		{"leap 2000", 2000, 3, 1, 0, 0, 0, 36586},
		{"new year 2024", 2024, 1, 1, 0, 0, 0, 45292},
		{"report date", 2024, 3, 15, 0, 0, 0, 45366},
		{"noon", 2024, 3, 15, 12, 0, 0, 45366.5},
		{"day zero", 1900, 1, 0, 6, 0, 0, 0.25},
		{"day before epoch", 1899, 12, 31, 18, 0, 0, 0.75},
		{"time only", 0, 0, 0, 12, 0, 0, 0.5},
		{"year too small", 1899, 1, 1, 0, 0, 0, 0},
		{"year too large", 10000, 1, 1, 0, 0, 0, 0},
		{"bad month", 2024, 13, 1, 0, 0, 0, 0},
		{"bad day", 2023, 2, 29, 0, 0, 0, 0},
		{"leap day", 2024, 2, 29, 0, 0, 0, 45351},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DateSerial(tt.y, tt.mo, tt.d, tt.h, tt.mi, tt.s)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("DateSerial(%d-%d-%d %d:%d:%d) = %v, want %v",
					tt.y, tt.mo, tt.d, tt.h, tt.mi, tt.s, got, tt.want)
			}
		})
	}
}

func TestParseDateSerial(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"2024-03-15", 45366},
		{"2024-03-15 18:00:00", 45366.75},
		{"due 2024-01-01", 45292},
		{"06:00:00", 0.25},
		{"not a date", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := ParseDateSerial(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseDateSerial(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTimeSerial(t *testing.T) {
	ts := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	if got := TimeSerial(ts); got != 45366.5 {
		t.Errorf("TimeSerial = %v, want 45366.5", got)
	}
}
