package utils

import (
	"math"
	"testing"
	"time"
)

func TestFormatPKR(t *testing.T) {
	cases := map[int64]string{
		0:       "PKR 0",
		999:     "PKR 999",
		1500:    "PKR 1,500",
		1250000: "PKR 1,250,000",
		-4200:   "-PKR 4,200",
	}
	for in, want := range cases {
		if got := FormatPKR(in); got != want {
			t.Fatalf("FormatPKR(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFareHelpers(t *testing.T) {
	if got, ok := TotalFare(450, 2); !ok || got != 900 {
		t.Fatalf("TotalFare = %d, %v", got, ok)
	}
	if got, ok := TotalFare(450, 0); !ok || got != 450 {
		t.Fatalf("TotalFare with zero seats = %d, %v", got, ok)
	}
	if _, ok := TotalFare(math.MaxInt64/2+1, 2); ok {
		t.Fatalf("TotalFare should refuse an overflowing product")
	}
	if _, ok := TotalFare(-1, 2); ok {
		t.Fatalf("TotalFare should refuse a negative fare")
	}
	a, b := int64(300), int64(400)
	if v, ok := FirstFare(nil, &a, &b); !ok || v != 300 {
		t.Fatalf("FirstFare = %d, %v", v, ok)
	}
	if _, ok := FirstFare(nil, nil); ok {
		t.Fatalf("FirstFare of nils should report false")
	}
}

func TestPerSeatFromTotalRoundsHalfUp(t *testing.T) {
	cases := []struct {
		total int64
		seats int
		want  int64
	}{
		{900, 2, 450},
		{1001, 2, 501},
		{1000, 3, 333},
		{1001, 3, 334},
		{5, 2, 3},
		{0, 2, 0},
	}
	for _, tc := range cases {
		got, ok := PerSeatFromTotal(tc.total, tc.seats)
		if !ok || got != tc.want {
			t.Fatalf("PerSeatFromTotal(%d, %d) = %d, %v, want %d", tc.total, tc.seats, got, ok, tc.want)
		}
	}
	if _, ok := PerSeatFromTotal(100, 0); ok {
		t.Fatalf("zero seats should not split")
	}
	if _, ok := PerSeatFromTotal(-5, 2); ok {
		t.Fatalf("negative total should not split")
	}
}

func TestParseDateTime(t *testing.T) {
	want := time.Date(2026, 10, 20, 8, 30, 0, 0, time.UTC)
	for _, in := range []string{"2026-10-20T08:30:00Z", "2026-10-20T13:30:00+05:00", " 2026-10-20 08:30:00 "} {
		got, err := ParseDateTime(in)
		if err != nil {
			t.Fatalf("ParseDateTime(%q): %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseDateTime(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseDateTime("20/10/2026"); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
	if got := FormatDateTime(want); got != "2026-10-20 08:30:00" {
		t.Fatalf("FormatDateTime = %q", got)
	}
}

func TestStrings(t *testing.T) {
	if got := NormalizeAction(" Driver-Counter "); got != "driver_counter" {
		t.Fatalf("NormalizeAction = %q", got)
	}
	if got := NormalizeSpace("  Lahore   Cantt "); got != "Lahore Cantt" {
		t.Fatalf("NormalizeSpace = %q", got)
	}
	if got := SafeFilenamePart(""); got != "NA" {
		t.Fatalf("SafeFilenamePart empty = %q", got)
	}
	if got := SafeFilenamePart("BK/12:3"); got != "BK_12_3" {
		t.Fatalf("SafeFilenamePart = %q", got)
	}
}
