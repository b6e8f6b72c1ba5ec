package handlers

import (
	"net/http/httptest"
	"testing"
)

func TestParseRange(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/analytics/summary?from=2026-03-01&to=2026-03-31", nil)
	from, to, err := parseRange(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from.Format("2006-01-02") != "2026-03-01" || to.Format("2006-01-02") != "2026-03-31" {
		t.Fatalf("unexpected range: %s .. %s", from, to)
	}

	r = httptest.NewRequest("GET", "/api/v1/analytics/summary", nil)
	from, to, err = parseRange(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days := int(to.Sub(from).Hours() / 24); days != 29 {
		t.Fatalf("default range should span 30 days, got %d between endpoints", days)
	}

	r = httptest.NewRequest("GET", "/api/v1/analytics/summary?from=2026-03-31&to=2026-03-01", nil)
	if _, _, err := parseRange(r); err == nil {
		t.Fatal("expected error for inverted range")
	}

	r = httptest.NewRequest("GET", "/api/v1/analytics/summary?from=march", nil)
	if _, _, err := parseRange(r); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1250, "12.50"},
		{909, "9.09"},
		{-150, "-1.50"},
	}
	for _, tc := range cases {
		if got := formatCents(tc.cents); got != tc.want {
			t.Fatalf("formatCents(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}
