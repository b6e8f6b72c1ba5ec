package handlers

import "testing"

func TestPriceCents(t *testing.T) {
	cases := []struct {
		price string
		want  int64
		ok    bool
	}{
		{"0", 0, true},
		{"12", 1200, true},
		{"12.5", 1250, true},
		{"12.50", 1250, true},
		{"9.99", 999, true},
		{"9.999", 999, true},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := priceCents(tc.price)
		if tc.ok && err != nil {
			t.Fatalf("priceCents(%q) unexpected error: %v", tc.price, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("priceCents(%q) expected error", tc.price)
			}
			continue
		}
		if got != tc.want {
			t.Fatalf("priceCents(%q) = %d, want %d", tc.price, got, tc.want)
		}
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
		{100, "1.00"},
	}
	for _, tc := range cases {
		if got := formatCents(tc.cents); got != tc.want {
			t.Fatalf("formatCents(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestPriceRoundTrip(t *testing.T) {
	for _, price := range []string{"0.00", "0.05", "12.50", "199.99"} {
		cents, err := priceCents(price)
		if err != nil {
			t.Fatalf("priceCents(%q) failed: %v", price, err)
		}
		if got := formatCents(cents); got != price {
			t.Fatalf("round trip %q -> %d -> %q", price, cents, got)
		}
	}
}
