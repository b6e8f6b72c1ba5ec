package schedule

import (
	"testing"
	"time"
)

func iv(t *testing.T, startHM, endHM string) Interval {
	t.Helper()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	start, err := time.Parse("15:04", startHM)
	if err != nil {
		t.Fatalf("bad start %q: %v", startHM, err)
	}
	end, err := time.Parse("15:04", endHM)
	if err != nil {
		t.Fatalf("bad end %q: %v", endHM, err)
	}
	return Interval{
		Start: day.Add(time.Duration(start.Hour())*time.Hour + time.Duration(start.Minute())*time.Minute),
		End:   day.Add(time.Duration(end.Hour())*time.Hour + time.Duration(end.Minute())*time.Minute),
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", iv(t, "10:00", "10:30"), iv(t, "10:00", "10:30"), true},
		{"contained", iv(t, "10:00", "11:00"), iv(t, "10:15", "10:30"), true},
		{"partial", iv(t, "10:00", "10:30"), iv(t, "10:15", "10:45"), true},
		{"adjacent before", iv(t, "10:00", "10:30"), iv(t, "10:30", "11:00"), false},
		{"adjacent after", iv(t, "10:30", "11:00"), iv(t, "10:00", "10:30"), false},
		{"disjoint", iv(t, "09:00", "09:30"), iv(t, "10:00", "10:30"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			// Overlap is symmetric.
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v (symmetry)", tc.b, tc.a, got, tc.want)
			}
		})
	}
}
