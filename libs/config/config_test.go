package config

import (
	"testing"
	"time"
)

func TestPort(t *testing.T) {
	t.Setenv("TEST_PORT", "8083")
	if p, err := Port("TEST_PORT", "8080"); err != nil || p != "8083" {
		t.Fatalf("Port = %q, %v", p, err)
	}

	t.Setenv("TEST_PORT", "not-a-port")
	if _, err := Port("TEST_PORT", "8080"); err == nil {
		t.Fatal("expected error for non-numeric port")
	}

	t.Setenv("TEST_PORT", "70000")
	if _, err := Port("TEST_PORT", "8080"); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestMinutes(t *testing.T) {
	t.Setenv("TEST_MINUTES", "")
	if d, err := Minutes("TEST_MINUTES", 15); err != nil || d != 15*time.Minute {
		t.Fatalf("Minutes fallback = %v, %v", d, err)
	}

	t.Setenv("TEST_MINUTES", "30")
	if d, err := Minutes("TEST_MINUTES", 15); err != nil || d != 30*time.Minute {
		t.Fatalf("Minutes = %v, %v", d, err)
	}

	for _, bad := range []string{"0", "-5", "1441", "soon"} {
		t.Setenv("TEST_MINUTES", bad)
		if _, err := Minutes("TEST_MINUTES", 15); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
