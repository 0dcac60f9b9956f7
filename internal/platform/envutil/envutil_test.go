package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("DOJO_TEST_INT", "abc")
	if got := Int("DOJO_TEST_INT", 7); got != 7 {
		t.Fatalf("expected default, got %d", got)
	}
	t.Setenv("DOJO_TEST_INT", " 12 ")
	if got := Int("DOJO_TEST_INT", 7); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
}

func TestBoolAndSeconds(t *testing.T) {
	t.Setenv("DOJO_TEST_BOOL", "off")
	if Bool("DOJO_TEST_BOOL", true) {
		t.Fatalf("expected false")
	}
	t.Setenv("DOJO_TEST_SECS", "3")
	if got := Seconds("DOJO_TEST_SECS", time.Minute); got != 3*time.Second {
		t.Fatalf("expected 3s, got %s", got)
	}
	t.Setenv("DOJO_TEST_SECS", "-1")
	if got := Seconds("DOJO_TEST_SECS", time.Minute); got != time.Minute {
		t.Fatalf("expected default, got %s", got)
	}
}
