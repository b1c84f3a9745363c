package jobx

import (
	"testing"
	"time"
)

func TestIdleBackoffSequence(t *testing.T) {
	b := NewIdleBackoff(100*time.Millisecond, 2*time.Second)

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
		2 * time.Second,
		2 * time.Second,
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Fatalf("poll %d: Next() = %v, want %v", i+1, got, w)
		}
	}
}

func TestIdleBackoffReset(t *testing.T) {
	b := NewIdleBackoff(100*time.Millisecond, 2*time.Second)

	b.Next()
	b.Next()
	b.Next()
	b.Reset()

	if got := b.Next(); got != 100*time.Millisecond {
		t.Fatalf("Next() after Reset() = %v, want 100ms", got)
	}
}

func TestIdleBackoffDefaults(t *testing.T) {
	b := NewIdleBackoff(0, 0)
	if got := b.Next(); got != 100*time.Millisecond {
		t.Fatalf("Next() with zero floor = %v, want 100ms default", got)
	}
	// Ceiling below floor clamps to the floor.
	b = NewIdleBackoff(time.Second, time.Millisecond)
	if got := b.Next(); got != time.Second {
		t.Fatalf("Next() = %v, want 1s", got)
	}
	if got := b.Next(); got != time.Second {
		t.Fatalf("Next() after doubling = %v, want clamped 1s", got)
	}
}
