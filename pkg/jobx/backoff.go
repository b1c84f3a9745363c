package jobx

import "time"

// IdleBackoff is the sleep applied between polls when the broker is empty.
// It starts at a floor, doubles after each consecutive empty poll, caps at a
// ceiling, and resets to the floor on the next non-empty poll. Not safe for
// concurrent use; each worker loop owns one instance.
type IdleBackoff struct {
	floor   time.Duration
	ceiling time.Duration
	current time.Duration
}

// NewIdleBackoff creates an idle backoff with the given floor and ceiling.
func NewIdleBackoff(floor, ceiling time.Duration) *IdleBackoff {
	if floor <= 0 {
		floor = 100 * time.Millisecond
	}
	if ceiling < floor {
		ceiling = floor
	}
	return &IdleBackoff{floor: floor, ceiling: ceiling, current: floor}
}

// Next returns the sleep for this empty poll and advances the sequence.
func (b *IdleBackoff) Next() time.Duration {
	d := b.current
	b.current *= 2
	if b.current > b.ceiling {
		b.current = b.ceiling
	}
	return d
}

// Reset returns the sequence to the floor after a non-empty poll.
func (b *IdleBackoff) Reset() {
	b.current = b.floor
}
