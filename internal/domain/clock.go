package domain

import "time"

// Remaining returns how much of the session is left at now, never negative.
func Remaining(s Session, now time.Time) time.Duration {
	d := s.EndsAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Expired reports whether the session has reached its end instant.
func Expired(s Session, now time.Time) bool {
	return Remaining(s, now) == 0
}

// Progress returns the fraction of the session still remaining, in [0, 1].
func Progress(s Session, now time.Time) float64 {
	total := s.EndsAt.Sub(s.StartedAt)
	if total <= 0 {
		return 0
	}
	p := float64(Remaining(s, now)) / float64(total)
	if p > 1 {
		return 1
	}
	return p
}
