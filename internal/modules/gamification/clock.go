package gamification

import "time"

const dayLayout = "2006-01-02"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// dayKey is the UTC calendar day every per-day window is keyed by.
func dayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
