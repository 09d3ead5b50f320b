package domain

// millisPerHour is kept as a float so fractional intervals (0.01h for the
// sub-minute demo cadence) compare at full precision.
const millisPerHour = 3_600_000.0

// Due reports whether a task needs a reminder at the given instant
// (epoch milliseconds). A pending task that never received a reminder is
// due immediately; otherwise the configured interval must have fully
// elapsed, with the exact boundary counting as due.
func Due(t Task, now int64) bool {
	if t.Status != StatusPending {
		return false
	}
	if t.LastReminderAt == nil {
		return true
	}
	return float64(now-*t.LastReminderAt) >= t.IntervalHours*millisPerHour
}
