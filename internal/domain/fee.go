package domain

import "time"

const (
	// GracePeriodMinutes is deducted from every parking interval before
	// billing. It only ever reduces billable time, never below zero.
	GracePeriodMinutes = 10

	// MinimumChargeHours is the floor applied to billable hours: any
	// parking event, however short, is billed at least one hour.
	MinimumChargeHours = 1
)

// CalculateFee prices a parking interval at the given hourly rate.
// Elapsed minutes minus the grace period (floored at zero) are rounded
// up to whole hours, with a one-hour minimum. Pure function; safe to
// call concurrently.
func CalculateFee(hourlyRate int, entry, exit time.Time) (int, error) {
	if exit.Before(entry) {
		return 0, &InvalidIntervalError{
			Entry: entry.Format(time.RFC3339),
			Exit:  exit.Format(time.RFC3339),
		}
	}

	minutes := int64(exit.Sub(entry).Minutes())

	billable := minutes - GracePeriodMinutes
	if billable < 0 {
		billable = 0
	}

	hours := (billable + 59) / 60
	if hours < MinimumChargeHours {
		hours = MinimumChargeHours
	}

	return int(hours) * hourlyRate, nil
}
