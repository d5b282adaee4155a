package routing

import "fmt"

// FormatDuration renders seconds as "N sec", "M min" or "M min S sec".
// Fractional seconds are truncated.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	if total < 60 {
		return fmt.Sprintf("%d sec", total)
	}
	minutes, remaining := total/60, total%60
	if remaining == 0 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d min %d sec", minutes, remaining)
}
