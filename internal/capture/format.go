package capture

import "fmt"

// FormatTime renders a second count as m:ss for display and stored durations.
// Zero and negative values render as "0:00".
func FormatTime(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
