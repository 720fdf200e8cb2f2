package utils

import "time"

// FormatOrderDate renders a unix timestamp the way order emails display it.
func FormatOrderDate(datetime int64) string {
	t := time.Unix(datetime, 0).UTC()
	return t.Format("02 January 2006, 15:04 MST")
}
