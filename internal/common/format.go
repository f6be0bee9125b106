package common

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders a byte count in a human-readable unit.
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	f := float64(n)
	i := 0
	for f >= 1024 && i < len(sizeUnits)-1 {
		f /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f %s", f, sizeUnits[i])
}
