package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatPercentage formats a value already scaled to 0-100
func FormatPercentage(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

// FormatBytes formats bytes into human readable format
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatRate formats a bytes-per-second throughput
func FormatRate(bytesPerSec float64) string {
	if math.IsNaN(bytesPerSec) || bytesPerSec < 0 {
		bytesPerSec = 0
	}
	return FormatBytes(uint64(math.Round(bytesPerSec))) + "/s"
}

// FormatUsage formats used/total with the percentage in front
func FormatUsage(used, total uint64) string {
	if total == 0 {
		return FormatPercentage(0)
	}
	percent := float64(used) / float64(total) * 100
	return fmt.Sprintf("%.1f%% (%s / %s)", percent, FormatBytes(used), FormatBytes(total))
}

// FormatLoad formats the three load averages
func FormatLoad(load [3]float64) string {
	return fmt.Sprintf("%.2f %.2f %.2f", load[0], load[1], load[2])
}

// TruncateString truncates a string to specified length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// MaskSecret keeps the first and last two characters of a token
func MaskSecret(s string) string {
	if s == "" {
		return "(none)"
	}
	if len(s) <= 6 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
