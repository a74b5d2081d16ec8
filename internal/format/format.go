package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatBytes formats a byte count with one decimal place, stepping through
// KB/MB/GB at 1024 boundaries and topping out at TB.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 3; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGT"[exp])
}

// FormatBytesRate formats a bytes-per-second throughput value.
// Example: 1536 → "1.5 KB/s", 0 → "0 B/s". Negative values return "---".
func FormatBytesRate(bytesPerSec float64) string {
	const (
		kb = 1024.0
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytesPerSec < 0:
		return "---"
	case bytesPerSec < kb:
		return fmt.Sprintf("%.0f B/s", bytesPerSec)
	case bytesPerSec < mb:
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/kb)
	case bytesPerSec < gb:
		return fmt.Sprintf("%.1f MB/s", bytesPerSec/mb)
	default:
		return fmt.Sprintf("%.1f GB/s", bytesPerSec/gb)
	}
}

// FormatRate formats a requests/sec rate with comma-separated thousands and
// one decimal place. Example: 1204.3 → "1,204.3 /s", 0 → "0 /s".
// Negative values return "---".
func FormatRate(reqPerSec float64) string {
	if reqPerSec < 0 {
		return "---"
	}
	if reqPerSec == 0 {
		return "0 /s"
	}
	return formatCommaFloat(reqPerSec) + " /s"
}

// FormatLatency formats a response-time value in milliseconds.
// Values >= 1000 ms are shown as seconds with 2 decimal places.
// Zero means no measurement and renders as "-".
func FormatLatency(ms float64) string {
	if ms <= 0 {
		return "-"
	}
	if ms >= 1000 {
		return fmt.Sprintf("%.2f s", ms/1000)
	}
	return fmt.Sprintf("%.2f ms", ms)
}

// FormatNumber formats an integer with comma separators.
// Example: 12345678 → "12,345,678".
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 0 {
		return "-" + insertCommas(s[1:])
	}
	return insertCommas(s)
}

// FormatPercent formats a percentage with one decimal place.
// Example: 34.5 → "34.5%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatWindow formats a reporting window compactly: sub-minute windows
// in seconds, whole minutes in minutes, whole hours in hours.
// Example: 60s → "1m", 90s → "90s", 3600s → "1h".
func FormatWindow(d time.Duration) string {
	s := int64(d.Seconds())
	if s <= 0 {
		return "0s"
	}
	if s%3600 == 0 {
		return fmt.Sprintf("%dh", s/3600)
	}
	if s%60 == 0 {
		return fmt.Sprintf("%dm", s/60)
	}
	return fmt.Sprintf("%ds", s)
}

// formatCommaFloat renders f with one decimal place and comma-grouped thousands.
func formatCommaFloat(f float64) string {
	s := fmt.Sprintf("%.1f", f)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, ok := strings.Cut(s, ".")
	if !ok {
		// Inf and NaN have no decimal point.
		return sign + insertCommas(intPart)
	}
	return sign + insertCommas(intPart) + "." + frac
}

// insertCommas inserts a comma every three digits, counting from the right.
func insertCommas(s string) string {
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
