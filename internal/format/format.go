package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatBytes renders a byte count such as the bytes received on a TCP
// input: whole bytes below 1 KB, otherwise one decimal in the largest
// binary unit up to TB.
func FormatBytes(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	v := float64(bytes)
	unit := 0
	for v >= 1024 && unit < len(byteUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", v, byteUnits[unit])
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatUptime renders a duration as "1 day 2 hrs 3 mins 4 secs", dropping
// zero units. Negative durations are prefixed with "-"; zero is "0 secs".
func FormatUptime(d time.Duration) string {
	secs := int64(d / time.Second)
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	if secs == 0 {
		return "0 secs"
	}

	units := []struct {
		name string
		size int64
	}{
		{"day", 86400},
		{"hr", 3600},
		{"min", 60},
		{"sec", 1},
	}
	parts := make([]string, 0, len(units))
	for _, u := range units {
		n := secs / u.size
		secs -= n * u.size
		if n == 0 {
			continue
		}
		suffix := ""
		if n > 1 {
			suffix = "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s%s", n, u.name, suffix))
	}
	return sign + strings.Join(parts, " ")
}

// FormatUsage renders a utilisation percentage truncated to an integer.
// Example: 95.7 → "95%".
func FormatUsage(p float64) string {
	return fmt.Sprintf("%d%%", int64(math.Trunc(p)))
}

// FormatNumber groups digits in threes, e.g. bucket counts: 12345678 is
// "12,345,678".
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	return sign + insertCommas(s)
}

// FormatPercent renders a 0-100 value such as process CPU or disk usage.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatGB formats a size in gigabytes with two decimal places.
func FormatGB(gb float64) string {
	return fmt.Sprintf("%.2f GB", gb)
}

func insertCommas(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	groups := make([]string, 0, len(digits)/3+1)
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	return strings.Join(append([]string{digits}, groups...), ",")
}
