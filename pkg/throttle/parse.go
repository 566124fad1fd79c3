package throttle

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLimit parses a human-readable speed limit string into bytes per
// second. "0" means unlimited, as does the word "unlimited".
//
// Supported formats:
//   - Plain bytes: "100", "1024"
//   - With B suffix: "100B"
//   - Kilobytes: "512KB", "512kb", "512K"
//   - Megabytes: "1MB", "1.5mb"
//   - Gigabytes: "2.5GB"
func ParseLimit(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty speed limit")
	}
	if s == "0" || strings.EqualFold(s, "unlimited") {
		return 0, nil
	}

	s = strings.ToUpper(s)

	var numStr, unit string
	for i, c := range s {
		if (c < '0' || c > '9') && c != '.' && c != '-' {
			numStr = s[:i]
			unit = s[i:]
			break
		}
	}
	if numStr == "" && unit == "" {
		numStr = s
	}
	if numStr == "" {
		return 0, fmt.Errorf("invalid speed limit: no numeric value in %q", s)
	}
	if strings.HasPrefix(numStr, "-") {
		return 0, fmt.Errorf("invalid speed limit: negative value not allowed in %q", s)
	}

	num, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid speed limit: %q is not a valid number", numStr)
	}

	var multiplier int64
	switch unit {
	case "", "B":
		multiplier = B
	case "KB", "K":
		multiplier = KB
	case "MB", "M":
		multiplier = MB
	case "GB", "G":
		multiplier = GB
	default:
		return 0, fmt.Errorf("invalid speed limit unit: %q (use B, KB, MB, or GB)", unit)
	}

	result := int64(num * float64(multiplier))
	if result < 0 {
		return 0, fmt.Errorf("invalid speed limit: result is negative")
	}
	return result, nil
}

// FormatLimit renders a byte-per-second limit for CLI and log output.
// 0 renders as "unlimited"; exact multiples use the largest fitting unit.
func FormatLimit(n int64) string {
	switch {
	case n <= 0:
		return "unlimited"
	case n%GB == 0:
		return fmt.Sprintf("%dGB/s", n/GB)
	case n%MB == 0:
		return fmt.Sprintf("%dMB/s", n/MB)
	case n%KB == 0:
		return fmt.Sprintf("%dKB/s", n/KB)
	default:
		return fmt.Sprintf("%dB/s", n)
	}
}
