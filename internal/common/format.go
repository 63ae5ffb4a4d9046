package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PadZero pads an integer with leading zeros to reach the specified width.
func PadZero(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// FormatClock renders a duration as HH:MM:SS, truncating sub-second parts.
// Hours are not wrapped at 24.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return PadZero(total/3600, 2) + ":" + PadZero(total/60%60, 2) + ":" + PadZero(total%60, 2)
}

// ParseClock parses a strict HH:MM:SS timestamp.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q: want HH:MM:SS", s)
	}
	var fields [3]int
	for i, p := range parts {
		if len(p) != 2 || !isDigits(p) {
			return 0, fmt.Errorf("invalid timestamp %q: want HH:MM:SS", s)
		}
		fields[i], _ = strconv.Atoi(p)
	}
	if fields[1] > 59 || fields[2] > 59 {
		return 0, fmt.Errorf("invalid timestamp %q: minutes and seconds must be below 60", s)
	}
	return time.Duration(fields[0])*time.Hour +
		time.Duration(fields[1])*time.Minute +
		time.Duration(fields[2])*time.Second, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
