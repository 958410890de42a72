package ical

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// formatISODuration renders a duration as a signed ISO-8601 duration string
// of the kind used in TRIGGER and DURATION values. Sub-minute precision is
// not needed by any caller; seconds survive anyway.
func formatISODuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	if d == 0 {
		return "PT0S"
	}

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	mins := d / time.Minute
	d -= mins * time.Minute
	secs := d / time.Second

	var b strings.Builder
	b.WriteString(sign + "P")
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if hours > 0 || mins > 0 || secs > 0 {
		b.WriteString("T")
		if hours > 0 {
			fmt.Fprintf(&b, "%dH", hours)
		}
		if mins > 0 {
			fmt.Fprintf(&b, "%dM", mins)
		}
		if secs > 0 {
			fmt.Fprintf(&b, "%dS", secs)
		}
	}
	return b.String()
}

// parseISODuration parses the ISO-8601 duration subset written by
// formatISODuration (weeks, days, hours, minutes, seconds, optional sign).
func parseISODuration(s string) (time.Duration, error) {
	orig := s
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}
	rest, ok := strings.CutPrefix(s, "P")
	if !ok {
		return 0, fmt.Errorf("malformed duration %q", orig)
	}

	var out time.Duration
	inTime := false
	num := ""
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
			continue
		case r == 'T':
			inTime = true
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, fmt.Errorf("malformed duration %q", orig)
		}
		num = ""
		switch r {
		case 'W':
			out += time.Duration(n) * 7 * 24 * time.Hour
		case 'D':
			out += time.Duration(n) * 24 * time.Hour
		case 'H':
			if !inTime {
				return 0, fmt.Errorf("malformed duration %q", orig)
			}
			out += time.Duration(n) * time.Hour
		case 'M':
			if !inTime {
				return 0, fmt.Errorf("malformed duration %q", orig)
			}
			out += time.Duration(n) * time.Minute
		case 'S':
			if !inTime {
				return 0, fmt.Errorf("malformed duration %q", orig)
			}
			out += time.Duration(n) * time.Second
		default:
			return 0, fmt.Errorf("malformed duration %q", orig)
		}
	}
	if num != "" {
		return 0, fmt.Errorf("malformed duration %q", orig)
	}
	if neg {
		out = -out
	}
	return out, nil
}

// formatMinutes renders a signed minute count as a flag-token duration
// parameter with a trailing unit letter: minutes by default, hours or days
// when the count divides evenly.
func formatMinutes(minutes int) string {
	sign := ""
	m := minutes
	if m < 0 {
		sign = "-"
		m = -m
	}
	switch {
	case m%(24*60) == 0 && m != 0:
		return sign + strconv.Itoa(m/(24*60)) + "D"
	case m%60 == 0 && m != 0:
		return sign + strconv.Itoa(m/60) + "H"
	default:
		return sign + strconv.Itoa(m) + "M"
	}
}

// parseMinutes parses a flag-token duration parameter: an optionally signed
// integer with an optional trailing unit letter (M = minutes, the default,
// H = hours, D = days). The result is canonical minutes.
func parseMinutes(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty duration parameter")
	}
	mult := 1
	switch s[len(s)-1] {
	case 'M':
		s = s[:len(s)-1]
	case 'H':
		mult = 60
		s = s[:len(s)-1]
	case 'D':
		mult = 24 * 60
		s = s[:len(s)-1]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return n * mult, nil
}
