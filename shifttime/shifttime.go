// Package shifttime parses and serializes the shorthand shift notation used
// in schedule cells ("8a-5p", "10:30a-6p", "OFF", "VACATION") and computes
// interval overlap in minutes on a 24-hour wheel.
//
// Parsing never fails: historical cells contain free-form legacy notations,
// and anything that is neither a sentinel nor a well-formed range degrades
// to Empty. Rejecting bad input is the edit protocol's job, not ours.
package shifttime

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the value held by a schedule cell.
type Kind int

const (
	Empty Kind = iota
	Off
	Vacation
	Range
)

const minutesPerDay = 24 * 60

// Value is a parsed cell. Start and End are minutes since midnight and are
// meaningful only when Kind is Range. End < Start means the shift wraps
// past midnight.
type Value struct {
	Kind  Kind
	Start int
	End   int
}

// Parse interprets raw cell content. Sentinels take precedence over range
// parsing and are matched case-insensitively.
func Parse(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{Kind: Empty}
	}
	switch strings.ToLower(s) {
	case "off":
		return Value{Kind: Off}
	case "vacation":
		return Value{Kind: Vacation}
	}

	start, end, ok := splitRange(s)
	if !ok {
		return Value{Kind: Empty}
	}
	return Value{Kind: Range, Start: start, End: end}
}

func splitRange(s string) (int, int, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, ok := ParseClock(parts[0])
	if !ok {
		return 0, 0, false
	}
	end, ok := ParseClock(parts[1])
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}

// ParseClock converts one shorthand clock value ("8a", "5:30p", "12a") to
// minutes since midnight. The meridiem marker is case-insensitive.
func ParseClock(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 2 {
		return 0, false
	}
	mer := s[len(s)-1]
	if mer != 'a' && mer != 'p' {
		return 0, false
	}
	body := s[:len(s)-1]

	hourPart := body
	minute := 0
	if i := strings.IndexByte(body, ':'); i >= 0 {
		hourPart = body[:i]
		mm := body[i+1:]
		if len(mm) != 2 {
			return 0, false
		}
		m, err := strconv.Atoi(mm)
		if err != nil {
			return 0, false
		}
		// The notation admits quarter hours only.
		switch m {
		case 0, 15, 30, 45:
			minute = m
		default:
			return 0, false
		}
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 1 || hour > 12 {
		return 0, false
	}

	// 12a is midnight, 12p is noon.
	if hour == 12 {
		hour = 0
	}
	if mer == 'p' {
		hour += 12
	}
	return hour*60 + minute, true
}

// Serialize renders a Value back into shorthand. Round-trips with Parse:
// reparsing the output yields an equal Value.
func Serialize(v Value) string {
	switch v.Kind {
	case Off:
		return "OFF"
	case Vacation:
		return "VACATION"
	case Range:
		return Clock(v.Start) + "-" + Clock(v.End)
	default:
		return ""
	}
}

// Clock renders minutes since midnight as a shorthand clock value.
func Clock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	h := minutes / 60
	m := minutes % 60
	mer := "a"
	if h >= 12 {
		mer = "p"
		h -= 12
	}
	if h == 0 {
		h = 12
	}
	if m == 0 {
		return fmt.Sprintf("%d%s", h, mer)
	}
	return fmt.Sprintf("%d:%02d%s", h, m, mer)
}

// segments decomposes a possibly wrapping interval into at most two
// non-wrapping sub-intervals on [0, 1440). A zero-width interval yields none.
func segments(start, end int) [][2]int {
	if start == end {
		return nil
	}
	if end > start {
		return [][2]int{{start, end}}
	}
	return [][2]int{{start, minutesPerDay}, {0, end}}
}

// OverlapMinutes reports how many minutes two clock intervals share on the
// 24-hour wheel. Either interval may wrap past midnight. The result is
// symmetric in its arguments and zero exactly when the intervals, read as
// closed-open, do not intersect.
func OverlapMinutes(aStart, aEnd, bStart, bEnd int) int {
	total := 0
	for _, a := range segments(aStart, aEnd) {
		for _, b := range segments(bStart, bEnd) {
			lo := max(a[0], b[0])
			hi := min(a[1], b[1])
			if hi > lo {
				total += hi - lo
			}
		}
	}
	return total
}

// Duration reports the length of a range value in minutes, treating a
// wrapped range as crossing midnight. Non-range values have zero duration.
func Duration(v Value) int {
	if v.Kind != Range || v.End == v.Start {
		return 0
	}
	if v.End > v.Start {
		return v.End - v.Start
	}
	return minutesPerDay - v.Start + v.End
}
