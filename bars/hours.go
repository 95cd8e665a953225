package bars

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Closed is the schedule marker for a day without opening hours.
const Closed = "Fermé"

var timePattern = regexp.MustCompile(`\d{2}:\d{2}`)

// DayNames are the French weekday labels, Monday first, matching the Week
// indexing.
var DayNames = [7]string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi", "Dimanche"}

// Week is a per-weekday schedule, Monday=0 through Sunday=6. Each entry is
// either Closed or one-or-more open/close ranges in HH:MM form.
type Week [7]string

// ParseWeek normalizes a venue's raw opening-hours value into a Week.
// The remote source stores hours as a JSON string keyed (or indexed) by
// weekday; days without an entry, and any unparseable input, read as Closed.
func ParseWeek(raw string) Week {
	var week Week
	for i := range week {
		week[i] = Closed
	}
	if raw == "" {
		return week
	}

	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return week
	}

	switch days := v.(type) {
	case []interface{}:
		for i := 0; i < len(week) && i < len(days); i++ {
			if s := dayString(days[i]); s != "" {
				week[i] = s
			}
		}
	case map[string]interface{}:
		for key, val := range days {
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(week) {
				continue
			}
			if s := dayString(val); s != "" {
				week[i] = s
			}
		}
	}
	return week
}

// dayString renders one day's schedule entry as a string. Range lists are
// joined; anything else reads as no entry.
func dayString(v interface{}) string {
	switch d := v.(type) {
	case string:
		return d
	case []interface{}:
		var parts []string
		for _, e := range d {
			if s, ok := e.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " / ")
	}
	return ""
}

// weekdayIndex converts a time's weekday to Monday=0..Sunday=6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// OpenAt reports whether a venue with the given raw opening hours is open at
// the reference instant. Consecutive HH:MM tokens in the day's entry pair up
// as inclusive [open, close] intervals. A pair whose open time is after its
// close time (an overnight range) is an empty interval and never matches.
// Malformed input reads as closed.
func OpenAt(raw string, at time.Time) bool {
	week := ParseWeek(raw)
	entry := week[weekdayIndex(at)]
	if entry == "" || strings.Contains(entry, Closed) {
		return false
	}

	times := timePattern.FindAllString(entry, -1)
	minutes := at.Hour()*60 + at.Minute()

	for i := 0; i+1 < len(times); i += 2 {
		opens := parseMinutes(times[i])
		closes := parseMinutes(times[i+1])
		if minutes >= opens && minutes <= closes {
			return true
		}
	}
	return false
}

// parseMinutes converts an HH:MM token to minutes since midnight.
func parseMinutes(hhmm string) int {
	h, _ := strconv.Atoi(hhmm[:2])
	m, _ := strconv.Atoi(hhmm[3:])
	return h*60 + m
}
