package funnel

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Spanish calendar vocabulary, used both to render dates in replies and
// to match dates mentioned in free text.

var monthNames = []string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Indexed by time.Weekday (Sunday=0).
var dayNames = []string{
	"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
}

func parseISODate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func monthName(t time.Time) string {
	return monthNames[int(t.Month())-1]
}

func weekdayName(t time.Time) string {
	return dayNames[int(t.Weekday())]
}

// formatLongDate renders "lunes, 2 de junio de 2025". Unparseable input
// is returned as-is so a reply never loses the date the user picked.
func formatLongDate(iso string) string {
	t, ok := parseISODate(iso)
	if !ok {
		return iso
	}
	return fmt.Sprintf("%s, %d de %s de %d", weekdayName(t), t.Day(), monthName(t), t.Year())
}

// formatShortDate renders "lunes, 2 de junio" for suggestion chips.
func formatShortDate(iso string) string {
	t, ok := parseISODate(iso)
	if !ok {
		return iso
	}
	return fmt.Sprintf("%s, %d de %s", weekdayName(t), t.Day(), monthName(t))
}

// splitClock reads the hour and minute out of "HH:MM".
func splitClock(s string) (hour, minute int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return hour, minute, true
}
