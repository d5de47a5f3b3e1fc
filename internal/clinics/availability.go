package clinics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Slot length is a fixed policy, not configurable per schedule window.
const slotStepMinutes = 30

// ErrAvailabilityFetch marks a failed upstream fetch while deriving
// availability. Callers must not confuse it with an empty result: empty
// means "the doctor does not work that day", this means "we don't know".
var ErrAvailabilityFetch = errors.New("availability fetch failed")

// GetAvailableSlots returns the free HH:MM slots for a doctor on a date
// (YYYY-MM-DD), composing the doctor's weekly schedule with the
// appointments already booked that day.
func (c *Client) GetAvailableSlots(ctx context.Context, doctorID int, date string) ([]string, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}

	schedules, err := c.ListSchedules(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAvailabilityFetch, err)
	}

	booked, err := c.ListAppointments(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAvailabilityFetch, err)
	}

	return SlotsForDate(schedules, booked, day), nil
}

// SlotsForDate derives the free slots for one calendar date. Windows are
// walked in order, each in 30-minute steps from start_time up to but
// excluding end_time; a window whose span is not a multiple of the step
// drops the remainder. Slots already booked are skipped, and a slot
// offered by overlapping windows is emitted once.
func SlotsForDate(schedules []DoctorSchedule, booked []Appointment, date time.Time) []string {
	day := mondayIndexedWeekday(date)

	bookedTimes := make(map[string]bool, len(booked))
	for _, a := range booked {
		if hm, ok := clockFromTimestamp(a.AppointmentDate); ok {
			bookedTimes[hm] = true
		}
	}

	seen := make(map[string]bool)
	var slots []string

	for _, s := range schedules {
		if !s.Active || s.DayOfWeek != day {
			continue
		}

		startHour, startMinute, ok := parseClock(s.StartTime)
		if !ok {
			continue
		}
		endHour, endMinute, ok := parseClock(s.EndTime)
		if !ok {
			continue
		}

		hour, minute := startHour, startMinute
		for hour < endHour || (hour == endHour && minute < endMinute) {
			hm := fmt.Sprintf("%02d:%02d", hour, minute)
			if !bookedTimes[hm] && !seen[hm] {
				seen[hm] = true
				slots = append(slots, hm)
			}

			minute += slotStepMinutes
			if minute >= 60 {
				minute -= 60
				hour++
			}
		}
	}

	return slots
}

// mondayIndexedWeekday remaps Go's Sunday=0 weekday to the schedule
// convention 0=Monday .. 6=Sunday.
func mondayIndexedWeekday(t time.Time) int {
	raw := int(t.Weekday())
	if raw == 0 {
		return 6
	}
	return raw - 1
}

// parseClock reads "HH:MM" or "HH:MM:SS".
func parseClock(s string) (hour, minute int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, 0, false
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}

	return hour, minute, true
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// clockFromTimestamp extracts "HH:MM" from a booked appointment's
// timestamp.
func clockFromTimestamp(s string) (string, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}
