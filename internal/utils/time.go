package utils

import (
	"fmt"
	"time"

	"github.com/artyomka101/appforphone/internal/constants"
)

// LoadLocation resolves an IANA zone name; "" and "Local" mean the system zone
func LoadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

func NowInTimezone(name string) (time.Time, error) {
	loc, err := LoadLocation(name)
	if err != nil {
		return time.Time{}, err
	}
	return time.Now().In(loc), nil
}

// GetTodayInTimezone is the calendar day the user is living in. A habit day
// rolls over at local midnight of the configured zone, not of the host.
func GetTodayInTimezone(name string) (string, error) {
	now, err := NowInTimezone(name)
	if err != nil {
		return "", err
	}
	return now.Format(constants.DateFormat), nil
}

func parseDay(date string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// ShiftDate moves a day key by days calendar days
func ShiftDate(date string, days int) (string, error) {
	t, err := parseDay(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, days).Format(constants.DateFormat), nil
}

// DateRange lists the n day keys ending with end, oldest first
func DateRange(end string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	last, err := parseDay(end)
	if err != nil {
		return nil, err
	}
	days := make([]string, 0, n)
	for d := last.AddDate(0, 0, 1-n); !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(constants.DateFormat))
	}
	return days, nil
}

// ValidateTimeFormat reports whether s is a HH:MM reminder time
func ValidateTimeFormat(s string) bool {
	_, err := time.Parse(constants.TimeFormat, s)
	return err == nil
}

func ValidateTimezone(name string) bool {
	_, err := LoadLocation(name)
	return err == nil
}
