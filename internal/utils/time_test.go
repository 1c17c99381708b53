package utils

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "empty string returns local", timezone: ""},
		{name: "Local returns local", timezone: "Local"},
		{name: "valid timezone UTC", timezone: "UTC"},
		{name: "valid timezone Europe/Moscow", timezone: "Europe/Moscow"},
		{name: "invalid timezone", timezone: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
		})
	}
}

func TestGetTodayInTimezone(t *testing.T) {
	today, err := GetTodayInTimezone("UTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if today != time.Now().UTC().Format("2006-01-02") {
		t.Errorf("GetTodayInTimezone(UTC) = %s", today)
	}
	if _, err := GetTodayInTimezone("Nowhere/Special"); err == nil {
		t.Error("expected error for invalid timezone")
	}
}

func TestShiftDate(t *testing.T) {
	tests := []struct {
		date string
		days int
		want string
	}{
		{"2026-03-01", -1, "2026-02-28"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2026-12-31", 1, "2027-01-01"},
		{"2026-05-10", 0, "2026-05-10"},
	}
	for _, tt := range tests {
		got, err := ShiftDate(tt.date, tt.days)
		if err != nil {
			t.Fatalf("ShiftDate(%s, %d) error: %v", tt.date, tt.days, err)
		}
		if got != tt.want {
			t.Errorf("ShiftDate(%s, %d) = %s, want %s", tt.date, tt.days, got, tt.want)
		}
	}
	if _, err := ShiftDate("not-a-date", 1); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestDateRange(t *testing.T) {
	got, err := DateRange("2026-01-02", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"2025-12-31", "2026-01-01", "2026-01-02"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DateRange() = %v, want %v", got, want)
	}
	if r, _ := DateRange("2026-01-02", 0); r != nil {
		t.Errorf("expected nil range for n=0, got %v", r)
	}
}

func TestValidateTimeFormat(t *testing.T) {
	if !ValidateTimeFormat("07:30") {
		t.Error("07:30 should be valid")
	}
	if ValidateTimeFormat("7.30") {
		t.Error("7.30 should be invalid")
	}
	if !ValidateTimezone("Local") || ValidateTimezone("Bad/Zone") {
		t.Error("unexpected timezone validation result")
	}
}
