// Package models holds the domain records shared across packages: employees,
// shift cells, task overlays, day columns, time-off requests, and the result
// shapes the availability and analytics engines produce.
package models

import (
	"strings"
	"time"
	"unicode"
)

// Capability is the explicit admin flag threaded through gated operations.
// The core carries no ambient session state; callers establish this once
// (e.g. via the admin verify endpoint) and pass it to every mutation.
type Capability struct {
	Admin bool
}

// Employee is one schedulable person. Name is the raw import value and
// remains the lookup key; DisplayName is derived from it.
type Employee struct {
	ID          int64  `json:"id"`
	Name        string `json:"employee_name"`
	DisplayName string `json:"display_name"`
	Position    string `json:"position"`
	Supervisor  string `json:"supervisor,omitempty"`
	Department  string `json:"department"`
}

// DeriveDisplayName truncates a raw employee name at the first comma,
// parenthesis, or digit (legacy imports embed annotations after those
// markers) and collapses interior whitespace.
func DeriveDisplayName(raw string) string {
	cut := len(raw)
	for i, r := range raw {
		if r == ',' || r == '(' || unicode.IsDigit(r) {
			cut = i
			break
		}
	}
	return strings.Join(strings.Fields(raw[:cut]), " ")
}

// ShiftCell is one employee/day-column slot. Value is the raw shorthand
// notation ("8a-5p", "OFF", "VACATION", or empty) exactly as stored.
type ShiftCell struct {
	EmployeeID int64  `json:"employee_id"`
	ColumnKey  string `json:"column_key"`
	Value      string `json:"value"`
}

// Task is an overlay annotation on one employee and one calendar weekday.
// Start and end times are free text and rendered, never parsed.
type Task struct {
	ID            string `json:"id"`
	EmployeeID    int64  `json:"employee_id"`
	Name          string `json:"task_name"`
	DayOfWeek     string `json:"day_of_week"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	RequiredSkill string `json:"required_skill,omitempty"`
}

// DayColumn is one configurable column of the weekly grid.
type DayColumn struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Subtitle    string `json:"subtitle,omitempty"`
	Visible     bool   `json:"visible"`
	SortOrder   int    `json:"sort_order"`
}

// Time-off request statuses. The pending state is the only one that admits
// a transition; approved and denied are terminal.
type TimeOffStatus string

const (
	TimeOffPending  TimeOffStatus = "pending"
	TimeOffApproved TimeOffStatus = "approved"
	TimeOffDenied   TimeOffStatus = "denied"
)

// TimeOffRequest is an inclusive calendar-date range of requested leave.
type TimeOffRequest struct {
	ID         string        `json:"id"`
	EmployeeID int64         `json:"employee_id"`
	Type       string        `json:"type"`
	StartDate  time.Time     `json:"start_date"`
	EndDate    time.Time     `json:"end_date"`
	Reason     string        `json:"reason,omitempty"`
	Status     TimeOffStatus `json:"status"`
}

// Covers reports whether the request's inclusive date range contains d.
// Comparison is on calendar dates; time-of-day is ignored.
func (r TimeOffRequest) Covers(d time.Time) bool {
	day := DateOnly(d)
	return !day.Before(DateOnly(r.StartDate)) && !day.After(DateOnly(r.EndDate))
}

// DateOnly truncates t to midnight UTC so calendar comparisons are exact.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Announcement is a dated notice shown on the board ticker.
type Announcement struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Type    string    `json:"type"`
	Date    time.Time `json:"date"`
}

// Availability classification for one employee against a query window.
type AvailabilityStatus string

const (
	StatusAvailable AvailabilityStatus = "available"
	StatusOff       AvailabilityStatus = "off"
	StatusConflict  AvailabilityStatus = "conflict"
)

// EmployeeAvailability is one row of an availability query result. Every
// queried employee appears, so callers can render reasons for exclusion.
type EmployeeAvailability struct {
	Employee       Employee           `json:"employee"`
	Status         AvailabilityStatus `json:"status"`
	OverlapMinutes int                `json:"overlap_minutes"`
	OverlapHours   int                `json:"overlap_hours"`
	ConflictShift  string             `json:"conflict_shift,omitempty"`
}
