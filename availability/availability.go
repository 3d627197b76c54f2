// Package availability classifies employees against a day/time-window
// query and detects time-off conflicts across calendar date ranges.
package availability

import (
	"math"
	"strings"
	"time"

	"helpline-scheduler/columns"
	scherr "helpline-scheduler/errors"
	"helpline-scheduler/models"
	"helpline-scheduler/shifttime"
)

// Query is one availability lookup: a weekday, a shorthand time window,
// and an optional position filter.
type Query struct {
	Day      string
	Start    string
	End      string
	Position string
}

// FindAvailable classifies every employee (after the optional position
// filter) against the query window. Overlap is computed in minutes; the
// hours figure is rounded for display only.
func FindAvailable(employees []models.Employee, cells []models.ShiftCell, q Query) ([]models.EmployeeAvailability, error) {
	day := strings.ToLower(strings.TrimSpace(q.Day))
	if !columns.IsValidKey(day) {
		return nil, scherr.ErrUnknownDay
	}
	qStart, ok := shifttime.ParseClock(q.Start)
	if !ok {
		return nil, scherr.ErrInvalidRange
	}
	qEnd, ok := shifttime.ParseClock(q.End)
	if !ok {
		return nil, scherr.ErrInvalidRange
	}

	byEmployee := cellIndex(cells)

	var results []models.EmployeeAvailability
	for _, emp := range employees {
		if q.Position != "" && !strings.EqualFold(emp.Position, q.Position) {
			continue
		}

		raw := byEmployee[emp.ID][day]
		result := models.EmployeeAvailability{Employee: emp, Status: models.StatusAvailable}

		switch v := shifttime.Parse(raw); v.Kind {
		case shifttime.Off, shifttime.Vacation:
			result.Status = models.StatusOff
		case shifttime.Range:
			overlap := shifttime.OverlapMinutes(v.Start, v.End, qStart, qEnd)
			if overlap > 0 {
				result.Status = models.StatusConflict
				result.OverlapMinutes = overlap
				result.OverlapHours = int(math.Round(float64(overlap) / 60))
				result.ConflictShift = raw
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// TimeOffConflicts enumerates every calendar date in the inclusive range on
// which the employee already has a scheduled shift (the weekly-cycle cell
// for that date's weekday holds a range) or an overlapping approved
// time-off request. Ranges at this scale are tens of days, so the scan is
// day by day.
func TimeOffConflicts(cells []models.ShiftCell, requests []models.TimeOffRequest, employeeID int64, startDate, endDate time.Time) []time.Time {
	byDay := make(map[string]string)
	for _, c := range cells {
		if c.EmployeeID == employeeID {
			byDay[strings.ToLower(c.ColumnKey)] = c.Value
		}
	}

	var approved []models.TimeOffRequest
	for _, r := range requests {
		if r.EmployeeID == employeeID && r.Status == models.TimeOffApproved {
			approved = append(approved, r)
		}
	}

	var conflicts []time.Time
	start := models.DateOnly(startDate)
	end := models.DateOnly(endDate)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if shifttime.Parse(byDay[columns.WeekdayKey(d)]).Kind == shifttime.Range {
			conflicts = append(conflicts, d)
			continue
		}
		for _, r := range approved {
			if r.Covers(d) {
				conflicts = append(conflicts, d)
				break
			}
		}
	}
	return conflicts
}

func cellIndex(cells []models.ShiftCell) map[int64]map[string]string {
	idx := make(map[int64]map[string]string)
	for _, c := range cells {
		byCol, ok := idx[c.EmployeeID]
		if !ok {
			byCol = make(map[string]string)
			idx[c.EmployeeID] = byCol
		}
		byCol[strings.ToLower(c.ColumnKey)] = c.Value
	}
	return idx
}
