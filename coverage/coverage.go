// Package coverage checks minimum simultaneous staffing for the designated
// critical queue. For each day it sweeps the boundary points of every
// covering shift, reports sub-intervals where the active count falls below
// the required thresholds, and ranks backfill candidates for each gap.
package coverage

import (
	"sort"
	"strings"

	"helpline-scheduler/columns"
	"helpline-scheduler/models"
	"helpline-scheduler/shifttime"
)

// Severity of a coverage gap.
const (
	SeverityCritical = "critical" // below the hard minimum
	SeverityWarning  = "warning"  // meets minimum, below preferred
)

// Config names the critical queue and its staffing thresholds. Preferred
// is optional; zero disables warning gaps. QualifiedPositions limits who
// may be suggested as backfill; empty means any position qualifies.
type Config struct {
	Queue              string
	Minimum            int
	Preferred          int
	QualifiedPositions []string
}

// Suggestion is one ranked backfill candidate for a gap.
type Suggestion struct {
	EmployeeID     int64  `json:"employee_id"`
	Name           string `json:"name"`
	Position       string `json:"position"`
	OverlapMinutes int    `json:"overlap_minutes"`
}

// Gap is one sub-interval of a day where coverage falls short.
type Gap struct {
	Day          string       `json:"day"`
	StartMinutes int          `json:"start_minutes"`
	EndMinutes   int          `json:"end_minutes"`
	Start        string       `json:"start"`
	End          string       `json:"end"`
	Severity     string       `json:"severity"`
	Needed       int          `json:"needed"`
	Current      int          `json:"current"`
	Shortfall    int          `json:"shortfall"`
	Suggestions  []Suggestion `json:"suggestions,omitempty"`
}

// DaySnapshot is the per-day summary used by the coverage overview.
type DaySnapshot struct {
	Day             string `json:"day"`
	Scheduled       int    `json:"scheduled"`
	MinSimultaneous int    `json:"min_simultaneous"`
	Minimum         int    `json:"minimum"`
	Preferred       int    `json:"preferred,omitempty"`
	MeetsMinimum    bool   `json:"meets_minimum"`
}

// Snapshot summarizes coverage per day: how many queue employees hold a
// shift and the lowest simultaneous coverage across the 24-hour day.
func Snapshot(employees []models.Employee, cells []models.ShiftCell, cfg Config) []DaySnapshot {
	queueCells := queueShifts(employees, cells, cfg.Queue)

	out := make([]DaySnapshot, 0, len(columns.DefaultOrder))
	for _, day := range columns.DefaultOrder {
		shifts := queueCells[day]
		minActive := minimumActive(shifts)
		out = append(out, DaySnapshot{
			Day:             day,
			Scheduled:       len(shifts),
			MinSimultaneous: minActive,
			Minimum:         cfg.Minimum,
			Preferred:       cfg.Preferred,
			MeetsMinimum:    minActive >= cfg.Minimum,
		})
	}
	return out
}

// Check reports every coverage gap across the week, with backfill
// suggestions attached.
func Check(employees []models.Employee, cells []models.ShiftCell, cfg Config) []Gap {
	queueCells := queueShifts(employees, cells, cfg.Queue)

	var gaps []Gap
	for _, day := range columns.DefaultOrder {
		for _, g := range dayGaps(day, queueCells[day], cfg) {
			g.Suggestions = suggest(employees, cells, cfg, day, g)
			gaps = append(gaps, g)
		}
	}
	return gaps
}

type shiftInterval struct {
	employeeID int64
	value      shifttime.Value
}

// queueShifts indexes, per day, the parsed range shifts of employees
// assigned to the critical queue.
func queueShifts(employees []models.Employee, cells []models.ShiftCell, queue string) map[string][]shiftInterval {
	onQueue := make(map[int64]bool)
	for _, emp := range employees {
		if strings.EqualFold(strings.TrimSpace(emp.Department), strings.TrimSpace(queue)) {
			onQueue[emp.ID] = true
		}
	}

	out := make(map[string][]shiftInterval)
	for _, c := range cells {
		if !onQueue[c.EmployeeID] {
			continue
		}
		v := shifttime.Parse(c.Value)
		if v.Kind != shifttime.Range || v.Start == v.End {
			continue
		}
		day := strings.ToLower(c.ColumnKey)
		out[day] = append(out[day], shiftInterval{employeeID: c.EmployeeID, value: v})
	}
	return out
}

// boundaries collects the sorted, de-duplicated sweep points for a day:
// midnight, end of day, and every shift edge after wrap decomposition.
func boundaries(shifts []shiftInterval) []int {
	set := map[int]bool{0: true, 24 * 60: true}
	for _, s := range shifts {
		// A wrapping shift meets midnight, which is already a point.
		set[s.value.Start] = true
		set[s.value.End] = true
	}
	points := make([]int, 0, len(set))
	for p := range set {
		points = append(points, p)
	}
	sort.Ints(points)
	return points
}

func activeAt(shifts []shiftInterval, minute int) int {
	count := 0
	for _, s := range shifts {
		if shifttime.OverlapMinutes(s.value.Start, s.value.End, minute, minute+1) > 0 {
			count++
		}
	}
	return count
}

func minimumActive(shifts []shiftInterval) int {
	points := boundaries(shifts)
	minActive := activeAt(shifts, 0)
	for i := 0; i < len(points)-1; i++ {
		if a := activeAt(shifts, points[i]); a < minActive {
			minActive = a
		}
	}
	return minActive
}

// dayGaps sweeps one day and merges adjacent sub-intervals with identical
// severity and active count into single gaps.
func dayGaps(day string, shifts []shiftInterval, cfg Config) []Gap {
	points := boundaries(shifts)

	var gaps []Gap
	for i := 0; i < len(points)-1; i++ {
		start, end := points[i], points[i+1]
		active := activeAt(shifts, start)

		severity := ""
		needed := 0
		switch {
		case active < cfg.Minimum:
			severity = SeverityCritical
			needed = cfg.Minimum
		case cfg.Preferred > 0 && active < cfg.Preferred:
			severity = SeverityWarning
			needed = cfg.Preferred
		default:
			continue
		}

		if n := len(gaps); n > 0 && gaps[n-1].EndMinutes == start &&
			gaps[n-1].Severity == severity && gaps[n-1].Current == active {
			gaps[n-1].EndMinutes = end
			gaps[n-1].End = shifttime.Clock(end)
			continue
		}

		gaps = append(gaps, Gap{
			Day:          day,
			StartMinutes: start,
			EndMinutes:   end,
			Start:        shifttime.Clock(start),
			End:          shifttime.Clock(end),
			Severity:     severity,
			Needed:       needed,
			Current:      active,
			Shortfall:    needed - active,
		})
	}
	return gaps
}

// suggest ranks available, qualified employees as backfill for a gap:
// least overlap with their existing commitments first, ties broken by
// display name. Employees marked OFF or VACATION that day are excluded.
func suggest(employees []models.Employee, cells []models.ShiftCell, cfg Config, day string, g Gap) []Suggestion {
	byEmployee := make(map[int64]string)
	for _, c := range cells {
		if strings.EqualFold(c.ColumnKey, day) {
			byEmployee[c.EmployeeID] = c.Value
		}
	}

	var out []Suggestion
	for _, emp := range employees {
		if !qualified(emp, cfg) {
			continue
		}
		v := shifttime.Parse(byEmployee[emp.ID])
		if v.Kind == shifttime.Off || v.Kind == shifttime.Vacation {
			continue
		}
		overlap := 0
		if v.Kind == shifttime.Range {
			overlap = shifttime.OverlapMinutes(v.Start, v.End, g.StartMinutes, g.EndMinutes)
			if overlap == shifttime.Duration(shifttime.Value{Kind: shifttime.Range, Start: g.StartMinutes, End: g.EndMinutes}) &&
				strings.EqualFold(strings.TrimSpace(emp.Department), strings.TrimSpace(cfg.Queue)) {
				// Already covering the whole gap window on the queue;
				// not a backfill candidate.
				continue
			}
		}
		name := emp.DisplayName
		if name == "" {
			name = emp.Name
		}
		out = append(out, Suggestion{
			EmployeeID:     emp.ID,
			Name:           name,
			Position:       emp.Position,
			OverlapMinutes: overlap,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OverlapMinutes != out[j].OverlapMinutes {
			return out[i].OverlapMinutes < out[j].OverlapMinutes
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func qualified(emp models.Employee, cfg Config) bool {
	if len(cfg.QualifiedPositions) == 0 {
		return true
	}
	for _, p := range cfg.QualifiedPositions {
		if strings.EqualFold(strings.TrimSpace(emp.Position), strings.TrimSpace(p)) {
			return true
		}
	}
	return false
}
