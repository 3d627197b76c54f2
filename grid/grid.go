// Package grid derives the rendered weekly schedule view: visible columns,
// employees bucketed by department, and per-cell composition of the base
// shift with task overlays and approved time-off badges.
//
// The view is pure and holds no identity beyond its inputs; it is cheap to
// recompute from scratch on every request at weekly-schedule scale.
package grid

import (
	"strings"
	"time"

	"helpline-scheduler/columns"
	"helpline-scheduler/models"
	"helpline-scheduler/shifttime"
)

// OtherDepartment is the trailing bucket for employees whose department is
// blank or unrecognized.
const OtherDepartment = "Other"

// Cell is one composed grid slot. Tasks render below the base shift text,
// never replacing it. TimeOff is set when an approved request covers the
// column's calendar date.
type Cell struct {
	ColumnKey string          `json:"column_key"`
	Raw       string          `json:"raw"`
	Value     shifttime.Value `json:"-"`
	Tasks     []models.Task   `json:"tasks,omitempty"`
	TimeOff   bool            `json:"time_off,omitempty"`
}

// Row is one employee across the visible columns.
type Row struct {
	Employee models.Employee `json:"employee"`
	Cells    []Cell          `json:"cells"`
}

// Group is one department bucket, in render order.
type Group struct {
	Department string `json:"department"`
	Rows       []Row  `json:"rows"`
}

// View is the fully derived grid.
type View struct {
	Columns []models.DayColumn `json:"columns"`
	Groups  []Group            `json:"groups"`
	// TotalColumns is the layout column count: name and position plus
	// the visible day columns.
	TotalColumns int `json:"total_columns"`
}

// Input collects everything Build composes. WeekStart anchors the visible
// columns to calendar dates for time-off badges; when zero no badges are
// produced.
type Input struct {
	Employees       []models.Employee
	Cells           []models.ShiftCell
	Tasks           []models.Task
	Columns         []models.DayColumn
	TimeOff         []models.TimeOffRequest
	DepartmentOrder []string
	WeekStart       time.Time
}

// Build derives the grid view in one deterministic pass.
func Build(in Input) View {
	visible := columns.Visible(columns.Normalize(in.Columns))

	cellValues := make(map[int64]map[string]string, len(in.Employees))
	for _, c := range in.Cells {
		byCol, ok := cellValues[c.EmployeeID]
		if !ok {
			byCol = make(map[string]string)
			cellValues[c.EmployeeID] = byCol
		}
		byCol[strings.ToLower(c.ColumnKey)] = c.Value
	}

	tasksByDay := make(map[int64]map[string][]models.Task)
	for _, t := range in.Tasks {
		byDay, ok := tasksByDay[t.EmployeeID]
		if !ok {
			byDay = make(map[string][]models.Task)
			tasksByDay[t.EmployeeID] = byDay
		}
		day := strings.ToLower(t.DayOfWeek)
		byDay[day] = append(byDay[day], t)
	}

	approved := approvedTimeOff(in.TimeOff)
	columnDates := datesFor(visible, in.WeekStart)

	groups := bucketByDepartment(in.Employees, in.DepartmentOrder)
	for gi := range groups {
		for ri, row := range groups[gi].Rows {
			emp := row.Employee
			cells := make([]Cell, 0, len(visible))
			for ci, col := range visible {
				key := strings.ToLower(col.Key)
				raw := cellValues[emp.ID][key]
				cell := Cell{
					ColumnKey: col.Key,
					Raw:       raw,
					Value:     shifttime.Parse(raw),
					Tasks:     tasksByDay[emp.ID][key],
				}
				if !in.WeekStart.IsZero() {
					cell.TimeOff = coversDate(approved[emp.ID], columnDates[ci])
				}
				cells = append(cells, cell)
			}
			groups[gi].Rows[ri].Cells = cells
		}
	}

	return View{
		Columns:      visible,
		Groups:       groups,
		TotalColumns: 2 + len(visible),
	}
}

// bucketByDepartment orders groups by the canonical list, then remaining
// departments in first-seen order, with the Other bucket last. Row order
// within a bucket preserves employee arrival order.
func bucketByDepartment(employees []models.Employee, order []string) []Group {
	rows := make(map[string][]Row)
	var extra []string

	canonical := make(map[string]string, len(order))
	for _, d := range order {
		canonical[strings.ToLower(d)] = d
	}

	for _, emp := range employees {
		dept := strings.TrimSpace(emp.Department)
		key := strings.ToLower(dept)
		switch {
		case dept == "" || strings.EqualFold(dept, OtherDepartment):
			// A literal "Other" department folds into the trailing
			// bucket rather than rendering as its own group.
			key = strings.ToLower(OtherDepartment)
		case canonical[key] == "":
			if _, seen := rows[key]; !seen {
				extra = append(extra, dept)
			}
		}
		rows[key] = append(rows[key], Row{Employee: emp})
	}

	var groups []Group
	appendGroup := func(name string) {
		if rs := rows[strings.ToLower(name)]; len(rs) > 0 {
			groups = append(groups, Group{Department: name, Rows: rs})
		}
	}
	for _, d := range order {
		appendGroup(d)
	}
	for _, d := range extra {
		appendGroup(d)
	}
	appendGroup(OtherDepartment)
	return groups
}

func approvedTimeOff(reqs []models.TimeOffRequest) map[int64][]models.TimeOffRequest {
	out := make(map[int64][]models.TimeOffRequest)
	for _, r := range reqs {
		if r.Status == models.TimeOffApproved {
			out[r.EmployeeID] = append(out[r.EmployeeID], r)
		}
	}
	return out
}

func coversDate(reqs []models.TimeOffRequest, d time.Time) bool {
	if d.IsZero() {
		return false
	}
	for _, r := range reqs {
		if r.Covers(d) {
			return true
		}
	}
	return false
}

// datesFor resolves each visible column to its calendar date within the
// week beginning at weekStart. Columns whose key is not a weekday get the
// zero date and never carry a badge.
func datesFor(visible []models.DayColumn, weekStart time.Time) []time.Time {
	dates := make([]time.Time, len(visible))
	if weekStart.IsZero() {
		return dates
	}
	start := models.DateOnly(weekStart)
	for i, col := range visible {
		if !columns.IsValidKey(col.Key) {
			continue
		}
		for off := 0; off < 7; off++ {
			d := start.AddDate(0, 0, off)
			if columns.WeekdayKey(d) == strings.ToLower(col.Key) {
				dates[i] = d
				break
			}
		}
	}
	return dates
}
