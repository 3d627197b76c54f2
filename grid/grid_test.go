package grid_test

import (
	"testing"
	"time"

	"helpline-scheduler/grid"
	"helpline-scheduler/models"
	"helpline-scheduler/shifttime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaultColumns(t *testing.T) {
	view := grid.Build(grid.Input{
		Employees: []models.Employee{{ID: 1, Name: "Ana", Department: "988/CRISIS"}},
	})

	require.Len(t, view.Columns, 7)
	assert.Equal(t, "saturday", view.Columns[0].Key)
	assert.Equal(t, "friday", view.Columns[6].Key)
	assert.Equal(t, 9, view.TotalColumns)
}

func TestBuildHiddenColumnsExcluded(t *testing.T) {
	cols := []models.DayColumn{
		{Key: "saturday", Visible: false, SortOrder: 0},
		{Key: "sunday", Visible: true, SortOrder: 1},
		{Key: "monday", Visible: true, SortOrder: 2},
	}
	view := grid.Build(grid.Input{
		Employees: []models.Employee{{ID: 1, Name: "Ana"}},
		Cells: []models.ShiftCell{
			{EmployeeID: 1, ColumnKey: "saturday", Value: "8a-5p"},
			{EmployeeID: 1, ColumnKey: "monday", Value: "9a-1p"},
		},
		Columns: cols,
	})

	require.Len(t, view.Columns, 2)
	assert.Equal(t, 4, view.TotalColumns)

	// Hiding is non-destructive: restoring visibility reproduces the
	// saturday cell from the same underlying data.
	cols[0].Visible = true
	restored := grid.Build(grid.Input{
		Employees: []models.Employee{{ID: 1, Name: "Ana"}},
		Cells: []models.ShiftCell{
			{EmployeeID: 1, ColumnKey: "saturday", Value: "8a-5p"},
			{EmployeeID: 1, ColumnKey: "monday", Value: "9a-1p"},
		},
		Columns: cols,
	})
	require.Len(t, restored.Columns, 3)
	assert.Equal(t, "8a-5p", restored.Groups[0].Rows[0].Cells[0].Raw)
}

func TestBuildDepartmentBuckets(t *testing.T) {
	order := []string{"988/CRISIS", "211 HELPLINE"}
	view := grid.Build(grid.Input{
		Employees: []models.Employee{
			{ID: 1, Name: "Walk-in", Department: "TOUCHLINE"},
			{ID: 2, Name: "Ana", Department: "211 HELPLINE"},
			{ID: 3, Name: "Ben", Department: "988/CRISIS"},
			{ID: 4, Name: "Cal", Department: ""},
			{ID: 5, Name: "Dee", Department: "988/CRISIS"},
		},
		DepartmentOrder: order,
	})

	require.Len(t, view.Groups, 4)
	assert.Equal(t, "988/CRISIS", view.Groups[0].Department)
	assert.Equal(t, "211 HELPLINE", view.Groups[1].Department)
	assert.Equal(t, "TOUCHLINE", view.Groups[2].Department)
	assert.Equal(t, "Other", view.Groups[3].Department)

	// Arrival order preserved within the bucket.
	assert.Equal(t, "Ben", view.Groups[0].Rows[0].Employee.Name)
	assert.Equal(t, "Dee", view.Groups[0].Rows[1].Employee.Name)
}

func TestBuildLiteralOtherDepartmentFoldsIntoTrailingBucket(t *testing.T) {
	view := grid.Build(grid.Input{
		Employees: []models.Employee{
			{ID: 1, Name: "Ana", Department: "Other"},
			{ID: 2, Name: "Ben", Department: ""},
			{ID: 3, Name: "Cal", Department: "OTHER"},
		},
		DepartmentOrder: []string{"988/CRISIS"},
	})

	// One trailing bucket, never a duplicate group with the same rows.
	require.Len(t, view.Groups, 1)
	assert.Equal(t, "Other", view.Groups[0].Department)
	require.Len(t, view.Groups[0].Rows, 3)
	assert.Equal(t, "Ana", view.Groups[0].Rows[0].Employee.Name)
	assert.Equal(t, "Ben", view.Groups[0].Rows[1].Employee.Name)
	assert.Equal(t, "Cal", view.Groups[0].Rows[2].Employee.Name)
}

func TestBuildMixedCaseColumnKeys(t *testing.T) {
	view := grid.Build(grid.Input{
		Employees: []models.Employee{{ID: 1, Name: "Ana"}},
		Cells:     []models.ShiftCell{{EmployeeID: 1, ColumnKey: "MONDAY", Value: "9a-5p"}},
		Tasks: []models.Task{
			{ID: "t1", EmployeeID: 1, Name: "QA review", DayOfWeek: "Monday", StartTime: "10a", EndTime: "11a"},
		},
		Columns: []models.DayColumn{{Key: "Monday", Visible: true}},
	})

	row := view.Groups[0].Rows[0]
	require.Len(t, row.Cells, 1)
	assert.Equal(t, "9a-5p", row.Cells[0].Raw)
	require.Len(t, row.Cells[0].Tasks, 1)
}

func TestBuildComposesTasksBelowShift(t *testing.T) {
	view := grid.Build(grid.Input{
		Employees: []models.Employee{{ID: 1, Name: "Ana"}},
		Cells:     []models.ShiftCell{{EmployeeID: 1, ColumnKey: "monday", Value: "9a-5p"}},
		Tasks: []models.Task{
			{ID: "t1", EmployeeID: 1, Name: "QA review", DayOfWeek: "Monday", StartTime: "10a", EndTime: "11a"},
			{ID: "t2", EmployeeID: 1, Name: "Training", DayOfWeek: "tuesday", StartTime: "1p", EndTime: "2p"},
		},
	})

	row := view.Groups[0].Rows[0]
	var monday, tuesday grid.Cell
	for _, c := range row.Cells {
		switch c.ColumnKey {
		case "monday":
			monday = c
		case "tuesday":
			tuesday = c
		}
	}

	// Base shift survives and the matching-weekday task rides along.
	assert.Equal(t, "9a-5p", monday.Raw)
	assert.Equal(t, shifttime.Range, monday.Value.Kind)
	require.Len(t, monday.Tasks, 1)
	assert.Equal(t, "QA review", monday.Tasks[0].Name)

	assert.Empty(t, tuesday.Raw)
	require.Len(t, tuesday.Tasks, 1)
	assert.Equal(t, "Training", tuesday.Tasks[0].Name)
}

func TestBuildTimeOffBadges(t *testing.T) {
	// Week starting Saturday 2026-09-05; monday column is 2026-09-07.
	weekStart := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	timeOff := []models.TimeOffRequest{
		{
			ID: "r1", EmployeeID: 1, Type: "vacation", Status: models.TimeOffApproved,
			StartDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "r2", EmployeeID: 1, Type: "pto", Status: models.TimeOffPending,
			StartDate: time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
		},
	}

	view := grid.Build(grid.Input{
		Employees: []models.Employee{{ID: 1, Name: "Ana"}},
		TimeOff:   timeOff,
		WeekStart: weekStart,
	})

	badges := map[string]bool{}
	for _, c := range view.Groups[0].Rows[0].Cells {
		badges[c.ColumnKey] = c.TimeOff
	}
	assert.True(t, badges["monday"])
	assert.True(t, badges["tuesday"])
	assert.False(t, badges["wednesday"])
	// Pending requests never produce badges.
	assert.False(t, badges["friday"])
}
