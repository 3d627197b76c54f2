package availability_test

import (
	"testing"
	"time"

	"helpline-scheduler/availability"
	scherr "helpline-scheduler/errors"
	"helpline-scheduler/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAvailable(t *testing.T) {
	employees := []models.Employee{
		{ID: 1, Name: "Ana", Position: "Crisis Counselor"},
		{ID: 2, Name: "Ben", Position: "Crisis Counselor"},
		{ID: 3, Name: "Cal", Position: "Crisis Counselor"},
		{ID: 4, Name: "Dee", Position: "Care Coordinator"},
		{ID: 5, Name: "Eli", Position: "Crisis Counselor"},
	}
	cells := []models.ShiftCell{
		{EmployeeID: 1, ColumnKey: "monday", Value: "9a-1p"},
		{EmployeeID: 2, ColumnKey: "monday", Value: "OFF"},
		{EmployeeID: 3, ColumnKey: "monday", Value: "6p-11p"},
		{EmployeeID: 4, ColumnKey: "monday", Value: "9a-1p"},
		// Eli has no monday cell at all.
	}

	results, err := availability.FindAvailable(employees, cells, availability.Query{
		Day: "monday", Start: "8a", End: "5p", Position: "Crisis Counselor",
	})
	require.NoError(t, err)

	// Position filter excludes Dee; every remaining employee is reported.
	require.Len(t, results, 4)
	byID := map[int64]models.EmployeeAvailability{}
	for _, r := range results {
		byID[r.Employee.ID] = r
	}

	// 9a-1p against 8a-5p overlaps the full four-hour shift.
	assert.Equal(t, models.StatusConflict, byID[1].Status)
	assert.Equal(t, 240, byID[1].OverlapMinutes)
	assert.Equal(t, 4, byID[1].OverlapHours)
	assert.Equal(t, "9a-1p", byID[1].ConflictShift)

	assert.Equal(t, models.StatusOff, byID[2].Status)
	assert.Equal(t, 0, byID[2].OverlapMinutes)

	// An evening shift does not intersect the query window.
	assert.Equal(t, models.StatusAvailable, byID[3].Status)

	// No cell means free.
	assert.Equal(t, models.StatusAvailable, byID[5].Status)
}

func TestFindAvailableOvernightShift(t *testing.T) {
	employees := []models.Employee{{ID: 1, Name: "Ana"}}
	cells := []models.ShiftCell{{EmployeeID: 1, ColumnKey: "friday", Value: "10p-6a"}}

	results, err := availability.FindAvailable(employees, cells, availability.Query{
		Day: "friday", Start: "11p", End: "1a",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.StatusConflict, results[0].Status)
	assert.Equal(t, 120, results[0].OverlapMinutes)
	assert.Equal(t, 2, results[0].OverlapHours)
}

func TestFindAvailableMalformedCellIsFree(t *testing.T) {
	employees := []models.Employee{{ID: 1, Name: "Ana"}}
	cells := []models.ShiftCell{{EmployeeID: 1, ColumnKey: "monday", Value: "see supervisor"}}

	results, err := availability.FindAvailable(employees, cells, availability.Query{
		Day: "monday", Start: "8a", End: "5p",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, results[0].Status)
}

func TestFindAvailableRejectsBadQuery(t *testing.T) {
	_, err := availability.FindAvailable(nil, nil, availability.Query{Day: "someday", Start: "8a", End: "5p"})
	assert.ErrorIs(t, err, scherr.ErrUnknownDay)

	_, err = availability.FindAvailable(nil, nil, availability.Query{Day: "monday", Start: "8", End: "5p"})
	assert.ErrorIs(t, err, scherr.ErrInvalidRange)
}

func TestTimeOffConflicts(t *testing.T) {
	cells := []models.ShiftCell{
		{EmployeeID: 1, ColumnKey: "monday", Value: "9a-5p"},
		{EmployeeID: 1, ColumnKey: "tuesday", Value: "OFF"},
		{EmployeeID: 2, ColumnKey: "wednesday", Value: "9a-5p"},
	}
	requests := []models.TimeOffRequest{
		{
			ID: "r1", EmployeeID: 1, Status: models.TimeOffApproved,
			StartDate: time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC), // Wednesday
			EndDate:   time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "r2", EmployeeID: 1, Status: models.TimeOffDenied,
			StartDate: time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
		},
	}

	// Monday 2026-09-07 through Friday 2026-09-11.
	got := availability.TimeOffConflicts(cells, requests, 1,
		time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC))

	require.Len(t, got, 3)
	// Monday: weekly shift. Wednesday/Thursday: approved time off.
	// Tuesday is OFF, not a shift; Friday's request was denied.
	assert.Equal(t, 7, got[0].Day())
	assert.Equal(t, 9, got[1].Day())
	assert.Equal(t, 10, got[2].Day())
}
