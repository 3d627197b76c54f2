package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"helpline-scheduler/columns"
	scherr "helpline-scheduler/errors"
	"helpline-scheduler/models"
	"helpline-scheduler/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(filepath.Join(t.TempDir(), "schedule.db"), nil)
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInitSeedsDefaultColumns(t *testing.T) {
	s := newStore(t)

	cols, err := s.DayColumns(context.Background())
	require.NoError(t, err)
	require.Len(t, cols, 7)
	assert.Equal(t, "saturday", cols[0].Key)
	assert.True(t, cols[0].Visible)
}

func TestEmployeeLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	emp, err := s.CreateEmployee(ctx, models.Employee{
		Name: "Ana Lopez, (covers 211) 2pm", Position: "Crisis Counselor", Department: "988/CRISIS",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lopez", emp.DisplayName)

	require.NoError(t, s.UpdateShiftCell(ctx, emp.ID, "monday", "9a-5p"))
	_, err = s.CreateTask(ctx, models.Task{EmployeeID: emp.ID, Name: "QA review", DayOfWeek: "monday", StartTime: "10a", EndTime: "11a"})
	require.NoError(t, err)

	// Delete cascades to cells and tasks.
	require.NoError(t, s.DeleteEmployee(ctx, emp.ID))

	cells, err := s.ShiftCells(ctx)
	require.NoError(t, err)
	assert.Empty(t, cells)
	tasks, err := s.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	assert.ErrorIs(t, s.DeleteEmployee(ctx, emp.ID), scherr.ErrNotFound)
}

func TestUpdateShiftCell(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	emp, err := s.CreateEmployee(ctx, models.Employee{Name: "Ben"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateShiftCell(ctx, emp.ID, "monday", "9a-5p"))
	require.NoError(t, s.UpdateShiftCell(ctx, emp.ID, "Monday", "OFF"))

	cells, err := s.ShiftCells(ctx)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "OFF", cells[0].Value)

	// Empty value deletes the cell.
	require.NoError(t, s.UpdateShiftCell(ctx, emp.ID, "monday", ""))
	cells, err = s.ShiftCells(ctx)
	require.NoError(t, err)
	assert.Empty(t, cells)

	assert.ErrorIs(t, s.UpdateShiftCell(ctx, emp.ID, "moonday", "9a-5p"), scherr.ErrUnknownColumn)
}

func TestClearAndRestoreColumn(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	emp, err := s.CreateEmployee(ctx, models.Employee{Name: "Ben"})
	require.NoError(t, err)
	require.NoError(t, s.UpdateShiftCell(ctx, emp.ID, "monday", "9a-5p"))
	require.NoError(t, s.UpdateShiftCell(ctx, emp.ID, "tuesday", "8a-4p"))

	// Plain hiding keeps cells.
	hide := false
	_, err = s.PatchColumns(ctx, []columns.Patch{{Key: "tuesday", Visible: &hide}})
	require.NoError(t, err)
	require.NoError(t, s.RestoreColumn(ctx, "tuesday"))
	cells, err := s.ShiftCells(ctx)
	require.NoError(t, err)
	assert.Len(t, cells, 2)

	// Clearing wipes cells and hides.
	require.NoError(t, s.ClearColumn(ctx, "monday"))
	cells, err = s.ShiftCells(ctx)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "tuesday", cells[0].ColumnKey)

	cols, err := s.DayColumns(ctx)
	require.NoError(t, err)
	for _, c := range cols {
		if c.Key == "monday" {
			assert.False(t, c.Visible)
		}
	}

	require.NoError(t, s.RestoreColumn(ctx, "monday"))
	cols, err = s.DayColumns(ctx)
	require.NoError(t, err)
	for _, c := range cols {
		assert.True(t, c.Visible)
	}
}

func TestTimeOffLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	created, err := s.CreateTimeOff(ctx, models.TimeOffRequest{
		EmployeeID: 1,
		Type:       "vacation",
		StartDate:  time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC),
		Reason:     "family trip",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TimeOffPending, created.Status)
	assert.NotEmpty(t, created.ID)

	updated, err := s.UpdateTimeOffStatus(ctx, created.ID, models.TimeOffApproved)
	require.NoError(t, err)
	assert.Equal(t, models.TimeOffApproved, updated.Status)

	// The transition is terminal.
	_, err = s.UpdateTimeOffStatus(ctx, created.ID, models.TimeOffDenied)
	assert.ErrorIs(t, err, scherr.ErrTerminalState)

	_, err = s.UpdateTimeOffStatus(ctx, "missing", models.TimeOffApproved)
	assert.ErrorIs(t, err, scherr.ErrNotFound)
}

func TestAnnouncements(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	first, err := s.CreateAnnouncement(ctx, models.Announcement{
		Title: "New hours", Content: "Touchline opens at 7a", Type: "important",
		Date: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	replaced, err := s.ReplaceAnnouncements(ctx, []models.Announcement{
		{Title: "Drill", Content: "Friday fire drill", Date: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)},
		{Title: "Welcome", Content: "New hires on 988", Date: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	require.Len(t, replaced, 2)
	// Newest first, and the pre-replace announcement is gone.
	assert.Equal(t, "Welcome", replaced[0].Title)
	for _, a := range replaced {
		assert.NotEqual(t, first.ID, a.ID)
	}

	require.NoError(t, s.DeleteAnnouncement(ctx, replaced[0].ID))
	assert.ErrorIs(t, s.DeleteAnnouncement(ctx, replaced[0].ID), scherr.ErrNotFound)
}
