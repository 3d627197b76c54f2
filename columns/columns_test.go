package columns_test

import (
	"testing"
	"time"

	"helpline-scheduler/columns"
	"helpline-scheduler/models"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFallsBackToDefaults(t *testing.T) {
	cols := columns.Normalize(nil)
	assert.Len(t, cols, 7)
	assert.Equal(t, "saturday", cols[0].Key)
	assert.Equal(t, "friday", cols[6].Key)
	for _, c := range cols {
		assert.True(t, c.Visible)
	}
}

func TestNormalizeSortsBySortOrder(t *testing.T) {
	cols := columns.Normalize([]models.DayColumn{
		{Key: "monday", SortOrder: 2, Visible: true},
		{Key: "saturday", SortOrder: 0, Visible: true},
		{Key: "sunday", SortOrder: 1, Visible: false},
	})
	assert.Equal(t, []string{"saturday", "sunday", "monday"},
		[]string{cols[0].Key, cols[1].Key, cols[2].Key})

	visible := columns.Visible(cols)
	assert.Len(t, visible, 2)
	assert.Equal(t, "saturday", visible[0].Key)
	assert.Equal(t, "monday", visible[1].Key)
}

func TestApplyPatch(t *testing.T) {
	col := models.DayColumn{Key: "monday", DisplayName: "Monday", Visible: true, SortOrder: 2}

	hide := false
	sub := "6/2"
	patched := columns.Apply(col, columns.Patch{Key: "monday", Visible: &hide, Subtitle: &sub})

	assert.False(t, patched.Visible)
	assert.Equal(t, "6/2", patched.Subtitle)
	// Untouched fields survive.
	assert.Equal(t, "Monday", patched.DisplayName)
	assert.Equal(t, 2, patched.SortOrder)
}

func TestWeekdayKey(t *testing.T) {
	// 2026-08-31 is a Monday.
	d := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "monday", columns.WeekdayKey(d))
	assert.Equal(t, "saturday", columns.WeekdayKey(d.AddDate(0, 0, 5)))
}

func TestIsValidKey(t *testing.T) {
	assert.True(t, columns.IsValidKey("wednesday"))
	assert.True(t, columns.IsValidKey("Wednesday"))
	assert.False(t, columns.IsValidKey("payday"))
}
