// Package columns manages day-column configuration: the canonical
// Saturday-first column set, ordering and visibility rules, and the patch
// shape used to mutate column metadata.
package columns

import (
	"sort"
	"strings"
	"time"

	"helpline-scheduler/models"
)

// Canonical day keys in the fixed default display order. The grid is
// Saturday-first; tasks and time-off use calendar weekday naming, which is
// the same key set in a different order.
var DefaultOrder = []string{
	"saturday", "sunday", "monday", "tuesday", "wednesday", "thursday", "friday",
}

// IsValidKey reports whether key names one of the seven calendar days.
// Additional keys may exist in stored column metadata; this only vouches
// for the canonical set.
func IsValidKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range DefaultOrder {
		if k == key {
			return true
		}
	}
	return false
}

// Defaults returns the seven canonical columns, visible, in the
// Saturday-first order.
func Defaults() []models.DayColumn {
	cols := make([]models.DayColumn, len(DefaultOrder))
	for i, key := range DefaultOrder {
		cols[i] = models.DayColumn{
			Key:         key,
			DisplayName: strings.ToUpper(key[:1]) + key[1:],
			Visible:     true,
			SortOrder:   i,
		}
	}
	return cols
}

// Normalize returns the working column list: the supplied metadata sorted
// by SortOrder (stable, so equal orders keep arrival order), or the
// defaults when no metadata exists.
func Normalize(cols []models.DayColumn) []models.DayColumn {
	if len(cols) == 0 {
		return Defaults()
	}
	out := make([]models.DayColumn, len(cols))
	copy(out, cols)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

// Visible filters a normalized column list to the visible columns.
func Visible(cols []models.DayColumn) []models.DayColumn {
	var out []models.DayColumn
	for _, c := range cols {
		if c.Visible {
			out = append(out, c)
		}
	}
	return out
}

// Patch is a partial update to one column. Nil fields are left unchanged.
type Patch struct {
	Key         string  `json:"key"`
	DisplayName *string `json:"display_name,omitempty"`
	Subtitle    *string `json:"subtitle,omitempty"`
	Visible     *bool   `json:"visible,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
}

// Apply returns col with the patch's non-nil fields applied.
func Apply(col models.DayColumn, p Patch) models.DayColumn {
	if p.DisplayName != nil {
		col.DisplayName = *p.DisplayName
	}
	if p.Subtitle != nil {
		col.Subtitle = *p.Subtitle
	}
	if p.Visible != nil {
		col.Visible = *p.Visible
	}
	if p.SortOrder != nil {
		col.SortOrder = *p.SortOrder
	}
	return col
}

// WeekdayKey maps a calendar date to its day-column key.
func WeekdayKey(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}
