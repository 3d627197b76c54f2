// Package risk aggregates per-employee workload signals over the weekly
// schedule into a burnout risk score and level, with deterministic driver
// reporting.
package risk

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"helpline-scheduler/columns"
	"helpline-scheduler/models"
	"helpline-scheduler/shifttime"
)

// Risk levels.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Weights for the weighted-sum score. All weights are expected to be
// nonnegative so the score is monotonic in each signal.
type Weights struct {
	TotalHours     float64
	WeekendHours   float64
	NightShifts    float64
	RestViolations float64
	HeavyStreak    float64
	TimeOffDays    float64
}

// Config carries every tunable the scoring pass needs. Nothing here is
// discovered by the core; deployments set their own thresholds.
type Config struct {
	Weights Weights

	// Score thresholds mapping to medium and high.
	MediumScore float64
	HighScore   float64

	// NightStart/NightEnd bound the late-night window in minutes since
	// midnight; the window wraps (e.g. 10pm to 6am).
	NightStart int
	NightEnd   int

	// MinRestMinutes is the smallest acceptable gap between the end of
	// one day's shift and the start of the next day's.
	MinRestMinutes int

	// HeavyDayMinutes marks a day as heavy when its shift exceeds it.
	HeavyDayMinutes int

	// RecentWindowDays bounds the lookback for counted time-off days.
	RecentWindowDays int

	// Per-signal alert thresholds controlling driver reporting.
	HoursAlert   float64
	WeekendAlert float64
	NightAlert   int
	StreakAlert  int
}

// DefaultConfig mirrors the deployment defaults: 10pm-6am nights, 8h rest,
// 9h heavy days, 30-day time-off lookback.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			TotalHours:     0.5,
			WeekendHours:   1.0,
			NightShifts:    3.0,
			RestViolations: 8.0,
			HeavyStreak:    4.0,
			TimeOffDays:    1.5,
		},
		MediumScore:      25,
		HighScore:        45,
		NightStart:       22 * 60,
		NightEnd:         6 * 60,
		MinRestMinutes:   8 * 60,
		HeavyDayMinutes:  9 * 60,
		RecentWindowDays: 30,
		HoursAlert:       45,
		WeekendAlert:     10,
		NightAlert:       2,
		StreakAlert:      3,
	}
}

// Signals are the six aggregated workload measures.
type Signals struct {
	TotalHours     float64 `json:"total_hours"`
	WeekendHours   float64 `json:"weekend_hours"`
	NightShifts    int     `json:"night_shifts"`
	RestViolations int     `json:"rest_violations"`
	HeavyStreak    int     `json:"heavy_streak"`
	TimeOffDays    int     `json:"time_off_days"`
}

// Assessment is the scored result for one employee.
type Assessment struct {
	EmployeeID int64    `json:"employee_id"`
	Name       string   `json:"name"`
	Department string   `json:"department"`
	Signals    Signals  `json:"signals"`
	Score      float64  `json:"score"`
	Level      string   `json:"risk_level"`
	Drivers    []string `json:"drivers,omitempty"`
	Narrative  string   `json:"narrative"`
}

// calendarWeek is the seven day keys in chronological order for rest-gap
// scanning; the Saturday-first display order is irrelevant here.
var calendarWeek = []string{
	"saturday", "sunday", "monday", "tuesday", "wednesday", "thursday", "friday",
}

// Evaluate scores every employee. Each assessment is a pure function of
// that employee's cells and time-off history, so the pass has no
// cross-employee dependencies.
func Evaluate(employees []models.Employee, cells []models.ShiftCell, timeOff []models.TimeOffRequest, asOf time.Time, cfg Config) []Assessment {
	cellsByEmployee := make(map[int64][]models.ShiftCell)
	for _, c := range cells {
		cellsByEmployee[c.EmployeeID] = append(cellsByEmployee[c.EmployeeID], c)
	}
	timeOffByEmployee := make(map[int64][]models.TimeOffRequest)
	for _, r := range timeOff {
		timeOffByEmployee[r.EmployeeID] = append(timeOffByEmployee[r.EmployeeID], r)
	}

	out := make([]Assessment, 0, len(employees))
	for _, emp := range employees {
		out = append(out, Assess(emp, cellsByEmployee[emp.ID], timeOffByEmployee[emp.ID], asOf, cfg))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Assess computes the six signals for one employee and maps them to a
// score, level, and driver list.
func Assess(emp models.Employee, cells []models.ShiftCell, timeOff []models.TimeOffRequest, asOf time.Time, cfg Config) Assessment {
	week := weekValues(cells)
	sig := Signals{}

	streak := 0
	for _, day := range calendarWeek {
		v := week[day]
		if v.Kind != shifttime.Range {
			streak = 0
			continue
		}
		minutes := shifttime.Duration(v)
		sig.TotalHours += float64(minutes) / 60
		if day == "saturday" || day == "sunday" {
			sig.WeekendHours += float64(minutes) / 60
		}
		if shifttime.OverlapMinutes(v.Start, v.End, cfg.NightStart, cfg.NightEnd) > 0 {
			sig.NightShifts++
		}
		if minutes > cfg.HeavyDayMinutes {
			streak++
			if streak > sig.HeavyStreak {
				sig.HeavyStreak = streak
			}
		} else {
			streak = 0
		}
	}

	sig.RestViolations = restViolations(week, cfg.MinRestMinutes)
	sig.TimeOffDays = recentTimeOffDays(timeOff, asOf, cfg.RecentWindowDays)

	score := cfg.Weights.TotalHours*sig.TotalHours +
		cfg.Weights.WeekendHours*sig.WeekendHours +
		cfg.Weights.NightShifts*float64(sig.NightShifts) +
		cfg.Weights.RestViolations*float64(sig.RestViolations) +
		cfg.Weights.HeavyStreak*float64(sig.HeavyStreak) +
		cfg.Weights.TimeOffDays*float64(sig.TimeOffDays)

	level := LevelLow
	switch {
	case score >= cfg.HighScore:
		level = LevelHigh
	case score >= cfg.MediumScore:
		level = LevelMedium
	}

	drivers := driversFor(sig, cfg)
	name := emp.DisplayName
	if name == "" {
		name = emp.Name
	}

	return Assessment{
		EmployeeID: emp.ID,
		Name:       name,
		Department: emp.Department,
		Signals:    sig,
		Score:      score,
		Level:      level,
		Drivers:    drivers,
		Narrative:  narrative(name, level, drivers),
	}
}

func weekValues(cells []models.ShiftCell) map[string]shifttime.Value {
	out := make(map[string]shifttime.Value, len(cells))
	for _, c := range cells {
		key := strings.ToLower(c.ColumnKey)
		if columns.IsValidKey(key) {
			out[key] = shifttime.Parse(c.Value)
		}
	}
	return out
}

// restViolations counts consecutive-day shift pairs whose turnaround gap
// is under the minimum. The gap runs from the end of one day's shift to
// the start of the next day's on a continuous timeline; a shift wrapping
// past midnight already eats into the next day.
func restViolations(week map[string]shifttime.Value, minRest int) int {
	violations := 0
	for i := 0; i < len(calendarWeek)-1; i++ {
		a := week[calendarWeek[i]]
		b := week[calendarWeek[i+1]]
		if a.Kind != shifttime.Range || b.Kind != shifttime.Range {
			continue
		}
		var gap int
		if a.End > a.Start {
			// Ends the same day: rest = remainder of day a + start of day b.
			gap = (24*60 - a.End) + b.Start
		} else {
			// Wrapped into day b already.
			gap = b.Start - a.End
		}
		if gap < minRest {
			violations++
		}
	}
	return violations
}

// recentTimeOffDays counts approved sick/PTO/vacation days that fall within
// the lookback window ending at asOf.
func recentTimeOffDays(requests []models.TimeOffRequest, asOf time.Time, windowDays int) int {
	if windowDays <= 0 {
		return 0
	}
	windowStart := models.DateOnly(asOf).AddDate(0, 0, -windowDays)
	windowEnd := models.DateOnly(asOf)

	days := 0
	for _, r := range requests {
		if r.Status != models.TimeOffApproved {
			continue
		}
		start := models.DateOnly(r.StartDate)
		if start.Before(windowStart) {
			start = windowStart
		}
		end := models.DateOnly(r.EndDate)
		if end.After(windowEnd) {
			end = windowEnd
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			days++
		}
	}
	return days
}

// driversFor reports which signals exceeded their alert thresholds, in the
// fixed priority order: rest violations, heavy streak, weekend hours,
// night shifts, raw hours, recent time off. The order is stable so two
// runs over identical input produce identical output.
func driversFor(sig Signals, cfg Config) []string {
	var drivers []string
	if sig.RestViolations > 0 {
		drivers = append(drivers, fmt.Sprintf("%d short rest period(s) under %dh turnaround", sig.RestViolations, cfg.MinRestMinutes/60))
	}
	if sig.HeavyStreak >= cfg.StreakAlert {
		drivers = append(drivers, fmt.Sprintf("%d consecutive heavy workdays", sig.HeavyStreak))
	}
	if sig.WeekendHours > cfg.WeekendAlert {
		drivers = append(drivers, fmt.Sprintf("%.1f weekend hours", sig.WeekendHours))
	}
	if sig.NightShifts >= cfg.NightAlert {
		drivers = append(drivers, fmt.Sprintf("%d late-night shifts", sig.NightShifts))
	}
	if sig.TotalHours > cfg.HoursAlert {
		drivers = append(drivers, fmt.Sprintf("%.1f scheduled hours this week", sig.TotalHours))
	}
	if sig.TimeOffDays > 0 {
		drivers = append(drivers, fmt.Sprintf("%d recent time-off day(s)", sig.TimeOffDays))
	}
	return drivers
}

func narrative(name, level string, drivers []string) string {
	if len(drivers) == 0 {
		return fmt.Sprintf("%s shows %s burnout risk with no workload flags.", name, level)
	}
	return fmt.Sprintf("%s shows %s burnout risk driven by %s.", name, level, strings.Join(drivers, "; "))
}
