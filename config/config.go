// Package config loads runtime settings from the environment, with an
// optional .env file. Every analytic threshold lives here; the engines
// accept them as input and hard-code nothing.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"helpline-scheduler/coverage"
	"helpline-scheduler/risk"
)

// DefaultDepartmentOrder is the canonical department ordering seeded from
// the helpline's schedule layout. Unrecognized departments render after
// these, in first-seen order.
var DefaultDepartmentOrder = []string{
	"HELPLINE LEADERSHIP",
	"TEAM LEADERS/COORDINATORS/SPECIALISTS",
	"211 HELPLINE",
	"988/CRISIS",
	"CARE COORDINATORS/PEER SPECIALISTS",
	"CHAT/EMAIL/TEXT",
	"COURT/COMMUNITY RELATIONS",
	"ELC ANSWERING SERVICE",
	"TOUCHLINE",
}

type Config struct {
	ListenAddr    string
	MetricsAddr   string
	DBPath        string
	AdminPassword string

	DepartmentOrder []string
	Coverage        coverage.Config
	Risk            risk.Config
}

// Load reads the .env file if present, then the process environment, and
// fills in deployment defaults for anything unset.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using system environment variables")
	}

	riskCfg := risk.DefaultConfig()
	riskCfg.NightStart = getEnvInt("RISK_NIGHT_START_MINUTES", riskCfg.NightStart)
	riskCfg.NightEnd = getEnvInt("RISK_NIGHT_END_MINUTES", riskCfg.NightEnd)
	riskCfg.MinRestMinutes = getEnvInt("RISK_MIN_REST_MINUTES", riskCfg.MinRestMinutes)
	riskCfg.HeavyDayMinutes = getEnvInt("RISK_HEAVY_DAY_MINUTES", riskCfg.HeavyDayMinutes)
	riskCfg.RecentWindowDays = getEnvInt("RISK_TIMEOFF_WINDOW_DAYS", riskCfg.RecentWindowDays)
	riskCfg.MediumScore = getEnvFloat("RISK_MEDIUM_SCORE", riskCfg.MediumScore)
	riskCfg.HighScore = getEnvFloat("RISK_HIGH_SCORE", riskCfg.HighScore)
	riskCfg.Weights.TotalHours = getEnvFloat("RISK_WEIGHT_TOTAL_HOURS", riskCfg.Weights.TotalHours)
	riskCfg.Weights.WeekendHours = getEnvFloat("RISK_WEIGHT_WEEKEND_HOURS", riskCfg.Weights.WeekendHours)
	riskCfg.Weights.NightShifts = getEnvFloat("RISK_WEIGHT_NIGHT_SHIFTS", riskCfg.Weights.NightShifts)
	riskCfg.Weights.RestViolations = getEnvFloat("RISK_WEIGHT_REST_VIOLATIONS", riskCfg.Weights.RestViolations)
	riskCfg.Weights.HeavyStreak = getEnvFloat("RISK_WEIGHT_HEAVY_STREAK", riskCfg.Weights.HeavyStreak)
	riskCfg.Weights.TimeOffDays = getEnvFloat("RISK_WEIGHT_TIMEOFF_DAYS", riskCfg.Weights.TimeOffDays)
	riskCfg.HoursAlert = getEnvFloat("RISK_HOURS_ALERT", riskCfg.HoursAlert)
	riskCfg.WeekendAlert = getEnvFloat("RISK_WEEKEND_ALERT", riskCfg.WeekendAlert)
	riskCfg.NightAlert = getEnvInt("RISK_NIGHT_ALERT", riskCfg.NightAlert)
	riskCfg.StreakAlert = getEnvInt("RISK_STREAK_ALERT", riskCfg.StreakAlert)

	return &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		MetricsAddr:     getEnv("METRICS_ADDR", ""),
		DBPath:          getEnv("DB_PATH", "schedule.db"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
		DepartmentOrder: getEnvList("DEPARTMENT_ORDER", DefaultDepartmentOrder),
		Coverage: coverage.Config{
			Queue:              getEnv("CRITICAL_QUEUE", "988/CRISIS"),
			Minimum:            getEnvInt("COVERAGE_MINIMUM", 2),
			Preferred:          getEnvInt("COVERAGE_PREFERRED", 3),
			QualifiedPositions: getEnvList("COVERAGE_QUALIFIED_POSITIONS", nil),
		},
		Risk: riskCfg,
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
