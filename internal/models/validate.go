package models

import (
	"fmt"
	"time"
)

// Recognized values for enum fields
var (
	ProjectStatuses = []string{"active", "paused", "archived", "completed"}
	GoalStatuses    = []string{"active", "completed", "cancelled"}
	TodoStatuses    = []string{"open", "in_progress", "blocked", "completed", "cancelled"}
	GoalCategories  = []string{"feature", "bugfix", "refactor", "docs", "ops"}
	EffortLevels    = []string{"S", "M", "L", "XL"}
)

// ClampPriority clamps a priority value to the 0-100 range
func ClampPriority(priority int) int {
	if priority < 0 {
		return 0
	}
	if priority > 100 {
		return 100
	}
	return priority
}

// ValidateStatus checks a status value against an allowed set
func ValidateStatus(status string, allowed []string) error {
	for _, s := range allowed {
		if status == s {
			return nil
		}
	}
	return fmt.Errorf("invalid status %q, must be one of %v", status, allowed)
}

// ValidateCategory checks a goal category value
func ValidateCategory(category string) error {
	for _, c := range GoalCategories {
		if category == c {
			return nil
		}
	}
	return fmt.Errorf("invalid category %q, must be one of %v", category, GoalCategories)
}

// ValidateEffort checks an effort estimate. Empty means unset and is allowed.
func ValidateEffort(effort string) error {
	if effort == "" {
		return nil
	}
	for _, e := range EffortLevels {
		if effort == e {
			return nil
		}
	}
	return fmt.Errorf("invalid effort %q, must be one of %v", effort, EffortLevels)
}

// ParseDate parses a YYYY-MM-DD date string
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// DateOnly truncates a timestamp to midnight UTC
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
