package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/unidept/presentation-scheduler/pkg/config"
)

// ScheduleGrid holds the operating-day bounds and search parameters as
// minute offsets from midnight. Built once from configuration so tests
// can vary the operating day and granularity.
type ScheduleGrid struct {
	DayStartMin    int
	DayEndMin      int
	StepMinutes    int
	LastStartMin   int
	SearchSpanDays int
}

// NewScheduleGrid parses the configured "HH:MM" bounds.
func NewScheduleGrid(cfg config.SchedulingConfig) (ScheduleGrid, error) {
	start, err := parseClock(cfg.DayStart)
	if err != nil {
		return ScheduleGrid{}, fmt.Errorf("parse day start: %w", err)
	}
	end, err := parseClock(cfg.DayEnd)
	if err != nil {
		return ScheduleGrid{}, fmt.Errorf("parse day end: %w", err)
	}
	lastStart, err := parseClock(cfg.LastStart)
	if err != nil {
		return ScheduleGrid{}, fmt.Errorf("parse last start: %w", err)
	}
	if start >= end {
		return ScheduleGrid{}, fmt.Errorf("day start %q must be before day end %q", cfg.DayStart, cfg.DayEnd)
	}
	step := cfg.StepMinutes
	if step <= 0 {
		step = 30
	}
	span := cfg.SearchSpanDays
	if span <= 0 {
		span = 14
	}
	return ScheduleGrid{
		DayStartMin:    start,
		DayEndMin:      end,
		StepMinutes:    step,
		LastStartMin:   lastStart,
		SearchSpanDays: span,
	}, nil
}

// parseClock converts a zero-padded 24-hour "HH:MM" string to minutes
// from midnight.
func parseClock(value string) (int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time %q out of range", value)
	}
	return hours*60 + minutes, nil
}

// formatClock renders minutes from midnight as "HH:MM".
func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// rangesOverlap applies the half-open interval rule: [s1,e1) and
// [s2,e2) overlap iff s1 < e2 && s2 < e1. Touching endpoints do not
// conflict.
func rangesOverlap(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
