package models

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const dayLayout = "2006-01-02"

// DatePreset names a relative window the way the ads platform does (last_7d, ...).
type DatePreset string

const (
	PresetToday     DatePreset = "today"
	PresetYesterday DatePreset = "yesterday"
	PresetLast7d    DatePreset = "last_7d"
	PresetLast14d   DatePreset = "last_14d"
	PresetLast30d   DatePreset = "last_30d"
	PresetLast90d   DatePreset = "last_90d"
	PresetThisMonth DatePreset = "this_month"
	PresetLastMonth DatePreset = "last_month"
)

var presetDays = map[DatePreset]int{
	PresetLast7d:  7,
	PresetLast14d: 14,
	PresetLast30d: 30,
	PresetLast90d: 90,
}

func (p DatePreset) Valid() bool {
	switch p {
	case PresetToday, PresetYesterday, PresetThisMonth, PresetLastMonth:
		return true
	}
	_, ok := presetDays[p]
	return ok
}

// Range resolves the preset to concrete calendar days relative to now.
// last_Nd windows end yesterday, matching the ads platform.
func (p DatePreset) Range(now time.Time) (DateRange, error) {
	today := dayOf(now)
	var from, to time.Time
	switch p {
	case PresetToday:
		from, to = today, today
	case PresetYesterday:
		from = today.AddDate(0, 0, -1)
		to = from
	case PresetThisMonth:
		from = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		to = today
	case PresetLastMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		from = first.AddDate(0, -1, 0)
		to = first.AddDate(0, 0, -1)
	default:
		n, ok := presetDays[p]
		if !ok {
			return DateRange{}, fmt.Errorf("unknown date preset %q", p)
		}
		from = today.AddDate(0, 0, -n)
		to = today.AddDate(0, 0, -1)
	}
	return DateRange{StartDate: from.Format(dayLayout), EndDate: to.Format(dayLayout)}, nil
}

// DateRange uses the analytics notation: YYYY-MM-DD, "today", "yesterday" or "NdaysAgo".
type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func DefaultAnalyticsRange() DateRange {
	return DateRange{StartDate: "30daysAgo", EndDate: "today"}
}

var daysAgoRe = regexp.MustCompile(`^(\d+)daysAgo$`)

// Bounds turns the range into [from, to) instants: to is the start of the day after EndDate.
func (r DateRange) Bounds(now time.Time) (time.Time, time.Time, error) {
	from, err := resolveDay(r.StartDate, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := resolveDay(r.EndDate, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("date range ends before it starts: %s..%s", r.StartDate, r.EndDate)
	}
	return from, to.AddDate(0, 0, 1), nil
}

// Resolve rewrites relative dates as YYYY-MM-DD.
func (r DateRange) Resolve(now time.Time) (DateRange, error) {
	from, to, err := r.Bounds(now)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{StartDate: from.Format(dayLayout), EndDate: to.AddDate(0, 0, -1).Format(dayLayout)}, nil
}

func (r DateRange) Validate() error {
	_, _, err := r.Bounds(time.Now())
	return err
}

func resolveDay(s string, now time.Time) (time.Time, error) {
	today := dayOf(now)
	switch s {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	if m := daysAgoRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return today.AddDate(0, 0, -n), nil
	}
	d, err := time.ParseInLocation(dayLayout, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q", s)
	}
	return d, nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
