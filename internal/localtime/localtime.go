// Package localtime answers the engine's calendar questions: projecting an
// instant into a user's zone, push-window checks, and signed distances to a
// local date/time. All functions are pure over (timezone, now) so jobs can be
// tested with a frozen clock.
package localtime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultZone is the fallback applied when a user has no usable timezone.
// Overridable from config via Evaluator.
const DefaultZone = "UTC"

// ConfigWarning reports a timezone string that could not be resolved.
// It is advisory: the caller got a working fallback zone and may log the
// warning, but must not treat it as a failure.
type ConfigWarning struct {
	Input    string
	Fallback string
}

func (w *ConfigWarning) Error() string {
	return fmt.Sprintf("unknown timezone %q, using %s", w.Input, w.Fallback)
}

// Timezone is a validated IANA zone.
type Timezone struct {
	name string
	loc  *time.Location
}

func (tz Timezone) String() string { return tz.name }

func (tz Timezone) Location() *time.Location {
	if tz.loc == nil {
		return time.UTC
	}
	return tz.loc
}

// Evaluator resolves timezones with a configured fallback and a configured
// push window. The zero value falls back to UTC and window 8-21.
type Evaluator struct {
	fallback    string
	windowStart int
	windowEnd   int
}

func NewEvaluator(fallbackZone string, windowStart, windowEnd int) *Evaluator {
	if strings.TrimSpace(fallbackZone) == "" {
		fallbackZone = DefaultZone
	}
	if windowStart == 0 && windowEnd == 0 {
		windowStart, windowEnd = 8, 21
	}
	return &Evaluator{fallback: fallbackZone, windowStart: windowStart, windowEnd: windowEnd}
}

// Parse validates tz. On failure it returns the fallback zone plus a
// *ConfigWarning; the returned Timezone is always usable.
func (e *Evaluator) Parse(tz string) (Timezone, *ConfigWarning) {
	name := strings.TrimSpace(tz)
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return Timezone{name: name, loc: loc}, nil
		}
	}
	fb := e.fallbackZone()
	loc, err := time.LoadLocation(fb)
	if err != nil {
		loc = time.UTC
		fb = "UTC"
	}
	if name == "" {
		// Missing is common (old installs); not worth a warning per call.
		return Timezone{name: fb, loc: loc}, nil
	}
	return Timezone{name: fb, loc: loc}, &ConfigWarning{Input: name, Fallback: fb}
}

func (e *Evaluator) fallbackZone() string {
	if e == nil || strings.TrimSpace(e.fallback) == "" {
		return DefaultZone
	}
	return e.fallback
}

// LocalNow projects now into tz.
func (e *Evaluator) LocalNow(tz Timezone, now time.Time) time.Time {
	return now.In(tz.Location())
}

// WithinWindow reports whether the local hour is inside [start, end).
// start > end means the window wraps midnight: hour >= start OR hour < end.
func (e *Evaluator) WithinWindow(tz Timezone, now time.Time, start, end int) bool {
	h := e.LocalNow(tz, now).Hour()
	if start <= end {
		return h >= start && h < end
	}
	return h >= start || h < end
}

// WithinPushWindow applies the configured quiet-hours gate (default 8-21).
// Non-urgent jobs must skip a user entirely when this is false.
func (e *Evaluator) WithinPushWindow(tz Timezone, now time.Time) bool {
	return e.WithinWindow(tz, now, e.windowStart, e.windowEnd)
}

// RelativeDates returns the local calendar dates at the given day offsets
// from now, formatted YYYY-MM-DD, keyed by offset.
func (e *Evaluator) RelativeDates(tz Timezone, now time.Time, offsets ...int) map[int]string {
	local := e.LocalNow(tz, now)
	out := make(map[int]string, len(offsets))
	for _, d := range offsets {
		out[d] = local.AddDate(0, 0, d).Format("2006-01-02")
	}
	return out
}

// MinutesUntil returns the signed minutes from the current local time to a
// bare HH:MM time-of-day today. Negative means already past.
func (e *Evaluator) MinutesUntil(tz Timezone, now time.Time, hhmm string) (int, error) {
	h, m, err := parseHHMM(hhmm)
	if err != nil {
		return 0, err
	}
	local := e.LocalNow(tz, now)
	target := time.Date(local.Year(), local.Month(), local.Day(), h, m, 0, 0, tz.Location())
	return int(target.Sub(local).Minutes()), nil
}

// MinutesUntilShow returns the signed minutes from now to a full local
// date+time (dateLocal YYYY-MM-DD, timeLocal HH:MM) in tz.
func (e *Evaluator) MinutesUntilShow(tz Timezone, now time.Time, dateLocal, timeLocal string) (int, error) {
	y, mo, d, err := parseDate(dateLocal)
	if err != nil {
		return 0, err
	}
	h, mi, err := parseHHMM(timeLocal)
	if err != nil {
		return 0, err
	}
	target := time.Date(y, time.Month(mo), d, h, mi, 0, 0, tz.Location())
	return int(target.Sub(now).Minutes()), nil
}

// StartOfTodayUTC returns the instant of local midnight in tz for the current
// local date. time.Date resolves the zone offset for that calendar date, so
// the result is correct across DST transitions.
func (e *Evaluator) StartOfTodayUTC(tz Timezone, now time.Time) time.Time {
	local := e.LocalNow(tz, now)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz.Location())
	return midnight.UTC()
}

func parseHHMM(s string) (hour int, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

func parseDate(s string) (year, month, day int, err error) {
	t, perr := time.Parse("2006-01-02", strings.TrimSpace(s))
	if perr != nil {
		return 0, 0, 0, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t.Year(), int(t.Month()), t.Day(), nil
}
