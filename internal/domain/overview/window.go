package overview

import (
	"strconv"
	"strings"
	"time"
)

// Period is the window length in days.
type Period int

const (
	Period1Day   Period = 1
	Period3Days  Period = 3
	Period7Days  Period = 7
	Period14Days Period = 14

	// DefaultPeriod covers one shift handover.
	DefaultPeriod = Period1Day
)

const dateLayout = "2006-01-02"

// ParsePeriod maps "1", "3", "7", "14" (optionally suffixed with "d") to a
// Period. Anything else yields DefaultPeriod.
func ParsePeriod(s string) Period {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "d")
	n, err := strconv.Atoi(s)
	if err != nil {
		return DefaultPeriod
	}
	switch p := Period(n); p {
	case Period1Day, Period3Days, Period7Days, Period14Days:
		return p
	}
	return DefaultPeriod
}

func (p Period) Days() int { return int(p) }

// Window is the inclusive day range [Start, Today] in the ward's timezone.
// Both bounds are midnight in that zone.
type Window struct {
	Period Period
	Today  time.Time
	Start  time.Time
}

func NewWindow(p Period, now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{
		Period: p,
		Today:  today,
		Start:  today.AddDate(0, 0, -(p.Days() - 1)),
	}
}

// Since is the lower bound for timestamp filters.
func (w Window) Since() time.Time { return w.Start }

func (w Window) Date() string { return w.Today.Format(dateLayout) }

func (w Window) StartDate() string { return w.Start.Format(dateLayout) }
