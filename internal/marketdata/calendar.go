package marketdata

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/amitbh/stockscope/pkg/config"
)

// ErrNoTradingSession is returned when the calendar has no valid session in
// the resolver's lookback window. This indicates broken calendar data or
// config, not a transient condition, so callers treat it as fatal.
var ErrNoTradingSession = errors.New("no valid trading session in lookback window")

// Calendar reports the valid trading sessions of an exchange.
type Calendar interface {
	// ValidSessions returns all trading days in [from, to], ascending.
	ValidSessions(from, to time.Time) []time.Time
}

// WeekdayCalendar is a Calendar that treats every weekday as a session
// except an explicit holiday list.
type WeekdayCalendar struct {
	holidays map[time.Time]bool
}

// NewWeekdayCalendar creates a calendar with the given holidays.
func NewWeekdayCalendar(holidays []time.Time) *WeekdayCalendar {
	m := make(map[time.Time]bool, len(holidays))
	for _, h := range holidays {
		m[Day(h)] = true
	}
	return &WeekdayCalendar{holidays: m}
}

// LoadHolidayCalendar builds a WeekdayCalendar from a newline-separated
// YYYY-MM-DD holiday file. An empty path yields a plain weekday calendar.
func LoadHolidayCalendar(path string) (*WeekdayCalendar, error) {
	if path == "" {
		return NewWeekdayCalendar(nil), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open holidays file: %w", err)
	}
	defer f.Close()

	var holidays []time.Time
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d, err := time.Parse("2006-01-02", line)
		if err != nil {
			return nil, fmt.Errorf("parse holiday %q: %w", line, err)
		}
		holidays = append(holidays, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read holidays file: %w", err)
	}

	return NewWeekdayCalendar(holidays), nil
}

// ValidSessions returns all weekdays in [from, to] that are not holidays.
func (c *WeekdayCalendar) ValidSessions(from, to time.Time) []time.Time {
	var sessions []time.Time
	for d := Day(from); !d.After(Day(to)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if c.holidays[d] {
			continue
		}
		sessions = append(sessions, d)
	}
	return sessions
}

// Resolver determines the last valid trading day. It separates "what is the
// most recent session" (actual) from "what is the latest session whose
// closing data is final" (as-of-close): before the daily close cutoff,
// today's session is still in flight and must not be cached as final.
type Resolver struct {
	calendar     Calendar
	location     *time.Location
	closeHour    int
	closeMinute  int
	lookbackDays int

	// now is swappable for tests
	now func() time.Time
}

// NewResolver creates a resolver from config.
func NewResolver(cal Calendar, cfg *config.Config) *Resolver {
	return &Resolver{
		calendar:     cal,
		location:     cfg.Location(),
		closeHour:    cfg.Market.CloseHour,
		closeMinute:  cfg.Market.CloseMinute,
		lookbackDays: cfg.Market.LookbackDays,
		now:          time.Now,
	}
}

// WithNow overrides the clock. Used by tests.
func (r *Resolver) WithNow(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// LastTradingDay returns the most recent valid session on or before today
// (actual) and the latest session whose close is final (asOfClose). The two
// differ only when today is a session and the exchange has not closed yet.
func (r *Resolver) LastTradingDay() (actual, asOfClose time.Time, err error) {
	localNow := r.now().In(r.location)
	today := Day(localNow)
	windowStart := today.AddDate(0, 0, -r.lookbackDays)

	sessions := r.calendar.ValidSessions(windowStart, today)
	if len(sessions) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s to %s",
			ErrNoTradingSession, windowStart.Format("2006-01-02"), today.Format("2006-01-02"))
	}

	actual = sessions[len(sessions)-1]
	asOfClose = actual

	if actual.Equal(today) && !r.afterClose(localNow) {
		// Today's data is not final yet, fall back to the previous session
		if len(sessions) >= 2 {
			asOfClose = sessions[len(sessions)-2]
		} else {
			prev := r.calendar.ValidSessions(windowStart.AddDate(0, 0, -r.lookbackDays), today.AddDate(0, 0, -1))
			if len(prev) == 0 {
				return time.Time{}, time.Time{}, fmt.Errorf("%w: no closed session before %s",
					ErrNoTradingSession, today.Format("2006-01-02"))
			}
			asOfClose = prev[len(prev)-1]
		}
	}

	return actual, asOfClose, nil
}

func (r *Resolver) afterClose(localNow time.Time) bool {
	cutoff := time.Date(localNow.Year(), localNow.Month(), localNow.Day(),
		r.closeHour, r.closeMinute, 0, 0, r.location)
	return !localNow.Before(cutoff)
}
