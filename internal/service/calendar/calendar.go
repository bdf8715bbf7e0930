package calendar

import (
	"fmt"
	"time"

	domsvc "IntraCast/internal/domain/service"
)

// Calendar decides whether the exchange is trading at a given instant:
// weekday, inside the local open/close window, and not a holiday.
// A closed market is a skip outcome for the pipeline, never an error.
type Calendar struct {
	loc       *time.Location
	openHour  int
	openMin   int
	closeHour int
	closeMin  int
	holidays  map[string]struct{} // "2006-01-02" in exchange-local time
}

// New builds a calendar. open and close are "HH:MM" in tz, holidays are
// "YYYY-MM-DD" dates.
func New(tz, open, close string, holidays []string) (*Calendar, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	oh, om, err := parseClock(open)
	if err != nil {
		return nil, fmt.Errorf("parse open: %w", err)
	}
	ch, cm, err := parseClock(close)
	if err != nil {
		return nil, fmt.Errorf("parse close: %w", err)
	}
	hs := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		if _, err := time.ParseInLocation("2006-01-02", h, loc); err != nil {
			return nil, fmt.Errorf("parse holiday %q: %w", h, err)
		}
		hs[h] = struct{}{}
	}
	return &Calendar{
		loc:       loc,
		openHour:  oh,
		openMin:   om,
		closeHour: ch,
		closeMin:  cm,
		holidays:  hs,
	}, nil
}

// IsOpen reports whether t falls inside the trading window. Both the open
// and close minutes are inclusive.
func (c *Calendar) IsOpen(t time.Time) bool {
	lt := t.In(c.loc)
	if wd := lt.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	if _, ok := c.holidays[lt.Format("2006-01-02")]; ok {
		return false
	}
	minutes := lt.Hour()*60 + lt.Minute()
	return minutes >= c.openHour*60+c.openMin && minutes <= c.closeHour*60+c.closeMin
}

// Location returns the exchange timezone.
func (c *Calendar) Location() *time.Location { return c.loc }

func parseClock(s string) (hour, min int, err error) {
	if _, err := time.Parse("15:04", s); err != nil {
		return 0, 0, err
	}
	fmt.Sscanf(s, "%d:%d", &hour, &min)
	return hour, min, nil
}

var _ domsvc.Calendar = (*Calendar)(nil)
