package market

import (
	"time"

	"github.com/scmhub/calendar"
)

// Status describes a market's trading session at a point in time, as
// reported on /markets/status.
type Status struct {
	Market    string `json:"market"`
	Exchange  string `json:"exchange"`
	Open      bool   `json:"open"`
	Timezone  string `json:"timezone"`
	LocalTime string `json:"localTime"`
	NextOpen  string `json:"nextOpen,omitempty"`
	NextClose string `json:"nextClose,omitempty"`
}

// session is one market's regular trading window. cal, when present,
// supplies business-day and intraday open checks (holidays, early
// closes); otherwise a plain Mon-Fri window in loc applies.
type session struct {
	market     string
	exchange   string
	loc        *time.Location
	cal        *calendar.Calendar
	openHour   int
	openMinute int
	closeHour  int
	closeMin   int
}

var (
	indianSession session
	globalSession session
)

func init() {
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		ist = time.FixedZone("IST", 5*3600+1800)
	}
	// No Indian MIC in the calendar library; NSE/BSE run on a plain
	// Mon-Fri 09:15-15:30 IST window without a holiday table.
	indianSession = session{
		market:   Indian,
		exchange: "NSE/BSE",
		loc:      ist,
		openHour: 9, openMinute: 15,
		closeHour: 15, closeMin: 30,
	}

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		ny = time.UTC
	}
	globalSession = session{
		market:   Global,
		exchange: "NYSE/NASDAQ",
		loc:      ny,
		openHour: 9, openMinute: 30,
		closeHour: 16, closeMin: 0,
	}
	if cal := calendar.GetCalendar("xnys"); cal != nil {
		globalSession.cal = cal
		globalSession.loc = cal.Loc
	}
}

func sessionFor(marketLabel string) session {
	if marketLabel == Indian {
		return indianSession
	}
	return globalSession
}

// IsOpen reports whether the named market is trading at t.
// The session interval is [open, close): the opening minute counts as
// open, the closing minute does not.
func IsOpen(marketLabel string, t time.Time) bool {
	return sessionFor(marketLabel).isOpen(t)
}

// ExchangeOpen reports whether the market hosting the given exchange is
// trading at t.
func ExchangeOpen(exchange string, t time.Time) bool {
	return IsOpen(MarketOfExchange(exchange), t)
}

func (s session) isOpen(t time.Time) bool {
	local := t.In(s.loc)
	if s.cal != nil {
		return s.cal.IsOpen(local)
	}
	if !s.isTradingDay(local) {
		return false
	}
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= s.openHour*60+s.openMinute && minutes < s.closeHour*60+s.closeMin
}

func (s session) isTradingDay(local time.Time) bool {
	if s.cal != nil {
		return s.cal.IsBusinessDay(local)
	}
	wd := local.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func (s session) openAt(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), s.openHour, s.openMinute, 0, 0, s.loc)
}

func (s session) closeAt(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), s.closeHour, s.closeMin, 0, 0, s.loc)
}

// StatusAt builds the session status for one market at t. Next open and
// close are found by scanning forward over the regular session window;
// with a calendar attached, holidays are skipped but early-close times
// are not modeled.
func StatusAt(marketLabel string, t time.Time) Status {
	s := sessionFor(marketLabel)
	local := t.In(s.loc)
	open := s.isOpen(t)

	st := Status{
		Market:    s.market,
		Exchange:  s.exchange,
		Open:      open,
		Timezone:  s.loc.String(),
		LocalTime: local.Format(time.RFC3339),
	}

	if open {
		st.NextClose = s.closeAt(local).Format(time.RFC3339)
	}
	for i := 0; i < 10; i++ {
		day := local.AddDate(0, 0, i)
		if !s.isTradingDay(day) {
			continue
		}
		openT := s.openAt(day)
		if openT.After(local) {
			st.NextOpen = openT.Format(time.RFC3339)
			if st.NextClose == "" {
				st.NextClose = s.closeAt(day).Format(time.RFC3339)
			}
			break
		}
	}
	return st
}
