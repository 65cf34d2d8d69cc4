package schedule

import (
	"fmt"
	"sort"
	"time"
)

// Restriction codes returned when a whole date is unavailable.
const (
	RestrictionSameDay    = "same_day_disabled"
	RestrictionPastDate   = "past_date"
	RestrictionWeekend    = "weekend_disabled"
	RestrictionMaxAdvance = "max_advance_days"
)

// Default opening window used when no hours are configured for the weekday.
const (
	defaultOpenHour  = 9
	defaultCloseHour = 18
)

// Occupied is an existing booking that holds a slot.
type Occupied struct {
	Time     string
	Duration int
}

// Query describes one availability lookup.
type Query struct {
	Date     string // YYYY-MM-DD
	Duration int    // minutes, 0 selects 60
	Now      time.Time
}

// Availability is the slot list offered for one date.
type Availability struct {
	Date            string   `json:"date"`
	Duration        int      `json:"duration"`
	AvailableTimes  []string `json:"available_times"`
	VirtualTimes    []string `json:"virtual_times"`
	BookedTimes     []string `json:"booked_times"`
	BlockedTimes    []string `json:"blocked_times"`
	TotalBookings   int      `json:"total_bookings"`
	TotalVirtual    int      `json:"total_virtual"`
	Restriction     string   `json:"restriction,omitempty"`
	Message         string   `json:"message,omitempty"`
	ShowCallMessage bool     `json:"show_call_message"`
	CallMessageText string   `json:"call_message_text,omitempty"`
}

type span struct{ start, end int }

func (s span) overlaps(start, end int) bool {
	return start < s.end && end > s.start
}

func (s span) contains(m int) bool {
	return m >= s.start && m < s.end
}

// Compute derives the bookable start times for q.Date.
// hours must already be filtered to the date's weekday; rows with
// IsAvailable=false are ignored. Dates are compared in q.Now's location.
// PRE: q.Date is YYYY-MM-DD
// POST: AvailableTimes is sorted and free of duplicates
// INVARIANT: virtual blocks never remove a slot
func Compute(q Query, settings Settings, hours []Hours, blocks []Block, booked []Occupied) (Availability, error) {
	loc := q.Now.Location()
	day, err := time.ParseInLocation("2006-01-02", q.Date, loc)
	if err != nil {
		return Availability{}, fmt.Errorf("%w: %q", ErrInvalidDate, q.Date)
	}
	duration := q.Duration
	if duration <= 0 {
		duration = 60
	}

	out := Availability{
		Date:            q.Date,
		Duration:        duration,
		AvailableTimes:  []string{},
		VirtualTimes:    []string{},
		BookedTimes:     []string{},
		BlockedTimes:    []string{},
		ShowCallMessage: settings.ShowCallMessage,
		CallMessageText: settings.CallMessageText,
	}

	today := time.Date(q.Now.Year(), q.Now.Month(), q.Now.Day(), 0, 0, 0, 0, loc)
	isToday := day.Equal(today)
	daysAhead := int(day.Sub(today).Hours() / 24)

	if code, msg := restrict(settings, day, isToday, daysAhead); code != "" {
		out.Restriction = code
		out.Message = msg
		return out, nil
	}

	var bookedSpans []span
	for _, b := range booked {
		start, ok := ParseClock(b.Time)
		if !ok {
			continue
		}
		d := b.Duration
		if d <= 0 {
			d = 60
		}
		bookedSpans = append(bookedSpans, span{start, start + d})
		out.BookedTimes = append(out.BookedTimes, FormatClock(start))
	}
	out.TotalBookings = len(booked)

	var blockedSpans, virtualSpans []span
	for _, b := range blocks {
		start, ok := ParseClock(NormalizeBlockTime(b.Time))
		if !ok {
			continue
		}
		d := b.Duration
		if d <= 0 {
			d = 60
		}
		if b.IsVirtual {
			virtualSpans = append(virtualSpans, span{start, start + d})
		} else {
			blockedSpans = append(blockedSpans, span{start, start + d})
		}
	}

	earliest := q.Now.Add(time.Duration(settings.MinAdvanceHours) * time.Hour)
	tooSoon := func(start int) bool {
		if !isToday {
			return false
		}
		return day.Add(time.Duration(start) * time.Minute).Before(earliest)
	}
	free := func(start int) bool {
		end := start + duration
		for _, s := range bookedSpans {
			if s.overlaps(start, end) {
				return false
			}
		}
		for _, s := range blockedSpans {
			if s.contains(start) || s.overlaps(start, end) {
				return false
			}
		}
		return true
	}

	var open []Hours
	for _, h := range hours {
		if h.IsAvailable {
			open = append(open, h)
		}
	}

	var available []string
	if len(open) > 0 {
		for _, h := range open {
			start, ok := ParseClock(h.StartTime)
			if !ok {
				continue
			}
			end, ok := ParseClock(h.EndTime)
			if !ok {
				continue
			}
			if tooSoon(start) || start+duration > end {
				continue
			}
			if free(start) {
				available = append(available, FormatClock(start))
			}
		}
	} else {
		for hour := defaultOpenHour; hour < defaultCloseHour; hour++ {
			start := hour * 60
			if tooSoon(start) || start+duration > defaultCloseHour*60 {
				continue
			}
			if free(start) {
				available = append(available, FormatClock(start))
			}
		}
	}
	out.AvailableTimes = uniqueSorted(available)

	offered := make(map[string]bool, len(out.AvailableTimes))
	for _, t := range out.AvailableTimes {
		offered[t] = true
	}

	var virtual []string
	for _, s := range virtualSpans {
		if t := FormatClock(s.start); !offered[t] {
			virtual = append(virtual, t)
		}
	}
	out.VirtualTimes = uniqueSorted(virtual)
	out.TotalVirtual = len(out.VirtualTimes)

	out.BookedTimes = uniqueSorted(filterOut(out.BookedTimes, offered))

	var blocked []string
	for _, h := range open {
		start, ok := ParseClock(h.StartTime)
		if !ok || offered[FormatClock(start)] {
			continue
		}
		for _, s := range blockedSpans {
			if s.contains(start) {
				blocked = append(blocked, FormatClock(start))
				break
			}
		}
	}
	out.BlockedTimes = uniqueSorted(blocked)

	return out, nil
}

func restrict(s Settings, day time.Time, isToday bool, daysAhead int) (string, string) {
	if s.DisableSameDay && isToday {
		return RestrictionSameDay, "당일 예약은 불가합니다. 내일 이후 날짜를 선택해주세요."
	}
	if !isToday && daysAhead < 0 {
		return RestrictionPastDate, "과거 날짜는 선택할 수 없습니다."
	}
	if s.DisableWeekend {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			if s.ShowCallMessage {
				return RestrictionWeekend, "원하시는 시간에 예약이 어려우신가요?"
			}
			return RestrictionWeekend, "주말 예약은 불가합니다. 평일을 선택해주세요."
		}
	}
	maxDays := s.MaxAdvanceDays
	if maxDays <= 0 {
		maxDays = 14
	}
	if daysAhead > maxDays {
		if s.ShowCallMessage {
			return RestrictionMaxAdvance, "원하시는 시간에 예약이 어려우신가요?"
		}
		return RestrictionMaxAdvance, fmt.Sprintf("예약은 %d일 이내만 가능합니다.", maxDays)
	}
	return "", ""
}

// uniqueSorted dedupes HH:MM strings; zero-padded clocks sort lexically.
func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func filterOut(in []string, drop map[string]bool) []string {
	out := in[:0]
	for _, t := range in {
		if !drop[t] {
			out = append(out, t)
		}
	}
	return out
}
