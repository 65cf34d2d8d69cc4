package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SettingsID is the fixed primary key of the single booking_settings row.
const SettingsID = "00000000-0000-0000-0000-000000000001"

// DefaultCallMessage is shown under the slot picker when phone booking is suggested.
const DefaultCallMessage = "원하시는 시간에 예약이 어려우신가요? 전화로 문의해주세요."

// Domain errors
var (
	ErrInvalidDay      = errors.New("day_of_week must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidClock    = errors.New("time must be HH:MM")
	ErrEndBeforeStart  = errors.New("end time must be after start time")
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
	ErrInvalidDuration = errors.New("duration must be between 15 and 480 minutes")
	ErrBadAdvance      = errors.New("advance limits must not be negative")
)

// Settings holds the shop-wide booking restrictions.
type Settings struct {
	ID              string `json:"id"`
	DisableSameDay  bool   `json:"disable_same_day_booking"`
	DisableWeekend  bool   `json:"disable_weekend_booking"`
	MinAdvanceHours int    `json:"min_advance_hours"`
	MaxAdvanceDays  int    `json:"max_advance_days"`
	MaxWeeklySlots  int    `json:"max_weekly_slots"`
	ShowCallMessage bool   `json:"show_call_message"`
	CallMessageText string `json:"call_message_text"`
}

// DefaultSettings returns the settings used when no row has been saved.
func DefaultSettings() Settings {
	return Settings{
		ID:              SettingsID,
		MinAdvanceHours: 24,
		MaxAdvanceDays:  14,
		MaxWeeklySlots:  10,
		ShowCallMessage: true,
		CallMessageText: DefaultCallMessage,
	}
}

// Validate checks if the Settings have valid data.
// PRE: Settings struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Settings) Validate() error {
	if s.MinAdvanceHours < 0 || s.MaxAdvanceDays < 0 || s.MaxWeeklySlots < 0 {
		return ErrBadAdvance
	}
	return nil
}

// Hours is one bookable window on a weekday. Several rows per weekday are
// allowed; each row's start time is offered as a slot.
type Hours struct {
	ID          string `json:"id"`
	DayOfWeek   int    `json:"day_of_week"` // 0 = Sunday
	StartTime   string `json:"start_time"`  // HH:MM
	EndTime     string `json:"end_time"`    // HH:MM
	IsAvailable bool   `json:"is_available"`
}

// Validate checks if the Hours row has valid data.
// PRE: Hours struct is populated
// POST: Returns nil if valid, error otherwise
func (h *Hours) Validate() error {
	if h.DayOfWeek < 0 || h.DayOfWeek > 6 {
		return ErrInvalidDay
	}
	start, ok := ParseClock(h.StartTime)
	if !ok {
		return ErrInvalidClock
	}
	end, ok := ParseClock(h.EndTime)
	if !ok {
		return ErrInvalidClock
	}
	if end <= start {
		return ErrEndBeforeStart
	}
	return nil
}

// Block removes (or, when virtual, only marks) a time range on one date.
type Block struct {
	ID        string `json:"id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Time      string `json:"time"`
	Duration  int    `json:"duration"`
	IsVirtual bool   `json:"is_virtual"`
	Reason    string `json:"reason,omitempty"`
}

// Validate checks if the Block has valid data.
// PRE: Block struct is populated
// POST: Returns nil if valid, error otherwise
func (b *Block) Validate() error {
	if _, err := time.Parse("2006-01-02", b.Date); err != nil {
		return ErrInvalidDate
	}
	if _, ok := ParseClock(NormalizeBlockTime(b.Time)); !ok {
		return ErrInvalidClock
	}
	if b.Duration != 0 && (b.Duration < 15 || b.Duration > 480) {
		return ErrInvalidDuration
	}
	return nil
}

// NormalizeBlockTime rewrites "11" to "11:00" and "11:00:00" to "11:00".
// Other input is returned unchanged.
func NormalizeBlockTime(s string) string {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		return pad2(parts[0]) + ":00"
	case 3:
		return pad2(parts[0]) + ":" + pad2(parts[1])
	default:
		return s
	}
}

// ParseClock converts "HH:MM" (one-digit hours accepted) into minutes after midnight.
func ParseClock(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// FormatClock renders minutes after midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
