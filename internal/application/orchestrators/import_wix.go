package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"masgolf/internal/domain/booking"
	"masgolf/internal/domain/contactinfo"
)

// ImportWixDeps holds dependencies for ImportWix.
type ImportWixDeps struct {
	BookingStore interface {
		ListAll(ctx context.Context) ([]booking.Booking, error)
		Save(ctx context.Context, b booking.Booking) error
	}
	GenerateID func() string
	Now        func() time.Time
}

// wixColumns maps each field to its accepted headers, Korean export first.
var wixColumns = map[string][]string{
	"name":       {"이름", "name", "full name"},
	"phone":      {"전화번호", "전화", "phone", "phone number"},
	"email":      {"이메일", "email"},
	"start":      {"예약 시작 시간", "start time", "booking start time", "date"},
	"end":        {"예약 종료 시간", "end time", "booking end time"},
	"registered": {"등록일", "registration date", "created date"},
	"status":     {"예약 상태", "booking status", "status"},
	"attendance": {"참석 여부", "attendance"},
	"club":       {"양식 응답 0", "club"},
	"memo":       {"양식 응답 3", "notes"},
}

var wixDatePattern = regexp.MustCompile(`(\d{4})\.\s*(\d{1,2})\.\s*(\d{1,2})\.?\s*(오전|오후)?\s*(\d{1,2}):(\d{2})`)

// ParseWixDateTime parses "2025. 09. 22. 오후 03:57" style timestamps,
// falling back to ISO forms. 오후 adds 12 hours except at 12; 오전 12 is 0.
// POST: ok is false when nothing matched
func ParseWixDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if m := wixDatePattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		hour, _ := strconv.Atoi(m[5])
		minute, _ := strconv.Atoi(m[6])
		switch {
		case m[4] == "오후" && hour != 12:
			hour += 12
		case m[4] == "오전" && hour == 12:
			hour = 0
		}
		if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
			return time.Time{}, false
		}
		t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
		if t.Day() != day {
			// 2025. 02. 30. would otherwise normalize into March
			return time.Time{}, false
		}
		return t, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExecuteImportWix imports a Wix booking export. Rows missing name, phone
// or start time are skipped with a reason; rows matching an existing
// booking's phone, date and time are skipped as duplicates.
// PRE: rows[0] is the header row
// POST: With dryRun nothing is written; counts are identical either way
func ExecuteImportWix(ctx context.Context, rows [][]string, dryRun bool, deps ImportWixDeps) (MaintenanceResult, error) {
	res := MaintenanceResult{Command: "import-wix", DryRun: dryRun}
	if len(rows) == 0 {
		return res, fmt.Errorf("import file has no header row")
	}
	col := wixHeader(rows[0])
	for _, required := range []string{"name", "phone", "start"} {
		if _, ok := col[required]; !ok {
			return res, fmt.Errorf("import file missing column %q", wixColumns[required][0])
		}
	}

	existing, err := deps.BookingStore.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list bookings: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, b := range existing {
		seen[b.DuplicateKey()] = true
	}
	now := clock(deps.Now)

	for i, row := range rows[1:] {
		line := i + 2
		cell := func(field string) string {
			idx, ok := col[field]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if strings.Join(row, "") == "" {
			continue
		}
		res.Scanned++

		name, phone := cell("name"), contactinfo.NormalizePhoneLoose(cell("phone"))
		start, ok := ParseWixDateTime(cell("start"))
		switch {
		case name == "":
			res.skip("row %d: missing name", line)
			continue
		case phone == "":
			res.skip("row %d: missing phone", line)
			continue
		case !ok:
			res.skip("row %d: unparseable start time %q", line, cell("start"))
			continue
		}

		b := booking.Booking{
			ID:        deps.GenerateID(),
			Name:      name,
			Phone:     phone,
			Email:     contactinfo.CleanEmail(cell("email")),
			Date:      start.Format("2006-01-02"),
			Time:      start.Format("15:04"),
			Duration:  booking.DefaultDuration,
			Club:      cell("club"),
			Memo:      cell("memo"),
			Status:    wixStatus(cell("status"), cell("attendance")),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if end, ok := ParseWixDateTime(cell("end")); ok {
			if d := int(end.Sub(start).Minutes()); d >= 15 && d <= 480 {
				b.Duration = d
			}
		}
		if reg, ok := ParseWixDateTime(cell("registered")); ok {
			b.CreatedAt = reg
		}
		b.CampaignSource = "wix"
		b.Normalize()

		if err := b.Validate(); err != nil {
			res.skip("row %d: %v", line, err)
			continue
		}
		key := b.DuplicateKey()
		if seen[key] {
			res.skip("row %d: duplicate booking %s", line, key)
			continue
		}
		seen[key] = true

		res.change("row %d: %s %s %s", line, b.Name, b.Date, b.Time)
		if dryRun {
			continue
		}
		if err := deps.BookingStore.Save(ctx, b); err != nil {
			res.fail(fmt.Sprintf("row %d", line), err)
		}
	}
	slog.Info("wix_import_finished", "dry_run", dryRun, "scanned", res.Scanned, "imported", res.Changed, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

func wixHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for field, names := range wixColumns {
			if _, done := idx[field]; done {
				continue
			}
			for _, n := range names {
				if h == n {
					idx[field] = i
				}
			}
		}
	}
	return idx
}

func wixStatus(status, attendance string) string {
	a := strings.ToLower(attendance)
	switch {
	case strings.Contains(a, "취소") || strings.Contains(a, "cancel"):
		return booking.StatusCancelled
	case strings.Contains(a, "참석") || strings.Contains(a, "attended"):
		return booking.StatusCompleted
	}
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case strings.Contains(s, "취소") || strings.Contains(s, "cancel"):
		return booking.StatusCancelled
	case s == "확인됨" || s == "confirmed":
		return booking.StatusConfirmed
	}
	return booking.StatusPending
}
