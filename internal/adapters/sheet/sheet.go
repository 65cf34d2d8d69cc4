// Package sheet writes booking spreadsheets for the admin export and
// reads CSV or XLSX exports for the Wix import.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"masgolf/internal/domain/booking"
)

// BookingSheet is the worksheet name used by WriteBookings.
const BookingSheet = "예약"

var (
	ErrEmptySheet    = errors.New("spreadsheet is empty")
	ErrMultipleSheet = errors.New("spreadsheet must contain a single worksheet")
)

var bookingHeader = []any{"이름", "연락처", "이메일", "날짜", "시간", "소요(분)", "클럽", "상태", "메모", "유입", "신청일시"}

var statusLabels = map[string]string{
	booking.StatusPending:   "대기",
	booking.StatusConfirmed: "확정",
	booking.StatusCompleted: "완료",
	booking.StatusCancelled: "취소",
}

// WriteBookings writes bookings as a single-sheet .xlsx workbook to w.
// Timestamps are rendered in loc.
// POST: Row 1 is the header; one row per booking follows in input order
func WriteBookings(w io.Writer, bookings []booking.Booking, loc *time.Location) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), BookingSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(BookingSheet, "A1", &bookingHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(BookingSheet, 1, 1, bold)
	}

	for i, b := range bookings {
		status := statusLabels[b.Status]
		if status == "" {
			status = b.Status
		}
		row := []any{
			b.Name, b.Phone, b.Email, b.Date, b.Time, b.Duration,
			b.Club, status, b.Memo, b.CampaignSource,
			b.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(BookingSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(BookingSheet, "A", "C", 16)
	_ = f.SetColWidth(BookingSheet, "I", "I", 40)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadRows returns every row of a CSV or XLSX file, chosen by the file
// extension of name. A leading UTF-8 BOM on CSV input is dropped.
func ReadRows(name string, data []byte) ([][]string, error) {
	var rows [][]string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer func() { _ = f.Close() }()
		sheets := f.GetSheetList()
		if len(sheets) > 1 {
			return nil, ErrMultipleSheet
		}
		if len(sheets) == 0 {
			return nil, ErrEmptySheet
		}
		rows, err = f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("read rows: %w", err)
		}
	default:
		r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		var err error
		rows, err = r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return rows, nil
}
