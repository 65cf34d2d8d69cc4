package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"masgolf/internal/adapters/sheet"
	"masgolf/internal/adapters/storage"
	bookingStore "masgolf/internal/adapters/storage/booking"
	"masgolf/internal/application/listutil"
	"masgolf/internal/application/orchestrators"
	"masgolf/internal/application/projections"
)

// maxExportRows bounds one spreadsheet export.
const maxExportRows = 10000

var bookingListOptions = listutil.Admin(bookingStore.SortColumns, "status", "date_filter", "customer_id")

func bookingFilter(p listutil.Params) bookingStore.Filter {
	f := bookingStore.Filter{
		Query:      p.Search,
		Status:     p.Filters["status"],
		CustomerID: p.Filters["customer_id"],
	}
	if df := p.Filters["date_filter"]; df != "" && df != "all" {
		f.DateFrom, f.DateTo = projections.BookingDateRange(df, timeNow(), settings.Location)
	}
	return f
}

// handleAdminBookings handles GET /api/admin/bookings.
func handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	p := listutil.Parse(r.URL.Query(), bookingListOptions)
	list, total, err := stores.BookingStore.List(r.Context(), bookingFilter(p), p.StoragePage())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"bookings":   orEmpty(list),
		"pagination": listutil.NewPageInfo(p, total),
	})
}

// handleAdminBookingsExport handles GET /api/admin/bookings/export. The
// listing filters apply; pagination does not.
func handleAdminBookingsExport(w http.ResponseWriter, r *http.Request) {
	p := listutil.Parse(r.URL.Query(), bookingListOptions)
	page := storage.Page{Limit: maxExportRows, Sort: p.Sort, Desc: p.Desc}
	list, _, err := stores.BookingStore.List(r.Context(), bookingFilter(p), page)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := sheet.WriteBookings(&buf, list, settings.Location); err != nil {
		internalError(w, err)
		return
	}
	name := fmt.Sprintf("bookings-%s.xlsx", timeNow().In(settings.Location).Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

// handleAdminBookingGet handles GET /api/admin/bookings/{id}.
func handleAdminBookingGet(w http.ResponseWriter, r *http.Request) {
	b, err := stores.BookingStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "booking", b)
}

type bookingUpdateRequest struct {
	Status   *string `json:"status"`
	Memo     *string `json:"memo"`
	Date     *string `json:"date"`
	Time     *string `json:"time"`
	Duration *int    `json:"duration"`
	Club     *string `json:"club"`
}

// handleAdminBookingUpdate handles PUT /api/admin/bookings/{id}.
func handleAdminBookingUpdate(w http.ResponseWriter, r *http.Request) {
	var req bookingUpdateRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	b, err := orchestrators.ExecuteUpdateBooking(r.Context(), orchestrators.UpdateBookingInput{
		ID:       r.PathValue("id"),
		Status:   req.Status,
		Memo:     req.Memo,
		Date:     req.Date,
		Time:     req.Time,
		Duration: req.Duration,
		Club:     req.Club,
	}, orchestrators.UpdateBookingDeps{BookingStore: stores.BookingStore, Now: timeNow})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "booking", b)
}

// handleAdminBookingDelete handles DELETE /api/admin/bookings/{id}.
func handleAdminBookingDelete(w http.ResponseWriter, r *http.Request) {
	if err := stores.BookingStore.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", nil)
}
