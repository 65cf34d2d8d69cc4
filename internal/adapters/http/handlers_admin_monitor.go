package web

import (
	"net/http"
	"time"

	"masgolf/internal/application/projections"
)

const (
	perfWindow = time.Hour
	perfTopN   = 10
)

// handleDashboard handles GET /api/admin/dashboard.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := projections.GetDashboard(r.Context(), projections.DashboardDeps{
		Bookings:  stores.BookingStore,
		Contacts:  stores.ContactStore,
		Customers: stores.CustomerStore,
		Quiz:      stores.QuizStore,
		Outbox:    stores.OutboxStore,
		Location:  settings.Location,
	}, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "dashboard", d)
}

// handlePerf handles GET /api/admin/perf?minutes=: request and query timings
// over the window, slowest routes first.
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if services.Perf == nil {
		unavailable(w, "performance collector")
		return
	}
	window := perfWindow
	if m := queryInt(r, "minutes", 0); m > 0 && m <= 24*60 {
		window = time.Duration(m) * time.Minute
	}
	writeSuccess(w, http.StatusOK, "perf", services.Perf.Snapshot(timeNow().Add(-window), perfTopN))
}
