package web

import (
	"net/http"

	"masgolf/internal/adapters/http/middleware"
	"masgolf/internal/domain/account"
)

// registerRoutes maps every endpoint. Reads under /api/admin need any
// signed-in role; writes need the permission category of their data.
func registerRoutes(mux *http.ServeMux) {
	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			middleware.TagRoute(r.Context(), pattern)
			h.ServeHTTP(w, r)
		}))
	}
	public := func(pattern string, h http.HandlerFunc) { handle(pattern, h) }
	reader := func(pattern string, h http.HandlerFunc) { handle(pattern, middleware.RequireAuth(h)) }
	writer := func(category, pattern string, h http.HandlerFunc) {
		handle(pattern, middleware.RequirePermission(category)(h))
	}
	admin := func(pattern string, h http.HandlerFunc) { handle(pattern, middleware.RequireAdmin(h)) }

	// Public site
	public("GET /healthz", handleHealth)
	public("GET /api/csrf", middleware.CSRFToken)
	public("POST /api/booking", handleSubmitBooking)
	public("GET /api/bookings/available", handleAvailability)
	public("POST /api/contact", handleSubmitContact)
	public("POST /api/quiz-result", handleSubmitQuiz)
	public("GET /api/blog", handlePublicBlogList)
	public("GET /api/blog/{slug}", handlePublicBlogPost)
	if services.Metrics != nil {
		handle("GET /metrics", services.Metrics.Handler())
	}

	// Auth
	public("POST /api/auth/login", handleLogin)
	public("POST /api/auth/logout", handleLogout)
	public("GET /api/auth/session", handleSession)

	// Bookings
	reader("GET /api/admin/bookings", handleAdminBookings)
	reader("GET /api/admin/bookings/export", handleAdminBookingsExport)
	reader("GET /api/admin/bookings/{id}", handleAdminBookingGet)
	writer(account.PermBookings, "PUT /api/admin/bookings/{id}", handleAdminBookingUpdate)
	writer(account.PermBookings, "DELETE /api/admin/bookings/{id}", handleAdminBookingDelete)

	// Contacts, customers, quiz results
	reader("GET /api/admin/contacts", handleAdminContacts)
	writer(account.PermContacts, "PUT /api/admin/contacts/{id}", handleAdminContactUpdate)
	writer(account.PermContacts, "DELETE /api/admin/contacts/{id}", handleAdminContactDelete)
	reader("GET /api/admin/customers", handleAdminCustomers)
	writer(account.PermCustomers, "POST /api/admin/customers/merge", handleAdminCustomersMerge)
	reader("GET /api/admin/quiz-results", handleAdminQuizResults)

	// Users
	admin("GET /api/admin/users", handleAdminUsers)
	admin("POST /api/admin/users", handleAdminUserCreate)
	admin("PUT /api/admin/users/{id}", handleAdminUserUpdate)
	admin("DELETE /api/admin/users/{id}", handleAdminUserDelete)

	// Outbox
	admin("GET /api/admin/outbox", handleAdminOutboxList)
	admin("POST /api/admin/outbox/{id}/retry", handleAdminOutboxRetry)
	admin("POST /api/admin/outbox/{id}/abandon", handleAdminOutboxAbandon)
	admin("POST /api/admin/outbox/purge", handleAdminOutboxPurge)

	// Blog and content calendar
	reader("GET /api/admin/blog", handleAdminBlogList)
	writer(account.PermContent, "POST /api/admin/blog", handleAdminBlogCreate)
	reader("GET /api/admin/blog/{id}", handleAdminBlogGet)
	writer(account.PermContent, "PUT /api/admin/blog/{id}", handleAdminBlogUpdate)
	writer(account.PermContent, "DELETE /api/admin/blog/{id}", handleAdminBlogDelete)
	reader("GET /api/admin/content-calendar/annual", handleAnnualPlan)
	writer(account.PermContent, "POST /api/admin/content-calendar/annual", handleAnnualPlanSeed)
	reader("GET /api/admin/content-calendar/hub", handleHubList)
	writer(account.PermContent, "POST /api/admin/content-calendar/hub", handleHubCreate)
	writer(account.PermContent, "POST /api/admin/content/generate", handleGenerateContent)

	// Images
	writer(account.PermImages, "POST /api/simple-ai-image-improvement", handleImproveImage)
	reader("GET /api/admin/image-metadata", handleImageMetadataList)
	writer(account.PermImages, "PUT /api/admin/image-metadata/{id}", handleImageMetadataUpdate)

	// SMS
	reader("GET /api/admin/sms", handleSMSList)
	writer(account.PermSMS, "POST /api/admin/sms/sync", handleSMSSync)

	// Monitoring
	reader("GET /api/admin/dashboard", handleDashboard)
	admin("GET /api/admin/perf", handlePerf)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "", nil)
}
