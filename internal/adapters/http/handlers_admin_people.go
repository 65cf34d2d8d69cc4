package web

import (
	"net/http"
	"strconv"

	contactStore "masgolf/internal/adapters/storage/contact"
	customerStore "masgolf/internal/adapters/storage/customer"
	"masgolf/internal/application/listutil"
	"masgolf/internal/application/orchestrators"
)

var (
	contactListOptions  = listutil.Admin(contactStore.SortColumns, "contacted")
	customerListOptions = listutil.Customers(customerStore.SortColumns)
	quizListOptions     = listutil.Admin([]string{"name", "created_at"})
)

// handleAdminContacts handles GET /api/admin/contacts?contacted=&q=.
func handleAdminContacts(w http.ResponseWriter, r *http.Request) {
	p := listutil.Parse(r.URL.Query(), contactListOptions)
	f := contactStore.Filter{Query: p.Search}
	if v, ok := p.Filters["contacted"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Contacted = &b
		}
	}
	list, total, err := stores.ContactStore.List(r.Context(), f, p.StoragePage())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"contacts":   orEmpty(list),
		"pagination": listutil.NewPageInfo(p, total),
	})
}

type contactUpdateRequest struct {
	Contacted bool `json:"contacted"`
}

// handleAdminContactUpdate handles PUT /api/admin/contacts/{id}.
func handleAdminContactUpdate(w http.ResponseWriter, r *http.Request) {
	var req contactUpdateRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	c, err := orchestrators.ExecuteSetContacted(r.Context(), r.PathValue("id"), req.Contacted, stores.ContactStore, timeNow)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "contact", c)
}

// handleAdminContactDelete handles DELETE /api/admin/contacts/{id}.
func handleAdminContactDelete(w http.ResponseWriter, r *http.Request) {
	if err := stores.ContactStore.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", nil)
}

// handleAdminCustomers handles GET /api/admin/customers.
func handleAdminCustomers(w http.ResponseWriter, r *http.Request) {
	p := listutil.Parse(r.URL.Query(), customerListOptions)
	list, total, err := stores.CustomerStore.List(r.Context(), p.Search, p.StoragePage())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"customers":  orEmpty(list),
		"pagination": listutil.NewPageInfo(p, total),
	})
}

type mergeRequest struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// handleAdminCustomersMerge handles POST /api/admin/customers/merge.
func handleAdminCustomersMerge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	res, err := orchestrators.ExecuteMergeCustomers(r.Context(), req.SourceID, req.TargetID, stores.CustomerStore, timeNow)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"customer":       res.Target,
		"moved_bookings": res.MovedBookings,
	})
}

// handleAdminQuizResults handles GET /api/admin/quiz-results.
func handleAdminQuizResults(w http.ResponseWriter, r *http.Request) {
	p := listutil.Parse(r.URL.Query(), quizListOptions)
	list, total, err := stores.QuizStore.List(r.Context(), p.Search, p.StoragePage())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"quiz_results": orEmpty(list),
		"pagination":   listutil.NewPageInfo(p, total),
	})
}
