package web

import (
	"net/http"

	"masgolf/internal/domain/outbox"
)

// handleAdminOutboxList handles GET /api/admin/outbox?status=failed|all|<status>&limit=.
// The default lists failed entries.
func handleAdminOutboxList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	status := r.URL.Query().Get("status")
	switch status {
	case "":
		status = outbox.StatusFailed
	case "all":
		status = ""
	}

	entries, err := stores.OutboxStore.ListByStatus(r.Context(), status, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "entries", orEmpty(entries))
}

// handleAdminOutboxRetry handles POST /api/admin/outbox/{id}/retry: one
// immediate attempt with a fresh budget.
func handleAdminOutboxRetry(w http.ResponseWriter, r *http.Request) {
	if services.Outbox == nil {
		unavailable(w, "outbox processor")
		return
	}
	entry, err := services.Outbox.ProcessSingle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "entry", entry)
}

// handleAdminOutboxAbandon handles POST /api/admin/outbox/{id}/abandon.
func handleAdminOutboxAbandon(w http.ResponseWriter, r *http.Request) {
	if services.Outbox == nil {
		unavailable(w, "outbox processor")
		return
	}
	if err := services.Outbox.AbandonEntry(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": outbox.StatusAbandoned})
}

// handleAdminOutboxPurge handles POST /api/admin/outbox/purge: deletes
// abandoned entries, up to limit (default 500).
func handleAdminOutboxPurge(w http.ResponseWriter, r *http.Request) {
	if services.Outbox == nil {
		unavailable(w, "outbox processor")
		return
	}
	limit := queryInt(r, "limit", 500)
	if limit <= 0 || limit > 5000 {
		limit = 500
	}
	n, err := services.Outbox.PurgeAbandoned(r.Context(), limit)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "purged": n})
}
