package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"masgolf/internal/adapters/imagegen"
	"masgolf/internal/adapters/supabase"
	"masgolf/internal/application/orchestrators"
	"masgolf/internal/application/projections"
	"masgolf/internal/domain/account"
	"masgolf/internal/domain/blog"
	"masgolf/internal/domain/booking"
	"masgolf/internal/domain/calendar"
	"masgolf/internal/domain/channelsms"
	"masgolf/internal/domain/contact"
	"masgolf/internal/domain/customer"
	"masgolf/internal/domain/imagemeta"
	"masgolf/internal/domain/outbox"
	"masgolf/internal/domain/quiz"
	"masgolf/internal/domain/schedule"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// writeJSON writes v with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err.Error())
	}
}

// writeSuccess writes {"success":true, key: value}. An empty key writes
// only the flag.
func writeSuccess(w http.ResponseWriter, status int, key string, value any) {
	body := map[string]any{"success": true}
	if key != "" {
		body[key] = value
	}
	writeJSON(w, status, body)
}

// writeFailure writes {"success":false,"message":message}.
func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeFailure(w, http.StatusInternalServerError, "internal server error")
}

// strictDecode decodes a JSON body, rejecting unknown fields and bodies
// over maxBodyBytes.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

var errEmptyBody = errors.New("request body is required")

// errorStatus maps errors a client can act on to their status; everything
// else is a 500.
var errorStatus = map[error]int{
	errEmptyBody: http.StatusBadRequest,

	booking.ErrEmptyName:     http.StatusBadRequest,
	booking.ErrNameTooLong:   http.StatusBadRequest,
	booking.ErrEmptyPhone:    http.StatusBadRequest,
	booking.ErrInvalidDate:   http.StatusBadRequest,
	booking.ErrInvalidTime:   http.StatusBadRequest,
	booking.ErrInvalidStatus: http.StatusBadRequest,
	booking.ErrMemoTooLong:   http.StatusBadRequest,
	booking.ErrClubTooLong:   http.StatusBadRequest,
	booking.ErrBadDuration:   http.StatusBadRequest,

	contact.ErrEmptyName:      http.StatusBadRequest,
	contact.ErrNameTooLong:    http.StatusBadRequest,
	contact.ErrEmptyPhone:     http.StatusBadRequest,
	contact.ErrInquiryTooLong: http.StatusBadRequest,

	quiz.ErrEmptyName:   http.StatusBadRequest,
	quiz.ErrNameTooLong: http.StatusBadRequest,
	quiz.ErrEmptyPhone:  http.StatusBadRequest,

	customer.ErrEmptyName:    http.StatusBadRequest,
	customer.ErrEmptyPhone:   http.StatusBadRequest,
	customer.ErrSameCustomer: http.StatusBadRequest,
	customer.ErrMissingIDs:   http.StatusBadRequest,
	customer.ErrInvalidMerge: http.StatusNotFound,

	account.ErrEmptyName:         http.StatusBadRequest,
	account.ErrNameTooLong:       http.StatusBadRequest,
	account.ErrInvalidPhone:      http.StatusBadRequest,
	account.ErrInvalidRole:       http.StatusBadRequest,
	account.ErrUnknownPermission: http.StatusBadRequest,
	account.ErrEmptyPassword:     http.StatusBadRequest,
	account.ErrPasswordTooShort:  http.StatusBadRequest,
	account.ErrDeleteSelf:        http.StatusBadRequest,

	orchestrators.ErrInvalidCredentials: http.StatusUnauthorized,
	orchestrators.ErrAccountInactive:    http.StatusForbidden,
	orchestrators.ErrAccountLocked:      http.StatusLocked,
	orchestrators.ErrPhoneTaken:         http.StatusConflict,
	orchestrators.ErrLastAdmin:          http.StatusConflict,
	orchestrators.ErrSlugTaken:          http.StatusConflict,
	orchestrators.ErrNoChannels:         http.StatusBadRequest,
	orchestrators.ErrUnknownChannel:     http.StatusBadRequest,
	orchestrators.ErrImageURLScheme:     http.StatusBadRequest,
	orchestrators.ErrYearOutOfRange:     http.StatusBadRequest,

	blog.ErrEmptyTitle:    http.StatusBadRequest,
	blog.ErrTitleTooLong:  http.StatusBadRequest,
	blog.ErrInvalidSlug:   http.StatusBadRequest,
	blog.ErrInvalidStatus: http.StatusBadRequest,

	calendar.ErrEmptyTitle:      http.StatusBadRequest,
	calendar.ErrTitleTooLong:    http.StatusBadRequest,
	calendar.ErrInvalidType:     http.StatusBadRequest,
	calendar.ErrInvalidStatus:   http.StatusBadRequest,
	calendar.ErrInvalidSeason:   http.StatusBadRequest,
	calendar.ErrInvalidChannel:  http.StatusBadRequest,
	calendar.ErrInvalidPriority: http.StatusBadRequest,
	calendar.ErrInvalidDate:     http.StatusBadRequest,
	calendar.ErrInvalidMonth:    http.StatusBadRequest,

	schedule.ErrInvalidDate:     http.StatusBadRequest,
	schedule.ErrInvalidDuration: http.StatusBadRequest,

	imagemeta.ErrEmptyURL:       http.StatusBadRequest,
	imagemeta.ErrAltTooLong:     http.StatusBadRequest,
	imagemeta.ErrTitleTooLong:   http.StatusBadRequest,
	imagemeta.ErrTooManyKeyword: http.StatusBadRequest,

	channelsms.ErrEmptyGroupID: http.StatusBadRequest,

	outbox.ErrNotRetryable: http.StatusConflict,
	outbox.ErrAlreadyFinal: http.StatusConflict,

	projections.ErrPostNotFound: http.StatusNotFound,
	sql.ErrNoRows:               http.StatusNotFound,

	imagegen.ErrNotConfigured: http.StatusServiceUnavailable,
	supabase.ErrNotConfigured: http.StatusServiceUnavailable,
}

// writeError answers err with the status errorStatus assigns it, or a
// logged 500. Client-facing messages are the sentinel texts only.
func writeError(w http.ResponseWriter, err error) {
	for target, status := range errorStatus {
		if errors.Is(err, target) {
			msg := target.Error()
			if status == http.StatusNotFound && target == sql.ErrNoRows {
				msg = "not found"
			}
			writeFailure(w, status, msg)
			return
		}
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeFailure(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		writeFailure(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	internalError(w, err)
}

// decodeOrFail decodes the body into v, answering 400 on failure.
// POST: Returns false when a response was written
func decodeOrFail(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := strictDecode(w, r, v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeFailure(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		if errors.Is(err, errEmptyBody) {
			writeFailure(w, http.StatusBadRequest, errEmptyBody.Error())
			return false
		}
		writeFailure(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// unavailable answers 503 for an integration that is not configured.
func unavailable(w http.ResponseWriter, what string) {
	slog.Warn("integration_unavailable", "integration", what)
	writeFailure(w, http.StatusServiceUnavailable, what+" is not configured")
}

// orEmpty keeps empty listings encoding as [] instead of null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// queryInt reads an integer query parameter, falling back to def.
func queryInt(r *http.Request, key string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return def
}
