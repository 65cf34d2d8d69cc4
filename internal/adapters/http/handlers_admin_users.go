package web

import (
	"net/http"

	"masgolf/internal/adapters/http/middleware"
	"masgolf/internal/application/orchestrators"
)

func userDeps() orchestrators.UserDeps {
	return orchestrators.UserDeps{AccountStore: stores.AccountStore, Now: timeNow}
}

// handleAdminUsers handles GET /api/admin/users?role=.
func handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	list, err := stores.AccountStore.List(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		internalError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "users", orEmpty(list))
}

type userCreateRequest struct {
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Role        string          `json:"role"`
	Password    string          `json:"password"`
	Permissions map[string]bool `json:"permissions"`
}

// handleAdminUserCreate handles POST /api/admin/users.
func handleAdminUserCreate(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	acct, err := orchestrators.ExecuteCreateUser(r.Context(), orchestrators.CreateUserInput{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		Role:        req.Role,
		Password:    req.Password,
		Permissions: req.Permissions,
	}, userDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "user", acct)
}

type userUpdateRequest struct {
	Name        *string         `json:"name"`
	Email       *string         `json:"email"`
	Role        *string         `json:"role"`
	Permissions map[string]bool `json:"permissions"`
	IsActive    *bool           `json:"is_active"`
	Password    *string         `json:"password"`
}

// handleAdminUserUpdate handles PUT /api/admin/users/{id}. Sessions of the
// edited account are revoked so new rights apply on the next login.
func handleAdminUserUpdate(w http.ResponseWriter, r *http.Request) {
	var req userUpdateRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	acct, err := orchestrators.ExecuteUpdateUser(r.Context(), orchestrators.UpdateUserInput{
		ID:          id,
		Name:        req.Name,
		Email:       req.Email,
		Role:        req.Role,
		Permissions: req.Permissions,
		IsActive:    req.IsActive,
		Password:    req.Password,
	}, userDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Role != nil || req.Permissions != nil || req.IsActive != nil || req.Password != nil {
		sessions.RevokeAccount(id)
	}
	writeSuccess(w, http.StatusOK, "user", acct)
}

// handleAdminUserDelete handles DELETE /api/admin/users/{id}.
func handleAdminUserDelete(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	id := r.PathValue("id")
	if err := orchestrators.ExecuteDeleteUser(r.Context(), id, sess.AccountID, userDeps()); err != nil {
		writeError(w, err)
		return
	}
	sessions.RevokeAccount(id)
	writeSuccess(w, http.StatusOK, "", nil)
}
