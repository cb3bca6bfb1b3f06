package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/internal/api/store"
	"github.com/glimpse-social/glimpse/pkg/httpx"
)

type AdminHandler struct {
	AdminService *service.AdminService
}

// RequireAdmin checks the authenticated user's role against the database.
// The role is deliberately not in the token: promotions and demotions apply
// on the very next request instead of after a token refresh.
func RequireAdmin(st store.Store) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := st.Users().GetUserByID(r.Context(), httpx.UserIDFromCtx(r.Context()))
			if err != nil || !user.IsAdmin() {
				httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden,
					"Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HandleDeleteUser godoc
//
//	@Summary		Delete User (admin)
//	@Description	Removes the account, all of its rows, and its stored media in bulk batches
//	@Tags			Admin
//	@Security		BearerAuth
//	@Param			username	path	string	true	"Username to delete"
//	@Success		204
//	@Failure		403	{object}	httpx.Envelope	"FORBIDDEN"
//	@Failure		404	{object}	httpx.Envelope	"NOT_FOUND"
//	@Router			/v1/admin/users/{username} [delete].
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.AdminService.DeleteUser(r.Context(), r.PathValue("username")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type banRequest struct {
	Username    string `json:"username"`
	BannedUntil string `json:"bannedUntil"` // RFC 3339
}

type banResponse struct {
	Username    string `json:"username"`
	BannedUntil string `json:"bannedUntil,omitempty"`
}

// HandleBan godoc
//
//	@Summary		Ban User (admin)
//	@Description	Blocks the account until the given time. Live access tokens keep working until they expire; refreshes are refused immediately.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	banResponse
//	@Failure		400	{object}	httpx.Envelope	"VALIDATION_ERROR"
//	@Failure		404	{object}	httpx.Envelope	"NOT_FOUND"
//	@Router			/v1/admin/users/ban [post].
func (h *AdminHandler) HandleBan(w http.ResponseWriter, r *http.Request) {
	var req banRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid request body")
		return
	}

	fields := fieldErrors{}
	if req.Username == "" {
		fields["username"] = "Username is required"
	}
	until, err := time.Parse(time.RFC3339, req.BannedUntil)
	if err != nil {
		fields["bannedUntil"] = "bannedUntil must be an RFC 3339 timestamp"
	} else if !until.After(time.Now()) {
		fields["bannedUntil"] = "bannedUntil must be in the future"
	}
	if len(fields) > 0 {
		httpx.WriteValidationError(w, fields)
		return
	}

	user, err := h.AdminService.Ban(r.Context(), req.Username, until)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, banResponse{
		Username:    user.Username,
		BannedUntil: user.BannedUntil.UTC().Format(time.RFC3339),
	})
}

type unbanRequest struct {
	Username string `json:"username"`
}

// HandleUnban godoc
//
//	@Summary	Unban User (admin)
//	@Tags		Admin
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	banResponse
//	@Failure	404	{object}	httpx.Envelope	"NOT_FOUND"
//	@Router		/v1/admin/users/unban [post].
func (h *AdminHandler) HandleUnban(w http.ResponseWriter, r *http.Request) {
	var req unbanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid request body")
		return
	}

	user, err := h.AdminService.Unban(r.Context(), req.Username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, banResponse{Username: user.Username})
}
