package http

import (
	"encoding/json"
	"net/http"

	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/pkg/httpx"
)

type AccountHandler struct {
	AccountService *service.AccountService
}

type accountResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Role      string `json:"role"`
}

// HandleGet godoc
//
//	@Summary	Get Own Account
//	@Tags		Account
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	accountResponse
//	@Router		/v1/account [get].
func (h *AccountHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.AccountService.GetUserByID(r.Context(), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, accountResponse{
		ID:        user.ID,
		Name:      user.Name,
		Username:  user.Username,
		Email:     user.Email,
		Bio:       user.Bio,
		AvatarURL: user.AvatarURL,
		Role:      user.Role,
	})
}

type updateAccountRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// HandleUpdate godoc
//
//	@Summary	Update Own Profile
//	@Tags		Account
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	accountResponse
//	@Failure	400	{object}	httpx.Envelope	"VALIDATION_ERROR"
//	@Router		/v1/account [patch].
func (h *AccountHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid request body")
		return
	}

	fields := fieldErrors{}
	fields.checkName(req.Name)
	fields.checkBio(req.Bio)
	if len(fields) > 0 {
		httpx.WriteValidationError(w, fields)
		return
	}

	userID := httpx.UserIDFromCtx(r.Context())
	if err := h.AccountService.UpdateProfile(r.Context(), userID, req.Name, req.Bio); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.HandleGet(w, r)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// HandleChangePassword godoc
//
//	@Summary	Change Password
//	@Tags		Account
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Success	204
//	@Failure	400	{object}	httpx.Envelope	"VALIDATION_ERROR"
//	@Router		/v1/account/password [put].
func (h *AccountHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid request body")
		return
	}

	fields := fieldErrors{}
	fields.checkPassword(req.NewPassword, req.ConfirmPassword)
	if len(fields) > 0 {
		httpx.WriteValidationError(w, fields)
		return
	}

	userID := httpx.UserIDFromCtx(r.Context())
	err := h.AccountService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err == service.ErrWrongPassword {
		httpx.WriteValidationError(w, map[string]string{"currentPassword": "Current password is incorrect"})
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetAvatar godoc
//
//	@Summary	Upload Avatar
//	@Tags		Account
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Produce	json
//	@Success	200	{object}	map[string]string	"avatarUrl"
//	@Failure	400	{object}	httpx.Envelope		"VALIDATION_ERROR"
//	@Router		/v1/account/avatar [put].
func (h *AccountHandler) HandleSetAvatar(w http.ResponseWriter, r *http.Request) {
	file, contentType, ok := imageFromMultipart(w, r)
	if !ok {
		return
	}
	defer file.Close()

	url, err := h.AccountService.SetAvatar(r.Context(), httpx.UserIDFromCtx(r.Context()), contentType, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, map[string]string{"avatarUrl": url})
}

// HandleRemoveAvatar godoc
//
//	@Summary	Remove Avatar
//	@Tags		Account
//	@Security	BearerAuth
//	@Success	204
//	@Router		/v1/account/avatar [delete].
func (h *AccountHandler) HandleRemoveAvatar(w http.ResponseWriter, r *http.Request) {
	if err := h.AccountService.RemoveAvatar(r.Context(), httpx.UserIDFromCtx(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
