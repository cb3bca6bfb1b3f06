package http

import (
	"encoding/json"
	"net/http"

	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/pkg/httpx"
)

type AuthHandler struct {
	AccountService *service.AccountService
	TokenService   *service.TokenService
}

type signUpRequest struct {
	Name            string `json:"name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// HandleSignUp godoc
//
//	@Summary		Sign Up Endpoint
//	@Description	Register a new account and receive an initial token pair
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	domain.TokenPair
//	@Failure		400	{object}	httpx.Envelope	"VALIDATION_ERROR with per-field details"
//	@Router			/v1/auth/signup [post].
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid request body")
		return
	}

	fields := fieldErrors{}
	fields.checkName(req.Name)
	fields.checkUsername(req.Username)
	fields.checkEmail(req.Email)
	fields.checkPassword(req.Password, req.ConfirmPassword)
	if len(fields) > 0 {
		httpx.WriteValidationError(w, fields)
		return
	}

	pair, err := h.AccountService.SignUp(r.Context(), req.Name, req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusCreated, pair)
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleSignIn godoc
//
//	@Summary		Sign In Endpoint
//	@Description	Authenticate with username and password
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	domain.TokenPair
//	@Failure		401	{object}	httpx.Envelope	"UNAUTHORIZED"
//	@Failure		403	{object}	httpx.Envelope	"BANNED with bannedUntil details"
//	@Router			/v1/auth/signin [post].
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized,
			"Invalid username or password")
		return
	}

	pair, err := h.AccountService.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh godoc
//
//	@Summary		Token Refresh Endpoint
//	@Description	Exchange a valid refresh token for a new token pair built from the current profile
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	domain.TokenPair
//	@Failure		401	{object}	httpx.Envelope	"UNAUTHORIZED"
//	@Failure		403	{object}	httpx.Envelope	"BANNED with bannedUntil details"
//	@Failure		404	{object}	httpx.Envelope	"NOT_FOUND when the subject no longer exists"
//	@Router			/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized,
			"A refresh token is required")
		return
	}

	pair, err := h.TokenService.VerifyAndReissue(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, pair)
}

type checkResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// HandleCheck godoc
//
//	@Summary		Session Check Endpoint
//	@Description	Returns the identity baked into the presented access token. No database lookup happens here.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	checkResponse
//	@Failure		401	{object}	httpx.Envelope	"UNAUTHORIZED"
//	@Router			/v1/auth/check [get].
func (h *AuthHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Not signed in")
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, checkResponse{
		ID:       claims.Subject,
		Username: claims.Username,
		Name:     claims.Name,
	})
}
