package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/internal/api/store"
	"github.com/glimpse-social/glimpse/pkg/httpx"
	"github.com/glimpse-social/glimpse/pkg/slogx"
)

// writeServiceError maps service and store errors onto the API envelope.
// Anything unrecognized is logged and reported as a 500 without leaking the
// underlying message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var banned *service.BannedError
	switch {
	case errors.As(err, &banned):
		httpx.WriteErrorDetails(w, http.StatusForbidden, httpx.CodeBanned,
			"This account is banned",
			map[string]string{"bannedUntil": banned.Until.UTC().Format(time.RFC3339)})

	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized,
			"Invalid username or password")

	case errors.Is(err, service.ErrInvalidRefresh):
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized,
			"Invalid refresh token")

	case errors.Is(err, service.ErrExpiredRefresh):
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized,
			"Expired refresh token")

	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound,
			"The requested resource was not found")

	case errors.Is(err, service.ErrNotPostAuthor), errors.Is(err, service.ErrNotCommentAuthor):
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden,
			"You do not have permission to do that")

	case errors.Is(err, service.ErrUsernameTaken):
		httpx.WriteValidationError(w, map[string]string{"username": "This username is already taken"})

	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteValidationError(w, map[string]string{"email": "This email is already registered"})

	case errors.Is(err, service.ErrSelfFollow):
		httpx.WriteValidationError(w, map[string]string{"username": "You cannot follow yourself"})

	case errors.Is(err, service.ErrUnsupportedImage):
		httpx.WriteValidationError(w, map[string]string{"image": "Only JPEG, PNG and WebP images are accepted"})

	case errors.Is(err, service.ErrImageTooLarge):
		httpx.WriteValidationError(w, map[string]string{"image": "Image must be at most 9 MiB"})

	default:
		slogx.FromContext(r.Context()).Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal,
			"Something went wrong")
	}
}
