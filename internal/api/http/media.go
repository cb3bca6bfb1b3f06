package http

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/pkg/httpx"
)

// imageFromMultipart pulls the "image" file out of a multipart form and
// returns it with its declared content type. The whole request body is
// capped at the image size limit plus some slack for the other form fields;
// a false return means the error response has already been written.
func imageFromMultipart(w http.ResponseWriter, r *http.Request) (multipart.File, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageBytes+(64<<10))

	if err := r.ParseMultipartForm(service.MaxImageBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteValidationError(w, map[string]string{"image": "Image must be at most 9 MiB"})
			return nil, "", false
		}
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid multipart body")
		return nil, "", false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.WriteValidationError(w, map[string]string{"image": "An image file is required"})
		return nil, "", false
	}

	return file, header.Header.Get("Content-Type"), true
}
