// Package api exposes the image store over HTTP.
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/caseflow/imagestore/pkg/imagestore"
)

// maxRequestBytes caps the request body read. It is deliberately looser
// than the upload cap so oversized payloads reach the service and get a
// specific rejection instead of a connection reset.
const maxRequestBytes = 2 * imagestore.MaxUploadBytes

// FilesHandler handles image upload and view API endpoints
type FilesHandler struct {
	service   imagestore.Service
	tokenAuth *jwtauth.JWTAuth
}

// NewFilesHandler creates a new files handler
func NewFilesHandler(service imagestore.Service, tokenAuth *jwtauth.JWTAuth) *FilesHandler {
	return &FilesHandler{
		service:   service,
		tokenAuth: tokenAuth,
	}
}

// Routes returns the router for files endpoints
func (h *FilesHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.tokenAuth))
		r.Use(jwtauth.Authenticator)
		r.Post("/upload", h.UploadImage)
		r.Get("/", h.ListUploads)
	})

	// View is unauthenticated-tolerant: a valid token scopes the lookup
	// to the caller, but its absence only removes that preference.
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.tokenAuth))
		r.Get("/view/{fileName}", h.ViewImage)
	})

	return r
}

// UploadResponse represents the response after an image upload
type UploadResponse struct {
	Message     string `json:"message"`
	URL         string `json:"url"`
	Fingerprint string `json:"fingerprint"`
	FileName    string `json:"file_name,omitempty"`
	FileSize    int64  `json:"file_size,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

// UploadRecordResponse represents one catalog entry for an owner
type UploadRecordResponse struct {
	Fingerprint string    `json:"fingerprint"`
	ObjectKey   string    `json:"object_key"`
	FileName    string    `json:"file_name"`
	MimeType    string    `json:"mime_type"`
	FileSize    int64     `json:"file_size"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadImage accepts a multipart image upload and stores it
// content-addressed, reusing an existing object when the same owner
// already uploaded identical bytes.
func (h *FilesHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		renderError(w, r, http.StatusUnauthorized, "missing owner identity")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("No file in upload request", "owner", owner, "error", err)
		renderError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("Failed to read upload payload", "owner", owner, "error", err)
		renderError(w, r, http.StatusBadRequest, "failed to read file")
		return
	}

	result, err := h.service.Upload(r.Context(), imagestore.UploadRequest{
		Owner:        owner,
		FileName:     header.Filename,
		DeclaredType: header.Header.Get("Content-Type"),
		Data:         data,
	})
	if err != nil {
		h.renderUploadError(w, r, owner, err)
		return
	}

	status := http.StatusCreated
	message := "image uploaded"
	if result.Reused {
		status = http.StatusOK
		message = "image uploaded (existing file reused)"
	}

	slog.Info("Image upload",
		"owner", owner,
		"fingerprint", result.Fingerprint,
		"key", result.ObjectKey,
		"reused", result.Reused)

	render.Status(r, status)
	render.JSON(w, r, UploadResponse{
		Message:     message,
		URL:         result.URL,
		Fingerprint: result.Fingerprint.String(),
		FileName:    header.Filename,
		FileSize:    result.SizeBytes,
		MimeType:    result.MimeType,
	})
}

// ViewImage streams a stored image by its reference name. The lookup
// tries the caller's own namespace first (verified token, then the uid
// query hint) before falling back to the cross-owner and public tiers.
func (h *FilesHandler) ViewImage(w http.ResponseWriter, r *http.Request) {
	fileName := chi.URLParam(r, "fileName")

	ownerHint, ok := OwnerFromContext(r.Context())
	if !ok {
		ownerHint = r.URL.Query().Get("uid")
	}

	img, err := h.service.Resolve(r.Context(), fileName, ownerHint)
	if err != nil {
		switch {
		case errors.Is(err, imagestore.ErrObjectNotFound):
			renderError(w, r, http.StatusNotFound, "image not found")
		case errors.Is(err, imagestore.ErrInvalidReference):
			renderError(w, r, http.StatusBadRequest, "invalid image reference")
		case errors.Is(err, imagestore.ErrUnsupportedType):
			renderError(w, r, http.StatusBadRequest, "unsupported file type")
		default:
			slog.Error("Failed to resolve image", "name", fileName, "error", err)
			renderError(w, r, http.StatusInternalServerError, "failed to load image")
		}
		return
	}
	defer img.Body.Close()

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

	if _, err := io.Copy(w, img.Body); err != nil {
		// Headers are already written; nothing to do but log.
		slog.Warn("Failed to stream image", "key", img.ObjectKey, "error", err)
	}
}

// ListUploads returns the caller's upload catalog, newest first.
func (h *FilesHandler) ListUploads(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		renderError(w, r, http.StatusUnauthorized, "missing owner identity")
		return
	}

	records, err := h.service.ListUploads(r.Context(), owner)
	if err != nil {
		slog.Error("Failed to list uploads", "owner", owner, "error", err)
		renderError(w, r, http.StatusInternalServerError, "failed to list uploads")
		return
	}

	resp := make([]UploadRecordResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, UploadRecordResponse{
			Fingerprint: record.Fingerprint.String(),
			ObjectKey:   record.ObjectKey,
			FileName:    record.FileName,
			MimeType:    record.MimeType,
			FileSize:    record.SizeBytes,
			CreatedAt:   record.CreatedAt,
		})
	}

	render.JSON(w, r, resp)
}

func (h *FilesHandler) renderUploadError(w http.ResponseWriter, r *http.Request, owner string, err error) {
	switch {
	case errors.Is(err, imagestore.ErrMissingContent):
		renderError(w, r, http.StatusBadRequest, "no file provided")
	case errors.Is(err, imagestore.ErrUnsupportedType):
		renderError(w, r, http.StatusBadRequest, "only JPG, PNG, GIF and WEBP images are supported")
	case errors.Is(err, imagestore.ErrPayloadTooLarge):
		renderError(w, r, http.StatusBadRequest, "image must not exceed 5MB")
	case errors.Is(err, imagestore.ErrInvalidReference):
		renderError(w, r, http.StatusBadRequest, "invalid file name")
	default:
		slog.Error("Upload failed", "owner", owner, "error", err)
		renderError(w, r, http.StatusInternalServerError, "image upload failed")
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": message})
}
