package intake

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/ledgerline/docket/internal/normalize"
	"github.com/ledgerline/docket/internal/pipeline"
	"github.com/ledgerline/docket/pkg/handlers"
	"github.com/ledgerline/docket/pkg/routes"
)

// Handler provides HTTP endpoints for intake operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// textRequest is the JSON alternative to a multipart evidence upload.
type textRequest struct {
	DocumentText string `json:"document_text"`
}

// NewHandler creates a Handler with the given system, logger, and upload size limit.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "intake"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for intake endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/intake",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/sessions/{id}/ingest", Handler: h.Ingest},
			{Method: "POST", Pattern: "/sessions/{id}/stages/{stage}", Handler: h.Stage},
			{Method: "POST", Pattern: "/sessions/{id}/run", Handler: h.Run},
			{Method: "GET", Pattern: "/sessions/{id}/results", Handler: h.Results},
			{Method: "DELETE", Pattern: "/sessions/{id}", Handler: h.Reset},
		},
	}
}

// Ingest accepts an evidence batch, normalizes it, and records the
// ingest step without advancing the pipeline.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	batch, err := h.readBatch(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Ingest(r.Context(), r.PathValue("id"), batch)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Stage executes a single pipeline stage over pending and newly
// supplied evidence.
func (h *Handler) Stage(w http.ResponseWriter, r *http.Request) {
	stage, err := strconv.Atoi(r.PathValue("stage"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, pipeline.ErrUnknownStage)
		return
	}

	batch, err := h.readBatch(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	resp, err := h.sys.RunStage(r.Context(), r.PathValue("id"), stage, batch)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}

// Run executes the full pipeline over one evidence batch.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	batch, err := h.readBatch(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Run(r.Context(), r.PathValue("id"), batch)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Results returns the last recorded step sequence for a session.
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Results(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Reset clears all session state, including the runtime session.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.Reset(r.Context(), r.PathValue("id")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// readBatch decodes an evidence batch from either a multipart form
// (files plus optional document_text field) or a JSON body with a
// document_text string.
func (h *Handler) readBatch(r *http.Request) (Batch, error) {
	ct := r.Header.Get("Content-Type")

	if strings.HasPrefix(ct, "multipart/form-data") {
		return h.readMultipart(r)
	}

	if r.Body == nil || r.ContentLength == 0 {
		return Batch{}, nil
	}

	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return Batch{}, ErrInvalidUpload
	}

	return Batch{Text: req.DocumentText}, nil
}

func (h *Handler) readMultipart(r *http.Request) (Batch, error) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return Batch{}, ErrUploadTooLarge
	}

	var batch Batch
	batch.Text = r.FormValue("document_text")

	for _, header := range r.MultipartForm.File["files"] {
		doc, err := readFile(header)
		if err != nil {
			return Batch{}, err
		}
		batch.Documents = append(batch.Documents, doc)
	}

	return batch, nil
}

func readFile(header *multipart.FileHeader) (normalize.Document, error) {
	file, err := header.Open()
	if err != nil {
		return normalize.Document{}, ErrInvalidUpload
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return normalize.Document{}, ErrInvalidUpload
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), data)

	return normalize.Document{
		Name:        header.Filename,
		ContentType: contentType,
		Kind:        normalize.DetectKind(contentType),
		Data:        data,
	}, nil
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}
