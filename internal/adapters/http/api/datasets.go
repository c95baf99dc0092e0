package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/okian/loftmatch/internal/adapters/loader"
	"github.com/okian/loftmatch/pkg/logger"
)

const xlsxMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DatasetsHandler handles dataset upload, listing and removal.
type DatasetsHandler struct {
	deps     Dependencies
	maxBytes int64
	log      logger.Logger
}

// NewDatasetsHandler creates a new datasets handler.
func NewDatasetsHandler(deps Dependencies, maxBytes int64, log logger.Logger) *DatasetsHandler {
	return &DatasetsHandler{deps: deps, maxBytes: maxBytes, log: log}
}

// HandleUpload handles POST /datasets?name=&format= requests. The body is
// the raw CSV or XLSX file.
func (h *DatasetsHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	format, err := uploadFormat(r, name)
	if err != nil {
		writeDomainError(r.Context(), h.log, w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: limit is %d bytes", ErrPayloadTooLarge, tooLarge.Limit)
		} else {
			err = fmt.Errorf("%w: read body: %w", ErrBadRequest, err)
		}
		writeDomainError(r.Context(), h.log, w, err)
		return
	}
	if len(body) == 0 {
		writeDomainError(r.Context(), h.log, w, fmt.Errorf("%w: empty body", ErrBadRequest))
		return
	}

	summary, err := h.deps.LoadDataset(r.Context(), name, bytes.NewReader(body), format)
	if err != nil {
		writeDomainError(r.Context(), h.log, w, err)
		return
	}
	w.Header().Set("Location", "/datasets/"+summary.SessionID)
	writeJSON(w, http.StatusCreated, summary)
}

// HandleCandidates handles GET /datasets/{id}/candidates requests.
func (h *DatasetsHandler) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Candidates(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleDelete handles DELETE /datasets/{id} requests.
func (h *DatasetsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(r.Context(), h.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadFormat resolves the dataset format from the format query parameter,
// then the dataset name extension, then the Content-Type header.
func uploadFormat(r *http.Request, name string) (loader.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return loader.ParseFormat(f)
	}
	if name != "" {
		if f, err := loader.FormatFromName(name); err == nil {
			return f, nil
		}
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil {
		switch mediaType {
		case "text/csv", "application/csv":
			return loader.FormatCSV, nil
		case xlsxMediaType:
			return loader.FormatXLSX, nil
		}
	}
	return "", fmt.Errorf("%w: set format=csv|xlsx or a name with an extension", loader.ErrUnsupportedFormat)
}
