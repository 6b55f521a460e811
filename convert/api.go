package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/legaldoc/docpipe"
	"github.com/hazyhaar/legaldoc/kit"
	"github.com/hazyhaar/legaldoc/markdown"
	"github.com/hazyhaar/legaldoc/shield"
)

// uploadField is the multipart field carrying the documents.
const uploadField = "document"

// multipartMemory is the part of an upload kept in memory; the rest spills
// to temporary files.
const multipartMemory = 32 << 20

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// MaxBody caps request bodies (default: no cap).
	MaxBody int64
	Logger  *slog.Logger
}

type api struct {
	svc    *Service
	logger *slog.Logger
}

// NewRouter returns the HTTP API:
//
//	GET  /healthz       liveness
//	GET  /api/formats   supported formats and suffixes
//	POST /api/convert   multipart upload, field "document", repeatable
//	POST /api/preview   {"markdown": "..."} → sanitized HTML
//	GET  /metrics       Prometheus exposition
func NewRouter(svc *Service, cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	a := &api{svc: svc, logger: cfg.Logger}

	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(shield.StackConfig{MaxBody: cfg.MaxBody, Logger: cfg.Logger}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/formats", a.handleFormats)
	r.Post("/api/convert", a.handleConvert)
	r.Post("/api/preview", a.handlePreview)
	if m := svc.Metrics(); m != nil {
		r.Handle("/metrics", m.Handler())
	}
	return r
}

func (a *api) handleFormats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"formats":  docpipe.SupportedFormats(),
		"suffixes": docpipe.SupportedSuffixes(),
	})
}

// convertItem is one entry of the /api/convert response.
type convertItem struct {
	*Result
	Filename string `json:"filename"`
	Error    string `json:"error,omitempty"`
}

func (a *api) handleConvert(w http.ResponseWriter, r *http.Request) {
	logger := kit.Logger(r.Context(), a.logger)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonErr(w, "Solicitud demasiado grande", http.StatusRequestEntityTooLarge)
			return
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			jsonErr(w, ErrEmptyBatch.Error(), http.StatusBadRequest)
			return
		}
		jsonErr(w, fmt.Sprintf("Formulario inválido: %v", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadField]
	items := make([]Item, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			logger.Warn("upload read failed", "filename", fh.Filename, "error", err)
			jsonErr(w, fmt.Sprintf("No se pudo leer %s", fh.Filename), http.StatusBadRequest)
			return
		}
		items = append(items, Item{Filename: fh.Filename, Data: data})
	}

	results, err := a.svc.ConvertBatch(r.Context(), items)
	if err != nil {
		jsonErr(w, err.Error(), statusFor(err))
		return
	}

	// A single document keeps the status of its own failure.
	if len(results) == 1 && results[0].Err != nil {
		writeConvertError(w, logger, results[0].Err)
		return
	}

	out := make([]convertItem, len(results))
	for i, br := range results {
		out[i] = convertItem{Result: br.Result, Filename: br.Filename}
		if br.Err != nil {
			out[i].Error = publicMessage(br.Err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

type previewReq struct {
	Markdown string `json:"markdown"`
}

func (a *api) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "JSON inválido", http.StatusBadRequest)
		return
	}
	html, err := markdown.Preview(req.Markdown)
	if err != nil {
		kit.Logger(r.Context(), a.logger).Error("preview render failed", "error", err)
		jsonErr(w, "No se pudo generar la vista previa", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

// statusFor maps conversion errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, docpipe.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, docpipe.ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrBatchTooLarge):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides unexpected internal errors from clients.
func publicMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "Error interno al convertir el documento"
	}
	return err.Error()
}

func writeConvertError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.Error("conversion error", "error", err)
	}
	jsonErr(w, publicMessage(err), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
