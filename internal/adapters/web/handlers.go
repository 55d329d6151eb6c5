package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"procurement-backoffice/internal/adapters/export"
	"procurement-backoffice/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	log    *logrus.Logger
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, log *logrus.Logger, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Post("/api/breakdowns/calculate", h.calculate)
		r.Get("/api/schema/calculate", h.calculateSchema)

		r.Route("/api/documents/{id}", func(r chi.Router) {
			r.Get("/", h.getDocument)
			r.Post("/recalculate", h.recalculate)
			r.Put("/items", h.replaceItems)
			r.Put("/total", h.setTotal)
			r.Post("/status", h.transition)
			r.Get("/expected-costs", h.expectedCosts)
			r.Get("/expected-costs.xlsx", h.expectedCostsXLSX)
		})
	})

	h.router = r
	return h
}

// ServeHTTP dispatches to the chi router.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// calculate handles POST /api/breakdowns/calculate.
func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	var req app.CalculateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CalculateBreakdown(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// calculateSchema handles GET /api/schema/calculate.
func (h *Handler) calculateSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, app.CalculateRequestSchema())
}

// getDocument handles GET /api/documents/{id}.
func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetDocument(r.Context(), documentID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// recalculate handles POST /api/documents/{id}/recalculate.
func (h *Handler) recalculate(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RecalculateDocument(r.Context(), documentID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// replaceItems handles PUT /api/documents/{id}/items. The body carries the
// complete item list; anything not in it is removed.
func (h *Handler) replaceItems(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items []map[string]any `json:"items"`
		User  string           `json:"user"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Items == nil {
		writeError(w, r, "items is required (send [] to remove every item)", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.ReplaceLineItems(r.Context(), app.ReplaceItemsRequest{
		DocumentID: documentID(r),
		Items:      body.Items,
		User:       requestUser(r, body.User),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// setTotal handles PUT /api/documents/{id}/total. {"total": null} clears the override.
func (h *Handler) setTotal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Total json.RawMessage `json:"total"`
		User  string          `json:"user"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if len(body.Total) == 0 {
		writeError(w, r, "total is required (null clears the override)", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var total any
	dec := json.NewDecoder(bytes.NewReader(body.Total))
	dec.UseNumber()
	if err := dec.Decode(&total); err != nil {
		writeError(w, r, "invalid total: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.SetTotalOverride(r.Context(), app.SetTotalRequest{
		DocumentID: documentID(r),
		Total:      total,
		User:       requestUser(r, body.User),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// transition handles POST /api/documents/{id}/status.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
		User   string `json:"user"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.TransitionStatus(r.Context(), app.TransitionRequest{
		DocumentID: documentID(r),
		Status:     body.Status,
		User:       requestUser(r, body.User),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// expectedCosts handles GET /api/documents/{id}/expected-costs.
func (h *Handler) expectedCosts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ExpectedCosts(r.Context(), documentID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// expectedCostsXLSX handles GET /api/documents/{id}/expected-costs.xlsx.
func (h *Handler) expectedCostsXLSX(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ExpectedCosts(r.Context(), documentID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteExpectedCosts(&buf, result); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", "attachment; filename="+export.Filename(result))
	_, _ = w.Write(buf.Bytes())
}

// documentID extracts the {id} URL parameter.
func documentID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// requestUser prefers the user named in the body, then the X-User header
// set by the upstream gateway.
func requestUser(r *http.Request, fromBody string) string {
	if u := strings.TrimSpace(fromBody); u != "" {
		return u
	}
	return strings.TrimSpace(r.Header.Get("X-User"))
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
// Numbers are kept as json.Number so amounts are not rounded through float64.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
