// Package httpapi exposes the submission REST surface consumed by the portal
// UI.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	app "github.com/portal-umkm/submission-service/internal/app"
	"github.com/portal-umkm/submission-service/internal/app/domain/submission"
	"github.com/portal-umkm/submission-service/internal/app/metrics"
	"github.com/portal-umkm/submission-service/internal/errors"
	"github.com/portal-umkm/submission-service/internal/httputil"
	"github.com/portal-umkm/submission-service/internal/logging"
)

// handler bundles the HTTP endpoints for the submission service.
type handler struct {
	app   *app.Application
	audit *auditLog
}

// NewHandler returns the router exposing the REST API. Authentication is
// applied by the caller's middleware chain; handlers read the identity the
// access guard attached to the request context.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application, audit: newAuditLog(0)}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/submissions", h.create).Methods(http.MethodPost)
	r.HandleFunc("/submissions", h.list).Methods(http.MethodGet)
	r.HandleFunc("/submissions/my-history", h.ownHistory).Methods(http.MethodGet)
	r.HandleFunc("/submissions/audit", h.auditTrail).Methods(http.MethodGet)
	r.HandleFunc("/submissions/{id:[0-9]+}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/submissions/{id:[0-9]+}/status", h.setStatus).Methods(http.MethodPut)
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identity(w, r)
	if !ok {
		return
	}

	var payload struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "MALFORMED_PAYLOAD", err.Error(), nil)
		return
	}

	ref, err := h.app.Submissions.Create(r.Context(), ident.UserID, payload.Type, payload.Data)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ref)
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identity(w, r)
	if !ok {
		return
	}

	entries, err := h.app.Submissions.History(r.Context(), ident)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *handler) ownHistory(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identity(w, r)
	if !ok {
		return
	}

	entries, err := h.app.Submissions.OwnHistory(r.Context(), ident)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identity(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	rec, err := h.app.Submissions.Get(r.Context(), ident, r.URL.Query().Get("type"), id)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *handler) setStatus(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identity(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var payload struct {
		Status string `json:"status"`
		Type   string `json:"type"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "MALFORMED_PAYLOAD", err.Error(), nil)
		return
	}

	if err := h.app.Submissions.SetStatus(r.Context(), ident, payload.Type, id, payload.Status); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	h.audit.add(auditEntry{
		Time:         time.Now().UTC(),
		AdminID:      ident.UserID,
		SubmissionID: id,
		Type:         payload.Type,
		Status:       payload.Status,
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"id": id, "status": payload.Status})
}

// auditTrail exposes the recent status transitions to administrators.
func (h *handler) auditTrail(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.identity(w, r)
	if !ok {
		return
	}
	if !ident.IsAdmin() {
		httputil.WriteServiceError(w, r, errors.Forbidden("audit trail requires the administrator role"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.audit.list())
}

// identity reads the caller the access guard attached to the context. A zero
// user id means the guard did not run for this path.
func (h *handler) identity(w http.ResponseWriter, r *http.Request) (submission.Identity, bool) {
	ident := submission.Identity{
		UserID: logging.GetUserID(r.Context()),
		Role:   logging.GetRole(r.Context()),
	}
	if ident.UserID == 0 {
		httputil.Unauthorized(w, "")
		return submission.Identity{}, false
	}
	return ident, true
}
