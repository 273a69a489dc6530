package feed

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eduhub/internal/app/apiresp"
	"eduhub/internal/user"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type postRequest struct {
	Body   string   `json:"body"`
	Images []string `json:"images"`
}

type reportRequest struct {
	Reason string `json:"reason"`
}

type resolveRequest struct {
	Action ReportAction `json:"action"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	apiresp.WriteOK(w, r, http.StatusOK, h.svc.ListPosts())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := user.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.svc.CreatePost(u.ID, req.Body, req.Images)
	if err != nil {
		writeFeedError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := user.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	force := u.Role == user.RoleAdmin || u.Role == user.RoleTeacher
	if err := h.svc.DeletePost(chi.URLParam(r, "id"), u.ID, force); err != nil {
		writeFeedError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, nil)
}

func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	u, ok := user.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	p, err := h.svc.ToggleLike(chi.URLParam(r, "id"), u.ID)
	if err != nil {
		writeFeedError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, p)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	u, ok := user.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	rep, err := h.svc.Report(chi.URLParam(r, "id"), u.ID, req.Reason)
	if err != nil {
		writeFeedError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, rep)
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	status := ReportStatus(r.URL.Query().Get("status"))
	apiresp.WriteOK(w, r, http.StatusOK, h.svc.ListReports(status))
}

func (h *Handler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	u, ok := user.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	rep, err := h.svc.ResolveReport(chi.URLParam(r, "id"), u.ID, req.Action)
	if err != nil {
		writeFeedError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, rep)
}

func writeFeedError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrPostNotFound), errors.Is(err, ErrReportNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotPostAuthor):
		apiresp.WriteError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrReportResolved), errors.Is(err, ErrDuplicateReport):
		apiresp.WriteError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, ErrEmptyPost), errors.Is(err, ErrUnknownAction), errors.Is(err, ErrMissingReason):
		apiresp.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}
