package notice

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

type replyRequest struct {
	Body string `json:"body"`
}

func (h *Handler) ListNotices(w http.ResponseWriter, r *http.Request) {
	apiresp.WriteOK(w, r, http.StatusOK, h.svc.ListNotices())
}

func (h *Handler) CreateNotice(w http.ResponseWriter, r *http.Request) {
	u, ok := user.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	var n Notice
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	n.CreatedBy = u.ID
	created, err := h.svc.CreateNotice(n)
	if err != nil {
		writeNoticeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, created)
}

func (h *Handler) UpdateNotice(w http.ResponseWriter, r *http.Request) {
	var n Notice
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	n.ID = chi.URLParam(r, "id")
	updated, err := h.svc.UpdateNotice(n)
	if err != nil {
		writeNoticeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, updated)
}

func (h *Handler) DeleteNotice(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNotice(chi.URLParam(r, "id")); err != nil {
		writeNoticeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, nil)
}

func (h *Handler) CreateAppeal(w http.ResponseWriter, r *http.Request) {
	u, ok := user.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	var a Appeal
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	a.StudentID = u.ID
	created, err := h.svc.CreateAppeal(a)
	if err != nil {
		writeNoticeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, created)
}

func (h *Handler) MyAppeals(w http.ResponseWriter, r *http.Request) {
	u, ok := user.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, h.svc.AppealsForStudent(u.ID))
}

func (h *Handler) ListAppeals(w http.ResponseWriter, r *http.Request) {
	status := AppealStatus(r.URL.Query().Get("status"))
	apiresp.WriteOK(w, r, http.StatusOK, h.svc.ListAppeals(status))
}

func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	u, ok := user.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	a, err := h.svc.Reply(chi.URLParam(r, "id"), u.ID, req.Body)
	if err != nil {
		writeNoticeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, a)
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	u, ok := user.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	a, err := h.svc.Resolve(chi.URLParam(r, "id"), u.ID)
	if err != nil {
		writeNoticeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, a)
}

func writeNoticeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNoticeNotFound), errors.Is(err, ErrAppealNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAppealResolved):
		apiresp.WriteError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidNotice), errors.Is(err, ErrEmptyReply), errors.Is(err, ErrResolverRequired):
		apiresp.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}
