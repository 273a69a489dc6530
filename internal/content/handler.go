package content

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

type renameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	apiresp.WriteOK(w, r, http.StatusOK, h.svc.ListFolders())
}

func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var f Folder
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.svc.CreateFolder(f)
	if err != nil {
		writeContentError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, created)
}

func (h *Handler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	f, err := h.svc.RenameFolder(chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeContentError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, f)
}

func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteFolder(chi.URLParam(r, "id")); err != nil {
		writeContentError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, nil)
}

func (h *Handler) ListContent(w http.ResponseWriter, r *http.Request) {
	apiresp.WriteOK(w, r, http.StatusOK, h.svc.ListContentByFolder(chi.URLParam(r, "id")))
}

func (h *Handler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var c StudyContent
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if u, ok := user.CurrentUser(r.Context()); ok {
		c.CreatedBy = u.ID
	}
	created, err := h.svc.CreateContent(c)
	if err != nil {
		writeContentError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, created)
}

func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var c StudyContent
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	c.ID = chi.URLParam(r, "id")
	updated, err := h.svc.UpdateContent(c)
	if err != nil {
		writeContentError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, updated)
}

func (h *Handler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteContent(chi.URLParam(r, "id")); err != nil {
		writeContentError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, nil)
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	includeDrafts := false
	if u, ok := user.CurrentUser(r.Context()); ok && u.Role != user.RoleStudent {
		includeDrafts = r.URL.Query().Get("drafts") == "true"
	}
	apiresp.WriteOK(w, r, http.StatusOK, h.svc.ListPosts(includeDrafts))
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	p, ok := h.svc.Post(chi.URLParam(r, "id"))
	if !ok {
		apiresp.WriteError(w, r, http.StatusNotFound, ErrPostNotFound.Error())
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, p)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var p BlogPost
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if u, ok := user.CurrentUser(r.Context()); ok {
		p.AuthorID = u.ID
	}
	created, err := h.svc.CreatePost(p)
	if err != nil {
		writeContentError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, created)
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var p BlogPost
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	p.ID = chi.URLParam(r, "id")
	updated, err := h.svc.UpdatePost(p)
	if err != nil {
		writeContentError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, updated)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePost(chi.URLParam(r, "id")); err != nil {
		writeContentError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, nil)
}

func writeContentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrFolderNotFound), errors.Is(err, ErrContentNotFound), errors.Is(err, ErrPostNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrFolderNotEmpty):
		apiresp.WriteError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidContent):
		apiresp.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}
