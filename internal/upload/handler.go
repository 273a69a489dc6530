package upload

import (
	"errors"
	"net/http"

	"eduhub/internal/app/apiresp"
)

type Handler struct {
	store *DiskStore
}

func NewHandler(store *DiskStore) *Handler {
	return &Handler{store: store}
}

// Upload accepts one multipart file under the "file" field and responds with
// its reference URL.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+4096)
	f, header, err := r.FormFile("file")
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = f.Close() }()

	ref, err := h.store.Save(header.Filename, f)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedType):
			apiresp.WriteError(w, r, http.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, ErrTooLarge):
			apiresp.WriteError(w, r, http.StatusRequestEntityTooLarge, err.Error())
		default:
			apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, map[string]string{"url": ref})
}
