package report

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eduhub/internal/app/apiresp"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.SummaryByExam(chi.URLParam(r, "id"))
	if err != nil {
		writeReportError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, sum)
}

func (h *Handler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := h.svc.ExportExamExcel(id)
	if err != nil {
		writeReportError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="exam-%s-results.xlsx"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func writeReportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrExamNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}
