package exam

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

type submitRequest struct {
	Answers []Answer `json:"answers"`
}

type gradeRequest struct {
	Grades map[string]QuestionGrade `json:"grades"`
}

type publishRequest struct {
	Published bool `json:"published"`
}

func (h *Handler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	apiresp.WriteOK(w, r, http.StatusOK, h.svc.ListAvailable())
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	apiresp.WriteOK(w, r, http.StatusOK, h.svc.ListAll())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var e Exam
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.svc.CreateExam(e)
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var e Exam
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	e.ID = chi.URLParam(r, "id")
	updated, err := h.svc.UpdateExam(e)
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteExam(chi.URLParam(r, "id")); err != nil {
		writeExamError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, nil)
}

func (h *Handler) SetPublished(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	e, err := h.svc.SetPublished(chi.URLParam(r, "id"), req.Published)
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, e)
}

// Submit routes the attempt to the exam's format: MCQ is auto-graded on the
// spot, written goes to the manual grading queue.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	u, ok := user.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	examID := chi.URLParam(r, "id")
	e, found := h.svc.Get(examID)
	if !found {
		apiresp.WriteError(w, r, http.StatusNotFound, ErrExamNotFound.Error())
		return
	}

	switch e.Format {
	case FormatWritten:
		sub, err := h.svc.SubmitWritten(examID, u.ID, req.Answers)
		if err != nil {
			writeExamError(w, r, err)
			return
		}
		apiresp.WriteOK(w, r, http.StatusCreated, sub)
	default:
		sub, res, err := h.svc.SubmitMCQ(examID, u.ID, req.Answers)
		if err != nil {
			writeExamError(w, r, err)
			return
		}
		apiresp.WriteOK(w, r, http.StatusCreated, map[string]any{
			"submission": sub,
			"result":     res,
		})
	}
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.svc.Submission(chi.URLParam(r, "id"))
	if !ok {
		apiresp.WriteError(w, r, http.StatusNotFound, ErrSubmissionNotFound.Error())
		return
	}
	u, _ := user.CurrentUser(r.Context())
	if u == nil || (u.Role == user.RoleStudent && sub.StudentID != u.ID) {
		apiresp.WriteError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, sub)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	apiresp.WriteOK(w, r, http.StatusOK, h.svc.PendingSubmissions())
}

func (h *Handler) Grade(w http.ResponseWriter, r *http.Request) {
	u, ok := user.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req gradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	sub, res, err := h.svc.GradeWritten(chi.URLParam(r, "id"), req.Grades, u.ID)
	if err != nil {
		writeExamError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, map[string]any{
		"submission": sub,
		"result":     res,
	})
}

func (h *Handler) MyResults(w http.ResponseWriter, r *http.Request) {
	u, ok := user.CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, h.svc.ResultsForStudent(u.ID))
}

func writeExamError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrExamNotFound), errors.Is(err, ErrSubmissionNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrExamNotPublished), errors.Is(err, ErrExamNotStarted):
		apiresp.WriteError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadySubmitted), errors.Is(err, ErrAlreadyGraded):
		apiresp.WriteError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidExam),
		errors.Is(err, ErrNotMCQ),
		errors.Is(err, ErrNotWritten),
		errors.Is(err, ErrUnknownQuestion),
		errors.Is(err, ErrMissingKey),
		errors.Is(err, ErrMarksOutOfRange),
		errors.Is(err, ErrGradeIncomplete),
		errors.Is(err, ErrGraderRequired):
		apiresp.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}
