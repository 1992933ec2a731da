package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"oceanos.org/internal/audit"
	"oceanos.org/internal/auth"
	"oceanos.org/internal/stream"
	"oceanos.org/internal/submissions"
	"oceanos.org/pkg/api"
)

func (a *API) handleSubmissionsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listSubmissions(w, r)
	case http.MethodPost:
		a.createSubmission(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleSubmissionResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/submissions/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, api.CodeNotFound, "resource not found")
		return
	}

	if path == "pending" {
		a.listPendingSubmissions(w, r)
		return
	}

	if id, ok := strings.CutSuffix(path, "/review"); ok {
		if id == "" {
			writeError(w, r, http.StatusNotFound, api.CodeNotFound, "resource not found")
			return
		}
		a.reviewSubmission(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, api.CodeNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getSubmission(w, r, path)
	case http.MethodPut:
		a.updateSubmission(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) listSubmissions(w http.ResponseWriter, r *http.Request) {
	acc, ok := requireAccount(w, r)
	if !ok {
		return
	}
	subs := a.submissions.List(acc)
	writeJSON(w, http.StatusOK, map[string]any{
		"submissions": subs,
		"meta":        api.ListMeta{Total: len(subs)},
	})
}

func (a *API) listPendingSubmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	acc, ok := requireAccount(w, r)
	if !ok {
		return
	}
	subs, err := a.submissions.ListPending(acc)
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"submissions": subs,
		"meta":        api.ListMeta{Total: len(subs)},
	})
}

func (a *API) createSubmission(w http.ResponseWriter, r *http.Request) {
	acc, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var req api.CreateSubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	sub, err := a.submissions.Create(acc, submissions.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		DataType:    req.DataType,
		Data:        req.Data,
		Attachments: req.Attachments,
	})
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "submission.create", map[string]any{
		"submission_id": sub.ID,
		"data_type":     string(sub.DataType),
	})

	w.Header().Set("Location", "/api/submissions/"+sub.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"submission": sub,
		"message":    "submission received and awaiting review",
	})
}

func (a *API) getSubmission(w http.ResponseWriter, r *http.Request, id string) {
	acc, ok := requireAccount(w, r)
	if !ok {
		return
	}
	sub, err := a.submissions.Get(acc, id)
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submission": sub})
}

func (a *API) updateSubmission(w http.ResponseWriter, r *http.Request, id string) {
	acc, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var req api.UpdateSubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	fields := submissions.UpdateFields{
		Title:       req.Title,
		Description: req.Description,
		Data:        req.Data,
		Attachments: req.Attachments,
	}
	if req.DataType != nil {
		dt := submissions.DataType(*req.DataType)
		fields.DataType = &dt
	}

	sub, err := a.submissions.Update(acc, id, fields)
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "submission.update", map[string]any{
		"submission_id": sub.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"submission": sub,
		"message":    "submission updated",
	})
}

func (a *API) reviewSubmission(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	acc, ok := requireRole(w, r, auth.RoleGovernment)
	if !ok {
		return
	}
	var req api.ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}
	action, err := submissions.ParseAction(req.Action)
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}

	sub, err := a.submissions.Review(acc, id, action, req.Notes)
	if err != nil {
		handleSubmissionError(w, r, err)
		return
	}

	if a.stream != nil {
		a.stream.Publish(stream.Event{
			Kind:      "review",
			Station:   a.stream.StationForID(sub.SubmittedBy),
			SubjectID: sub.ID,
			Detail:    string(sub.Status),
			Timestamp: time.Now().UTC(),
		})
	}

	_ = audit.LogEvent(r.Context(), "submission.review", map[string]any{
		"submission_id": sub.ID,
		"action":        string(action),
		"status":        string(sub.Status),
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"submission": sub,
		"message":    "submission " + string(sub.Status),
	})
}

func handleSubmissionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, submissions.ErrValidation):
		writeError(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
	case errors.Is(err, submissions.ErrForbidden), errors.Is(err, submissions.ErrNotOwner):
		writeError(w, r, http.StatusForbidden, api.CodeForbidden, "forbidden")
	case errors.Is(err, submissions.ErrInvalidState):
		writeError(w, r, http.StatusBadRequest, api.CodeInvalidState, err.Error())
	case errors.Is(err, submissions.ErrNotFound):
		writeError(w, r, http.StatusNotFound, api.CodeNotFound, "submission not found")
	default:
		writeError(w, r, http.StatusInternalServerError, api.CodeInternal, "internal error")
	}
}
