package handler

import (
	"context"
	"datalingua/internal/engine"
	"datalingua/internal/model"
	"datalingua/internal/service"
	"datalingua/internal/storage"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"
)

const multipartMemory = 8 << 20

// Multipart part names carrying uploads: audio_<questionId> and file_<questionId>
const (
	audioPartPrefix = "audio_"
	filePartPrefix  = "file_"
)

// FillFlow is the respondent API used by FillHandler
type FillFlow interface {
	Start(ctx context.Context, shareableID, respondentID string) (*model.FillState, error)
	State(ctx context.Context, shareableID, respondentID string) (*model.FillState, error)
	Answer(ctx context.Context, shareableID, respondentID, questionID string, v engine.Value) (*model.FillState, error)
	Next(ctx context.Context, shareableID, respondentID string) (*model.FillState, error)
	Previous(ctx context.Context, shareableID, respondentID string) (*model.FillState, error)
	Abandon(ctx context.Context, shareableID, respondentID string) error
	Submit(ctx context.Context, shareableID, respondentID string, uploads []service.Upload) (*model.Response, error)
	CheckRespondent(ctx context.Context, surveyID, respondentID string) (*model.RespondentCheck, error)
}

// FillHandler handles the respondent fill-in endpoints
type FillHandler struct {
	fillSvc FillFlow
	maxBody int64
}

// NewFillHandler creates a new fill handler; maxBody caps submission bodies
func NewFillHandler(fillSvc FillFlow, maxBody int64) *FillHandler {
	return &FillHandler{fillSvc: fillSvc, maxBody: maxBody}
}

// StartRequest is the request body for starting a session
type StartRequest struct {
	RespondentID string `json:"respondentId"`
}

// AnswerRequest is the request body for answering a question. Answer is a
// string or, for multi-select questions, an array of strings.
type AnswerRequest struct {
	QuestionID string       `json:"questionId"`
	Answer     engine.Value `json:"answer"`
}

// CheckRespondentRequest is the request body for POST /v1/check-respondent
type CheckRespondentRequest struct {
	SurveyID     string `json:"surveyId"`
	RespondentID string `json:"respondentId"`
}

func fillVars(r *http.Request) (string, string) {
	vars := mux.Vars(r)
	return vars["shareableId"], vars["respondentId"]
}

// Start handles POST /v1/fill/{shareableId}/sessions
func (h *FillHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.fillSvc.Start(r.Context(), mux.Vars(r)["shareableId"], req.RespondentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, state)
}

// State handles GET /v1/fill/{shareableId}/sessions/{respondentId}
func (h *FillHandler) State(w http.ResponseWriter, r *http.Request) {
	shareableID, respondentID := fillVars(r)
	state, err := h.fillSvc.State(r.Context(), shareableID, respondentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// Answer handles PUT /v1/fill/{shareableId}/sessions/{respondentId}
func (h *FillHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "questionId is required")
		return
	}

	shareableID, respondentID := fillVars(r)
	state, err := h.fillSvc.Answer(r.Context(), shareableID, respondentID, req.QuestionID, req.Answer)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// Next handles POST /v1/fill/{shareableId}/sessions/{respondentId}/next
func (h *FillHandler) Next(w http.ResponseWriter, r *http.Request) {
	shareableID, respondentID := fillVars(r)
	state, err := h.fillSvc.Next(r.Context(), shareableID, respondentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// Previous handles POST /v1/fill/{shareableId}/sessions/{respondentId}/previous
func (h *FillHandler) Previous(w http.ResponseWriter, r *http.Request) {
	shareableID, respondentID := fillVars(r)
	state, err := h.fillSvc.Previous(r.Context(), shareableID, respondentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// Abandon handles POST /v1/fill/{shareableId}/sessions/{respondentId}/abandon
func (h *FillHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	shareableID, respondentID := fillVars(r)
	if err := h.fillSvc.Abandon(r.Context(), shareableID, respondentID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "session abandoned"})
}

// Submit handles POST /v1/fill/{shareableId}/sessions/{respondentId}/submit.
// Uploads arrive as multipart parts named audio_<questionId> or file_<questionId>.
func (h *FillHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	uploads, cleanup, err := parseUploads(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body: "+err.Error())
		return
	}
	defer cleanup()

	shareableID, respondentID := fillVars(r)
	resp, err := h.fillSvc.Submit(r.Context(), shareableID, respondentID, uploads)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "response submitted",
		"responseId": resp.ID,
		"response":   resp,
	})
}

// parseUploads collects the upload parts of a multipart submission. The
// returned cleanup closes the opened parts and removes temporary files.
func parseUploads(r *http.Request) ([]service.Upload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return nil, noop, nil
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, noop, err
	}

	var files []multipart.File
	cleanup := func() {
		for _, f := range files {
			f.Close()
		}
		r.MultipartForm.RemoveAll()
	}

	keys := make([]string, 0, len(r.MultipartForm.File))
	for key := range r.MultipartForm.File {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var uploads []service.Upload
	for _, key := range keys {
		var kind storage.Kind
		var questionID string
		switch {
		case strings.HasPrefix(key, audioPartPrefix):
			kind, questionID = storage.KindAudio, strings.TrimPrefix(key, audioPartPrefix)
		case strings.HasPrefix(key, filePartPrefix):
			kind, questionID = storage.KindFile, strings.TrimPrefix(key, filePartPrefix)
		default:
			continue
		}
		headers := r.MultipartForm.File[key]
		if questionID == "" || len(headers) == 0 {
			continue
		}

		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		files = append(files, f)
		uploads = append(uploads, service.Upload{
			QuestionID: questionID,
			Object: storage.Object{
				Kind:        kind,
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Body:        f,
			},
		})
	}
	return uploads, cleanup, nil
}

// CheckRespondent handles POST /v1/check-respondent
func (h *FillHandler) CheckRespondent(w http.ResponseWriter, r *http.Request) {
	var req CheckRespondentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	check, err := h.fillSvc.CheckRespondent(r.Context(), req.SurveyID, req.RespondentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, check)
}
