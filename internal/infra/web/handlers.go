package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/usecase"
)

const multipartMemory = 32 << 20

type requestJSON struct {
	RequestID string              `json:"request_id"`
	Filename  string              `json:"filename"`
	Language  string              `json:"language"`
	Status    model.RequestStatus `json:"status"`
	Result    *model.Evaluation   `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func toRequestJSON(v *usecase.RequestView) requestJSON {
	return requestJSON{
		RequestID: v.RequestID,
		Filename:  v.Filename,
		Language:  v.Language,
		Status:    v.Status,
		Result:    v.Evaluation,
		Error:     v.Error,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

// POST /api/v1/transcribe (multipart: audio_file, optional language)
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, "Audio file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Expected multipart form with audio_file")
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	file, hdr, err := r.FormFile("audio_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio_file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read audio_file")
		return
	}
	if len(audio) == 0 {
		writeError(w, http.StatusBadRequest, "audio_file is empty")
		return
	}

	id, err := s.transcriptions.Submit(r.Context(), callerFrom(r.Context()), usecase.SubmitInput{
		Filename: hdr.Filename,
		Audio:    audio,
		Language: r.FormValue("language"),
	})
	if err != nil {
		s.fail(w, r, err, "Request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"request_id": id})
}

// GET /api/v1/status/{request_id}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "request_id")
	status, err := s.transcriptions.GetStatus(r.Context(), callerFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, err, "Request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"request_id": id, "status": string(status)})
}

// GET /api/v1/result/{request_id}
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "request_id")
	view, err := s.transcriptions.GetResult(r.Context(), callerFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, err, "Request")
		return
	}
	switch view.Status {
	case model.RequestStatusDone:
		writeJSON(w, http.StatusOK, map[string]any{"request_id": id, "result": view.Evaluation})
	case model.RequestStatusError:
		writeJSON(w, http.StatusOK, map[string]any{"request_id": id, "error": view.Error})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"request_id": id, "status": view.Status})
	}
}

// DELETE /api/v1/requests/{request_id}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "request_id")
	if err := s.transcriptions.SoftDelete(r.Context(), callerFrom(r.Context()), id); err != nil {
		s.fail(w, r, err, "Request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Request " + id + " deleted"})
}

// GET /api/v1/requests?limit&offset
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := s.transcriptions.List(r.Context(), callerFrom(r.Context()), limit, offset)
	if err != nil {
		s.fail(w, r, err, "Request")
		return
	}
	data := make([]requestJSON, 0, len(page.Items))
	for _, v := range page.Items {
		data = append(data, toRequestJSON(v))
	}

	response := struct {
		Data   []requestJSON `json:"data"`
		Limit  int           `json:"limit"`
		Offset int           `json:"offset"`
	}{
		Data:   data,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	writeJSON(w, http.StatusOK, response)
}
