package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/wgomg/kukulkan/internal/config"
	"github.com/wgomg/kukulkan/internal/pipeline"
	"github.com/wgomg/kukulkan/internal/utils"
	"github.com/wgomg/kukulkan/internal/utils/httputils"
)

const previewChars = 3000

type Handler struct {
	logger   *utils.Logger
	pipeline *pipeline.Pipeline
	cfg      *config.Config
}

func NewHandler(logger *utils.Logger, p *pipeline.Pipeline, cfg *config.Config) *Handler {
	return &Handler{
		logger:   logger,
		pipeline: p,
		cfg:      cfg,
	}
}

func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	reqID := httputils.RequestID(r)

	bodyBytes, err := httputils.LogRequestBody(r, h.logger, reqID)
	if err != nil {
		h.logger.Error(&reqID, "Failed to read request body: %v", err)
		httputils.HandleError(w, err)
		return
	}
	r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	var payload ProcessRequest
	if err := httputils.DecodeJSON(r, &payload); err != nil {
		h.logger.Error(&reqID, "JSON decode error: %v", err)
		httputils.HandleError(w, err)
		return
	}

	if strings.TrimSpace(payload.URL) == "" {
		httputils.HandleError(w, &httputils.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "url is required",
		})
		return
	}

	result, err := h.pipeline.ProcessVideo(&reqID, payload.URL)
	if err != nil {
		h.logger.Error(&reqID, "Failed to process video: %v", err)
		httputils.HandleError(w, toHTTPError(err))
		return
	}

	if payload.TranslateToEnglish {
		if translated, ok := h.pipeline.TranslateToEnglish(&reqID); ok {
			result.Summary = translated.Summary
			result.Bullets = translated.Bullets
		}
	}

	response := ProcessResponse{
		VideoInfo:    result.Info,
		Summary:      result.Summary,
		BulletPoints: result.Bullets,
		ChunkCount:   len(result.Chunks),
		Language:     result.Language,
		Method:       result.Method,
		Notice:       result.Notice,
		Preview:      pipeline.TranscriptPreview(result.Transcript, previewChars),
	}

	if err := httputils.SuccessResponse(w, "Video processed successfully", response); err != nil {
		h.logger.Error(&reqID, "Error sending response: %v", err)
	}
}

func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	reqID := httputils.RequestID(r)

	var payload AskRequest
	if err := httputils.DecodeJSON(r, &payload); err != nil {
		h.logger.Error(&reqID, "JSON decode error: %v", err)
		httputils.HandleError(w, err)
		return
	}

	if strings.TrimSpace(payload.Question) == "" {
		httputils.HandleError(w, &httputils.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "question is required",
		})
		return
	}

	entry, err := h.pipeline.AnswerQuestion(&reqID, payload.Question)
	if err != nil {
		h.logger.Error(&reqID, "Failed to answer question: %v", err)
		httputils.HandleError(w, err)
		return
	}

	response := AskResponse{
		Question:  entry.Question,
		Answer:    entry.Answer,
		Citations: entry.Citations,
	}

	if err := httputils.SuccessResponse(w, "Question answered", response); err != nil {
		h.logger.Error(&reqID, "Error sending response: %v", err)
	}
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	reqID := httputils.RequestID(r)

	markdown, err := h.pipeline.ExportMarkdown()
	if err != nil {
		h.logger.Error(&reqID, "Export failed: %v", err)
		httputils.HandleError(w, &httputils.HTTPError{
			Code:    http.StatusNotFound,
			Message: "No processed video to export",
		})
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="video_analysis.md"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(markdown)); err != nil {
		h.logger.Error(&reqID, "Error writing export: %v", err)
	}
}

func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	reqID := httputils.RequestID(r)

	result, history, ok := h.pipeline.Session()
	response := SessionResponse{Active: ok}
	if ok {
		response.Method = result.Method
		response.Title = result.Info.Title
		response.History = history
	}

	if err := httputils.JSONResponse(w, http.StatusOK, response); err != nil {
		h.logger.Error(&reqID, "Error sending response: %v", err)
	}
}

func (h *Handler) HandleClearSession(w http.ResponseWriter, r *http.Request) {
	reqID := httputils.RequestID(r)

	h.pipeline.ClearSession(&reqID)

	if err := httputils.SuccessResponse(w, "Session cleared", nil); err != nil {
		h.logger.Error(&reqID, "Error sending response: %v", err)
	}
}

// toHTTPError maps pipeline failures onto response codes: bad input
// and empty content are the caller's problem, everything else is ours.
func toHTTPError(err error) error {
	var emptyErr *pipeline.EmptyContentError
	switch {
	case errors.As(err, &emptyErr):
		return &httputils.HTTPError{
			Code:    http.StatusUnprocessableEntity,
			Message: "The video produced no usable transcript content",
		}
	case strings.Contains(err.Error(), "invalid video URL"):
		return &httputils.HTTPError{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		}
	default:
		return err
	}
}
