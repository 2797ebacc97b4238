package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jonathan/resume-matcher/internal/analysis"
	"github.com/jonathan/resume-matcher/internal/extraction"
	"github.com/jonathan/resume-matcher/internal/types"
)

// handleRoot returns a welcome message
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"message": "Resume matcher API. POST /api/upload-resume or /api/analyze to score a resume.",
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze scores a resume given as text
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeAnalysisRequest(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	report, err := s.analyzer.Run(r.Context(), req, nil)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report.Result)
}

// handleAnalyzeStream scores a resume given as text and streams progress via SSE
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeAnalysisRequest(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	report, err := s.analyzer.Run(r.Context(), req, func(event analysis.ProgressEvent) {
		if err := sse.WriteProgress(event); err != nil {
			s.logger.Warn("failed to write SSE event", slog.Any("error", err))
		}
	})
	if err != nil {
		s.logFailure(r, err)
		sse.WriteError(err)
		return
	}
	sse.WriteComplete(report.Result)
}

// handleUploadResume scores an uploaded PDF or DOCX resume against a job description form field
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = &ErrValidation{Field: "file", Message: "expected multipart form data"}
		}
		s.errorResponse(w, r, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "file", Message: "a resume file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	resumeText, err := extraction.ExtractDocument(data, header.Filename)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	req := types.AnalysisRequest{
		ResumeText:     resumeText,
		JobDescription: r.FormValue("job_description"),
	}
	report, err := s.analyzer.Run(r.Context(), req, nil)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report.Result)
}

// decodeAnalysisRequest reads a JSON body and checks it against the request schema.
func (s *Server) decodeAnalysisRequest(w http.ResponseWriter, r *http.Request) (types.AnalysisRequest, error) {
	var req types.AnalysisRequest

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return req, &ErrValidation{Field: "Content-Type", Message: "expected application/json"}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUploadBytes))
	if err != nil {
		return req, err
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return req, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := s.requestSchema.ValidateBytes(raw); err != nil {
		return req, err
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, &ErrValidation{Field: "body", Message: err.Error()}
	}
	return req, nil
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// errorResponse maps err to a status code and writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.logFailure(r, err)
	s.jsonResponse(w, HTTPStatus(err), newErrorBody(err))
}

func (s *Server) logFailure(r *http.Request, err error) {
	level := slog.LevelWarn
	if HTTPStatus(err) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		slog.String("request_id", RequestID(r.Context())),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
}
