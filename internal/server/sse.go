package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-matcher/internal/analysis"
)

// SSE event names sent by the streaming analysis endpoint.
const (
	eventStep     = "step"
	eventComplete = "complete"
	eventError    = "error"
)

// SSEWriter writes Server-Sent Events with increasing ids
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	nextID  int
}

// NewSSEWriter commits the stream headers; after this the status is always 200
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher, nextID: 1}, nil
}

// WriteEvent sends one event with data encoded as JSON
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.nextID, event, jsonData); err != nil {
		return err
	}
	s.nextID++
	s.flusher.Flush()
	return nil
}

// WriteProgress sends a pipeline step
func (s *SSEWriter) WriteProgress(event analysis.ProgressEvent) error {
	return s.WriteEvent(eventStep, event)
}

// WriteError sends an error event carrying the HTTP status the error would have had
func (s *SSEWriter) WriteError(err error) {
	body := newErrorBody(err)
	s.WriteEvent(eventError, map[string]any{ //nolint:errcheck
		"error":  body.Error,
		"kind":   body.Kind,
		"status": HTTPStatus(err),
	})
}

// WriteComplete sends the final result
func (s *SSEWriter) WriteComplete(result any) {
	s.WriteEvent(eventComplete, result) //nolint:errcheck
}
