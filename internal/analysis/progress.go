package analysis

// Pipeline steps reported through ProgressCallback.
const (
	StepValidate   = "validate"
	StepKeywords   = "keywords"
	StepReconcile  = "reconcile"
	StepSimilarity = "similarity"
	StepSuggestion = "suggestion"
	StepFinalize   = "finalize"
)

// ProgressEvent represents a progress update during one analysis.
type ProgressEvent struct {
	Step      string `json:"step"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Content   any    `json:"content,omitempty"`
}

// ProgressCallback is called after each pipeline step completes.
type ProgressCallback func(event ProgressEvent)

func emitProgress(cb ProgressCallback, requestID, step, message string, content any) {
	if cb != nil {
		cb(ProgressEvent{Step: step, Message: message, RequestID: requestID, Content: content})
	}
}
