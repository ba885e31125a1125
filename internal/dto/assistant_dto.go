package dto

// ChatRequest is one conversational turn from the client. Session identity
// comes from the X-Group-Id / X-From-Trace-Id / X-Trace-Id headers, not the
// body.
type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

type ChatResponse struct {
	Status  string   `json:"status"` // final, need_user, error
	Reply   string   `json:"reply"`
	Missing []string `json:"missing,omitempty"`
	TraceId string   `json:"trace_id,omitempty"`
}
