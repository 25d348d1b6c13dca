package types

// LoadRequest is the body of POST /model/load.
type LoadRequest struct {
	// Optional model name. If empty, the configured default model is loaded.
	// example: tinyllama-1.1b.Q4_K_M.gguf
	Model string `json:"model,omitempty" example:"tinyllama-1.1b.Q4_K_M.gguf"`
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	// Required prompt text.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// Maximum number of new tokens; 0 or omitted uses the server default (512).
	// example: 128
	MaxTokens int `json:"max_tokens,omitempty" example:"128"`
}

// GenerateResponse is returned by POST /generate.
type GenerateResponse struct {
	// Generated text exactly as returned by the engine.
	Text string `json:"text"`
	// Model that produced the text.
	// example: tinyllama-1.1b.Q4_K_M.gguf
	Model string `json:"model" example:"tinyllama-1.1b.Q4_K_M.gguf"`
	// Wall-clock generation time in milliseconds.
	// example: 850
	DurationMS int64 `json:"duration_ms" example:"850"`
}

// ChatRequest is the body of POST /chat/messages.
type ChatRequest struct {
	// example: What is the capital of France?
	Text string `json:"text" example:"What is the capital of France?"`
}

// ChatResponse is returned by POST /chat/messages.
type ChatResponse struct {
	// Assistant reply appended to the transcript.
	Reply Message `json:"reply"`
	// Full transcript after the turn.
	Messages []Message `json:"messages"`
}

// MessagesResponse is returned by GET /chat/messages.
type MessagesResponse struct {
	Messages []Message `json:"messages"`
	// Human-readable model status line.
	// example: Model ready
	Status string `json:"status" example:"Model ready"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// OutcomeStatus reports one operation slot for /status.
type OutcomeStatus struct {
	// One of idle, pending, succeeded, failed.
	// example: succeeded
	Status string `json:"status" example:"succeeded"`
	// Failure message when Status is failed.
	Error string `json:"error,omitempty"`
	// When the operation last settled (unix seconds); 0 if never.
	// example: 1700000000
	SettledAt int64 `json:"settled_at_unix,omitempty" example:"1700000000"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Lifecycle state: unloaded, loading, ready, unloading or error.
	// example: ready
	State string `json:"state" example:"ready"`
	// Loaded model, empty when none.
	// example: tinyllama-1.1b.Q4_K_M.gguf
	Model      string `json:"model,omitempty" example:"tinyllama-1.1b.Q4_K_M.gguf"`
	Ready      bool   `json:"ready"`
	Loading    bool   `json:"loading"`
	Generating bool   `json:"generating"`
	Unloading  bool   `json:"unloading"`
	// Most recent failure among load, unload and generate.
	Error    string        `json:"error,omitempty"`
	Load     OutcomeStatus `json:"load"`
	Unload   OutcomeStatus `json:"unload"`
	Generate OutcomeStatus `json:"generate"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
