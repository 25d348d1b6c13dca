package types

import "time"

// Model represents a loadable LLM weight file on disk.
type Model struct {
	// Stable identifier for the model (the file name).
	// example: tinyllama-1.1b.Q4_K_M.gguf
	ID string `json:"id" example:"tinyllama-1.1b.Q4_K_M.gguf"`
	// Human-friendly name.
	// example: tinyllama-1.1b.Q4_K_M.gguf
	Name string `json:"name" example:"tinyllama-1.1b.Q4_K_M.gguf"`
	// Absolute path to the model file on disk.
	// example: /home/user/.local/share/llamachat/models/tinyllama-1.1b.Q4_K_M.gguf
	Path string `json:"path" example:"/home/user/.local/share/llamachat/models/tinyllama-1.1b.Q4_K_M.gguf"`
	// Quantization level parsed from the file name, if any.
	// example: Q4_K_M
	Quant string `json:"quant,omitempty" example:"Q4_K_M"`
	// File size in bytes.
	// example: 668788096
	SizeBytes int64 `json:"size_bytes" example:"668788096"`
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the in-memory chat transcript.
type Message struct {
	// example: 3f5e2c1a-7d44-4b1e-9a55-1f0c2b7e9d10
	ID string `json:"id" example:"3f5e2c1a-7d44-4b1e-9a55-1f0c2b7e9d10"`
	// example: assistant
	Role Role `json:"role" example:"assistant"`
	// example: Hello, how can I help you today?
	Content   string    `json:"content" example:"Hello, how can I help you today?"`
	CreatedAt time.Time `json:"created_at"`
}
