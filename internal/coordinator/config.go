package coordinator

import "github.com/rs/zerolog"

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultModelName = "llama-2-7b-chat.Q5_K_M.gguf"
	DefaultMaxTokens = 512
)

// Config encapsulates all tunables for Coordinator construction.
type Config struct {
	// ModelName is loaded when LoadModel is called with an empty name.
	ModelName string
	// AutoLoad issues one background load of ModelName from New.
	AutoLoad bool
	// DefaultMaxTokens is the token budget used when GenerateOptions.MaxTokens is zero.
	DefaultMaxTokens int
	// Logger receives failure and transition logs. Nil disables logging.
	Logger *zerolog.Logger
	// Publisher receives lifecycle events. Nil drops them.
	Publisher EventPublisher
}

func (c Config) withDefaults() Config {
	if c.ModelName == "" {
		c.ModelName = DefaultModelName
	}
	if c.DefaultMaxTokens <= 0 {
		c.DefaultMaxTokens = DefaultMaxTokens
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	return c
}
