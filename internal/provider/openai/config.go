package openai

// Config contains settings for one OpenAI-compatible endpoint.
// Fields map to OpenAI SDK options:
//   - APIKey: Maps to option.WithAPIKey()
//   - BaseURL: Maps to option.WithBaseURL()
//   - Timeout: Maps to option.WithRequestTimeout() (in seconds)
//   - MaxRetries: Maps to option.WithMaxRetries()
type Config struct {
	Name       string
	APIKey     string
	BaseURL    string
	Timeout    int
	MaxRetries int
}
