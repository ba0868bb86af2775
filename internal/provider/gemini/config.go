package gemini

// Config holds configuration for a Gemini API provider.
type Config struct {
	Name    string
	APIKey  string
	BaseURL string
}
