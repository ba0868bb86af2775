package domain

import "time"

// CompletionRequest represents a unified LLM request.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// CompletionResponse represents a unified LLM response.
type CompletionResponse struct {
	ID         string        `json:"id"`
	Model      string        `json:"model"`
	Provider   string        `json:"provider"`
	Content    string        `json:"content"`
	Usage      Usage         `json:"usage"`
	FinishTime time.Time     `json:"finish_time"`
	Latency    time.Duration `json:"latency"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Submission is one caller's text awaiting evaluation.
type Submission struct {
	CallerID        string
	ConversationRef string
	Text            string
	CreatedAt       time.Time
}

// Template is a static prompt template loaded at startup.
// Err is set when the resource could not be read.
type Template struct {
	Name string
	Text string
	Err  error
}

// Usable reports whether the template loaded.
func (t Template) Usable() bool {
	return t.Err == nil && t.Text != ""
}

// Rule is one independent evaluation criterion.
type Rule struct {
	ID        string
	Reference string
	Template  Template
	// LoadErr is set when the rule's reference text failed to load.
	LoadErr error
}

// RuleResult is the outcome of evaluating one rule against one submission.
type RuleResult struct {
	RuleID     string
	Applicable bool
	Failed     bool
	Text       string
}

// Report is the aggregated outcome of one submission.
type Report struct {
	ID           string
	Narrative    string
	Content      string
	ArtifactPath string
	Findings     []RuleResult
	NothingFound bool
}
