package apimodels

import "time"

const (
	StatusSuccess  = "success"
	StatusHealthy  = "healthy"
	StatusStarting = "starting"

	ServiceName = "BERT QA System"
)

type PredictResponse struct {
	// The extracted answer span
	Answer string `json:"answer"`

	// Confidence as a percentage, rounded to two decimals
	Confidence float64 `json:"confidence"`

	// Always "success" for a completed prediction
	Status string `json:"status"`

	// Character counts of the trimmed inputs
	ContextLength  int `json:"context_length"`
	QuestionLength int `json:"question_length"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Service     string `json:"service"`
}

// ExampleResponse is served by /api/load_example.
type ExampleResponse struct {
	Status   string `json:"status"`
	ID       string `json:"id,omitempty"`
	Context  string `json:"context,omitempty"`
	Question string `json:"question,omitempty"`
}

// LegacyExampleResponse is the older /example shape.
type LegacyExampleResponse struct {
	ExampleContext  string `json:"example_context"`
	ExampleQuestion string `json:"example_question"`
}

type ExampleSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Question string `json:"question"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// HistoryEntry is one answered question, served by /api/history.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Confidence float64   `json:"confidence"`
	Backend    string    `json:"backend"`
	CreatedAt  time.Time `json:"created_at"`
}
