package apimodels

type PredictRequest struct {
	// Passage the answer is extracted from
	Context string `json:"context"`

	// Natural language question about the passage
	Question string `json:"question"`
}
