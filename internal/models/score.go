package models

// ScoreResult is the outcome of scoring a tag set against the top-ranked tags.
type ScoreResult struct {
	IsAI      bool     `json:"is_ai"`
	Overlap   float64  `json:"overlap_score"`
	Threshold float64  `json:"threshold"`
	TopN      int      `json:"top_n"`
	Matched   []string `json:"matched"`
}

// ScoreRequest is the JSON body accepted by the score endpoint.
type ScoreRequest struct {
	Tags []string `json:"tags"`
	TopN int      `json:"top_n,omitempty"`
}
