package models

import "time"

// ReviewRequest is a single review travelling through the review-requests topic.
type ReviewRequest struct {
	ReviewID  string         `json:"review_id"`
	ProductID string         `json:"product_id,omitempty"`
	Text      string         `json:"text"`
	TopN      int            `json:"top_n,omitempty"`
	Metadata  ReviewMetadata `json:"metadata"`
}

type ReviewMetadata struct {
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author,omitempty"`
	Source    string    `json:"source,omitempty"`
}

// BatchRequest asks for a BulkSummary over many reviews of one product.
type BatchRequest struct {
	BatchID string   `json:"batch_id"`
	Label   string   `json:"label"`
	Reviews []string `json:"reviews"`
	TopN    int      `json:"top_n,omitempty"`
}

type AnalyzedReview struct {
	ReviewRequest
	ReviewResult
	AnalyzedAt time.Time `json:"analyzed_at"`
}

type AnalyzedBatch struct {
	BatchID string      `json:"batch_id"`
	Summary BulkSummary `json:"summary"`
	// AnalyzedAt is stamped when the summary is produced, before persistence.
	AnalyzedAt time.Time `json:"analyzed_at"`
}
