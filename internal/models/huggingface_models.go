package models

// KeyphraseRequest mirrors KeyBERT's extract_keywords arguments.
type KeyphraseRequest struct {
	Text              string  `json:"text"`
	NgramRange        [2]int  `json:"keyphrase_ngram_range"`
	StopWords         string  `json:"stop_words"`
	TopN              int     `json:"top_n"`
	UseMMR            bool    `json:"use_mmr"`
	UseMaxSum         bool    `json:"use_maxsum"`
	Diversity         float64 `json:"diversity,omitempty"`
	CandidatePoolSize int     `json:"nr_candidates"`
}

type KeyphraseResponse struct {
	Keywords []Candidate `json:"keywords"`
}

type (
	SentimentAnalysisRequest struct {
		Text string `json:"text"`
	}
	SentimentAnalysisBatchRequest struct {
		Reviews []string `json:"reviews"`
	}
)

type (
	SentimentAnalysisResponse struct {
		Text       string  `json:"text"`
		Sentiment  string  `json:"sentiment"`
		Confidence float64 `json:"confidence"`
	}
	SentimentAnalysisBatchResponse struct {
		Predictions []SentimentAnalysisResponse `json:"predictions"`
		Count       int                         `json:"count"`
	}
)

type HealthResponse struct {
	Status string `json:"status"`
}
