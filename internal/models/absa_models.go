package models

// Sentiment is the three-way label every classifier output is mapped onto.
type Sentiment string

const (
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentPositive Sentiment = "positive"
)

// LengthCategory buckets a review by word count. Every adaptive threshold in
// aspect extraction is keyed off it.
type LengthCategory string

const (
	LengthShort  LengthCategory = "short"
	LengthMedium LengthCategory = "medium"
	LengthLong   LengthCategory = "long"
)

// Candidate is a raw keyphrase proposed by a candidate generator. Scores are
// only comparable within a single generator call.
type Candidate struct {
	Phrase string  `json:"phrase"`
	Score  float64 `json:"score"`
}

type Aspect struct {
	Keyword        string  `json:"keyword" dynamodbav:"keyword"`
	RelevanceScore float64 `json:"relevance_score" dynamodbav:"relevance_score"`
}

type AspectSentiment struct {
	Aspect         string    `json:"aspect" dynamodbav:"aspect"`
	Sentiment      Sentiment `json:"sentiment" dynamodbav:"sentiment"`
	Confidence     float64   `json:"confidence" dynamodbav:"confidence"`
	TextSpan       string    `json:"text_span" dynamodbav:"text_span"`
	RelevanceScore float64   `json:"relevance_score" dynamodbav:"relevance_score"`
}

type ReviewResult struct {
	OverallSentiment  Sentiment         `json:"overall_sentiment" dynamodbav:"overall_sentiment"`
	OverallConfidence float64           `json:"overall_confidence" dynamodbav:"overall_confidence"`
	Aspects           []AspectSentiment `json:"aspects" dynamodbav:"aspects"`
	TotalAspectsFound int               `json:"total_aspects_found" dynamodbav:"total_aspects_found"`
}

// SentimentPrediction is what a sentiment classifier returns for one span.
type SentimentPrediction struct {
	Label      Sentiment `json:"label"`
	Confidence float64   `json:"confidence"`
}

// AspectAggregate accumulates one aspect's mentions across a batch.
// Mentions always equals the length of each of the three slices.
type AspectAggregate struct {
	Sentiments      []Sentiment `json:"sentiments"`
	Confidences     []float64   `json:"confidences"`
	RelevanceScores []float64   `json:"relevance_scores"`
	Mentions        int         `json:"mentions"`
	SampleTexts     []string    `json:"sample_texts"`
}

type SentimentCounts struct {
	Positive int `json:"positive" dynamodbav:"positive"`
	Neutral  int `json:"neutral" dynamodbav:"neutral"`
	Negative int `json:"negative" dynamodbav:"negative"`
}

type SentimentPercentages struct {
	Positive float64 `json:"positive" dynamodbav:"positive"`
	Neutral  float64 `json:"neutral" dynamodbav:"neutral"`
	Negative float64 `json:"negative" dynamodbav:"negative"`
}

type AspectSummary struct {
	Aspect                string               `json:"aspect" dynamodbav:"aspect"`
	SentimentDistribution SentimentCounts      `json:"sentiment_distribution" dynamodbav:"sentiment_distribution"`
	Percentages           SentimentPercentages `json:"percentages" dynamodbav:"percentages"`
	AvgConfidence         float64              `json:"avg_confidence" dynamodbav:"avg_confidence"`
	AvgRelevance          float64              `json:"avg_relevance" dynamodbav:"avg_relevance"`
	Mentions              int                  `json:"mentions" dynamodbav:"mentions"`
	PercentageMentioned   float64              `json:"percentage_mentioned" dynamodbav:"percentage_mentioned"`
	SampleReviews         []string             `json:"sample_reviews" dynamodbav:"sample_reviews"`
}

// BulkSummary is the cross-review report for one labelled batch. Aspects keep
// the order in which they were first encountered while scanning reviews.
type BulkSummary struct {
	Label             string               `json:"product_name" dynamodbav:"label"`
	TotalReviews      int                  `json:"total_reviews" dynamodbav:"total_reviews"`
	AspectsFound      int                  `json:"aspects_found" dynamodbav:"aspects_found"`
	OverallSentiment  SentimentCounts      `json:"overall_sentiment" dynamodbav:"overall_sentiment"`
	OverallPercentage SentimentPercentages `json:"overall_percentage" dynamodbav:"overall_percentage"`
	Aspects           []AspectSummary      `json:"aspects" dynamodbav:"aspects"`
	KeyInsights       []string             `json:"key_insights" dynamodbav:"key_insights"`
	PreviewAspects    []Aspect             `json:"preview_aspects,omitempty" dynamodbav:"preview_aspects,omitempty"`
}

type SentimentStats struct {
	SentimentCounts
	Total int `json:"total"`
}
