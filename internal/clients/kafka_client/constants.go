package kafka_client

import "time"

const (
	KAFKA_TOPIC_REVIEW_REQUESTS = "review-requests" // single reviews waiting for aspect analysis
	KAFKA_TOPIC_REVIEW_RESULTS  = "review-results"  // analyzed reviews ready for storage
	KAFKA_TOPIC_BATCH_REQUESTS  = "batch-requests"  // labelled review batches to summarize
	KAFKA_TOPIC_BATCH_SUMMARIES = "batch-summaries" // finished bulk summaries
)

const (
	MAX_RETRIES   = 5
	RETRY_DELAY   = 2 * time.Second
	POLL_INTERVAL = 500 * time.Millisecond
)
