package clients

import "time"

const (
	MAX_RETRIES     = 5
	INITIAL_BACKOFF = 1 * time.Second
	MAX_BACKOFF     = 32 * time.Second
	USER_AGENT      = "aspectflow-client/1.0 (+https://github.com/spacesedan/aspectflow)"
)

const (
	KEYPHRASE_ENDPOINT       = "/keyphrases"
	SENTIMENT_ENDPOINT       = "/predict"
	BATCH_SENTIMENT_ENDPOINT = "/batch-predict"
	HEALTH_ENDPOINT          = "/health"

	DEFAULT_INFERENCE_BASE_URL = "https://spacesedan-absa.hf.space"
)
