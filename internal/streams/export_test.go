package streams

import "time"

func (t *ReviewTailer) SetPollInterval(d time.Duration) {
	t.pollInterval = d
}

func (t *ReviewTailer) SetRetryBackoff(d time.Duration) {
	t.retryBackoff = d
}
