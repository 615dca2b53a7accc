package clients_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spacesedan/aspectflow/internal/absa"
	"github.com/spacesedan/aspectflow/internal/clients"
	"github.com/spacesedan/aspectflow/internal/models"
)

var _ = Describe("HuggingFaceClient", func() {
	var (
		ctx      context.Context
		mux      *http.ServeMux
		server   *httptest.Server
		client   *clients.HuggingFaceClient
		failures atomic.Int32
	)

	BeforeEach(func() {
		ctx = context.Background()
		failures.Store(0)
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)

		client = clients.NewHuggingFaceClient(clients.HuggingFaceConfig{
			BaseURL:        server.URL + "/",
			Timeout:        time.Second,
			MaxRetries:     3,
			InitialBackoff: time.Millisecond,
		})
	})

	respond := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		Expect(json.NewEncoder(w).Encode(v)).To(Succeed())
	}

	Describe("GenerateCandidates", func() {
		It("sends KeyBERT parameters and returns the keywords", func() {
			var got models.KeyphraseRequest
			mux.HandleFunc("POST "+clients.KEYPHRASE_ENDPOINT, func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				respond(w, models.KeyphraseResponse{Keywords: []models.Candidate{{Phrase: "battery life", Score: 0.7}}})
			})

			candidates, err := client.GenerateCandidates(ctx, "Battery life is great", absa.GenerationParams{
				NgramMin: 1, NgramMax: 3, TopN: 20, UseMMR: true, Diversity: 0.7, CandidatePoolSize: 40,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates).To(Equal([]models.Candidate{{Phrase: "battery life", Score: 0.7}}))

			Expect(got.NgramRange).To(Equal([2]int{1, 3}))
			Expect(got.TopN).To(Equal(20))
			Expect(got.UseMMR).To(BeTrue())
			Expect(got.UseMaxSum).To(BeFalse())
			Expect(got.Diversity).To(Equal(0.7))
		})

		It("retries 5xx responses and then succeeds", func() {
			mux.HandleFunc("POST "+clients.KEYPHRASE_ENDPOINT, func(w http.ResponseWriter, r *http.Request) {
				if failures.Add(1) < 3 {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				respond(w, models.KeyphraseResponse{})
			})

			_, err := client.GenerateCandidates(ctx, "text", absa.GenerationParams{TopN: 5})
			Expect(err).NotTo(HaveOccurred())
			Expect(failures.Load()).To(BeEquivalentTo(3))
		})

		It("wraps exhausted retries as a generation failure", func() {
			mux.HandleFunc("POST "+clients.KEYPHRASE_ENDPOINT, func(w http.ResponseWriter, r *http.Request) {
				failures.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
			})

			_, err := client.GenerateCandidates(ctx, "text", absa.GenerationParams{TopN: 5})
			Expect(err).To(MatchError(absa.ErrGenerationFailed))
			Expect(failures.Load()).To(BeEquivalentTo(3))
		})

		It("does not retry client errors", func() {
			mux.HandleFunc("POST "+clients.KEYPHRASE_ENDPOINT, func(w http.ResponseWriter, r *http.Request) {
				failures.Add(1)
				w.WriteHeader(http.StatusBadRequest)
			})

			_, err := client.GenerateCandidates(ctx, "text", absa.GenerationParams{TopN: 5})
			Expect(err).To(MatchError(absa.ErrGenerationFailed))
			Expect(failures.Load()).To(BeEquivalentTo(1))
		})
	})

	Describe("ClassifySentiment", func() {
		It("maps service labels onto sentiments", func() {
			mux.HandleFunc("POST "+clients.SENTIMENT_ENDPOINT, func(w http.ResponseWriter, r *http.Request) {
				respond(w, models.SentimentAnalysisResponse{Text: "x", Sentiment: "LABEL_2", Confidence: 0.93})
			})

			prediction, err := client.ClassifySentiment(ctx, "love it")
			Expect(err).NotTo(HaveOccurred())
			Expect(prediction).To(Equal(models.SentimentPrediction{Label: models.SentimentPositive, Confidence: 0.93}))
		})

		It("rejects blank text without a request", func() {
			_, err := client.ClassifySentiment(ctx, "   ")
			Expect(err).To(MatchError(absa.ErrEmptyText))
		})

		It("reports malformed bodies as classification failures", func() {
			mux.HandleFunc("POST "+clients.SENTIMENT_ENDPOINT, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			})

			_, err := client.ClassifySentiment(ctx, "love it")
			Expect(err).To(MatchError(absa.ErrClassificationFailed))
		})
	})

	Describe("ClassifySentiments", func() {
		It("returns one prediction per text in order", func() {
			mux.HandleFunc("POST "+clients.BATCH_SENTIMENT_ENDPOINT, func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				var req models.SentimentAnalysisBatchRequest
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				Expect(req.Reviews).To(Equal([]string{"bad", "fine"}))
				respond(w, models.SentimentAnalysisBatchResponse{
					Predictions: []models.SentimentAnalysisResponse{
						{Sentiment: "negative", Confidence: 0.8},
						{Sentiment: "LABEL_1", Confidence: 0.6},
					},
					Count: 2,
				})
			})

			predictions, err := client.ClassifySentiments(ctx, []string{"bad", "fine"})
			Expect(err).NotTo(HaveOccurred())
			Expect(predictions).To(Equal([]models.SentimentPrediction{
				{Label: models.SentimentNegative, Confidence: 0.8},
				{Label: models.SentimentNeutral, Confidence: 0.6},
			}))
		})

		It("fails when the prediction count does not match", func() {
			mux.HandleFunc("POST "+clients.BATCH_SENTIMENT_ENDPOINT, func(w http.ResponseWriter, r *http.Request) {
				respond(w, models.SentimentAnalysisBatchResponse{})
			})

			_, err := client.ClassifySentiments(ctx, []string{"bad", "fine"})
			Expect(err).To(MatchError(absa.ErrClassificationFailed))
		})
	})

	Describe("HealthCheck", func() {
		It("accepts a healthy status", func() {
			mux.HandleFunc("GET "+clients.HEALTH_ENDPOINT, func(w http.ResponseWriter, r *http.Request) {
				respond(w, models.HealthResponse{Status: "healthy"})
			})
			Expect(client.HealthCheck(ctx)).To(BeTrue())
		})

		It("rejects any other status", func() {
			mux.HandleFunc("GET "+clients.HEALTH_ENDPOINT, func(w http.ResponseWriter, r *http.Request) {
				respond(w, models.HealthResponse{Status: "loading"})
			})
			Expect(client.HealthCheck(ctx)).To(BeFalse())
		})

		It("reports an unreachable service as unhealthy", func() {
			server.Close()
			Expect(client.HealthCheck(ctx)).To(BeFalse())
		})
	})
})
