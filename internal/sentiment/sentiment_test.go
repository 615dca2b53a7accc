package sentiment_test

import (
	"context"
	"errors"

	"github.com/knights-analytics/hugot/pipelines"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spacesedan/aspectflow/internal/absa"
	"github.com/spacesedan/aspectflow/internal/models"
	"github.com/spacesedan/aspectflow/internal/sentiment"
)

type fakePipeline struct {
	RunFn func(inputs []string) (*pipelines.TextClassificationOutput, error)
}

func (f *fakePipeline) RunPipeline(inputs []string) (*pipelines.TextClassificationOutput, error) {
	return f.RunFn(inputs)
}

var _ = Describe("MapLabel", func() {
	DescribeTable("normalizes labels",
		func(raw string, expected models.Sentiment) {
			Expect(sentiment.MapLabel(raw)).To(Equal(expected))
		},
		Entry("LABEL_0", "LABEL_0", models.SentimentNegative),
		Entry("LABEL_1", "LABEL_1", models.SentimentNeutral),
		Entry("LABEL_2", "LABEL_2", models.SentimentPositive),
		Entry("plain positive", "Positive", models.SentimentPositive),
		Entry("plain negative", "negative", models.SentimentNegative),
		Entry("unknown", "LABEL_7", models.SentimentNeutral),
	)
})

var _ = Describe("ConvertMarkdownToText", func() {
	It("keeps link text and drops markup", func() {
		Expect(sentiment.ConvertMarkdownToText("**Great** [strap](https://example.com/strap) watch")).
			To(Equal("Great strap watch"))
	})

	It("drops bare urls", func() {
		Expect(sentiment.ConvertMarkdownToText("see https://example.com now")).To(Equal("see now"))
	})

	It("decodes named entities", func() {
		Expect(sentiment.ConvertMarkdownToText("Caf&eacute; strap &copy; fits & feels great")).
			To(Equal("Café strap © fits & feels great"))
	})
})

var _ = Describe("VaderClassifier", func() {
	classifier := sentiment.NewVaderClassifier()
	ctx := context.Background()

	It("labels clearly positive text", func() {
		p, err := classifier.ClassifySentiment(ctx, "I love this watch, the battery is great!")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Label).To(Equal(models.SentimentPositive))
		Expect(p.Confidence).To(BeNumerically(">=", 0.2))
	})

	It("labels clearly negative text", func() {
		p, err := classifier.ClassifySentiment(ctx, "The screen is terrible and the strap is awful")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Label).To(Equal(models.SentimentNegative))
	})

	It("labels text without polarity as neutral", func() {
		p, err := classifier.ClassifySentiment(ctx, "The watch is black")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Label).To(Equal(models.SentimentNeutral))
		Expect(p.Confidence).To(BeNumerically("~", 1.0, 0.2))
	})

	It("rejects empty text", func() {
		_, err := classifier.ClassifySentiment(ctx, "   ")
		Expect(err).To(MatchError(absa.ErrEmptyText))
	})

	It("classifies a batch in order", func() {
		ps, err := classifier.ClassifySentiments(ctx, []string{"I love it", "I hate it"})
		Expect(err).NotTo(HaveOccurred())
		Expect(ps).To(HaveLen(2))
		Expect(ps[0].Label).To(Equal(models.SentimentPositive))
		Expect(ps[1].Label).To(Equal(models.SentimentNegative))
	})
})

var _ = Describe("HugotClassifier", func() {
	ctx := context.Background()

	It("maps the highest scoring label", func() {
		classifier := sentiment.NewHugotClassifierWithPipeline(&fakePipeline{
			RunFn: func(inputs []string) (*pipelines.TextClassificationOutput, error) {
				Expect(inputs).To(Equal([]string{"great battery"}))
				return &pipelines.TextClassificationOutput{
					ClassificationOutputs: [][]pipelines.ClassificationOutput{{
						{Label: "LABEL_1", Score: 0.2},
						{Label: "LABEL_2", Score: 0.75},
					}},
				}, nil
			},
		})

		p, err := classifier.ClassifySentiment(ctx, "great battery")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Label).To(Equal(models.SentimentPositive))
		Expect(p.Confidence).To(BeNumerically("~", 0.75, 1e-6))
	})

	It("wraps pipeline failures", func() {
		classifier := sentiment.NewHugotClassifierWithPipeline(&fakePipeline{
			RunFn: func([]string) (*pipelines.TextClassificationOutput, error) {
				return nil, errors.New("onnx failure")
			},
		})
		_, err := classifier.ClassifySentiment(ctx, "text")
		Expect(err).To(MatchError(ContainSubstring("onnx failure")))
	})

	It("rejects mismatched output counts", func() {
		classifier := sentiment.NewHugotClassifierWithPipeline(&fakePipeline{
			RunFn: func([]string) (*pipelines.TextClassificationOutput, error) {
				return &pipelines.TextClassificationOutput{}, nil
			},
		})
		_, err := classifier.ClassifySentiments(ctx, []string{"a", "b"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Chain", func() {
	ctx := context.Background()
	failing := absa.ClassifierFunc(func(context.Context, string) (models.SentimentPrediction, error) {
		return models.SentimentPrediction{}, errors.New("down")
	})
	positive := absa.ClassifierFunc(func(context.Context, string) (models.SentimentPrediction, error) {
		return models.SentimentPrediction{Label: models.SentimentPositive, Confidence: 0.7}, nil
	})

	It("falls through to the next classifier", func() {
		chain := sentiment.NewChain(
			sentiment.NamedClassifier{Name: "remote", Classifier: failing},
			sentiment.NamedClassifier{Name: "vader", Classifier: positive},
		)
		p, err := chain.ClassifySentiment(ctx, "text")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Label).To(Equal(models.SentimentPositive))
	})

	It("fails when every classifier fails", func() {
		chain := sentiment.NewChain(
			sentiment.NamedClassifier{Name: "remote", Classifier: failing},
			sentiment.NamedClassifier{Name: "hugot", Classifier: failing},
		)
		_, err := chain.ClassifySentiment(ctx, "text")
		Expect(err).To(MatchError(ContainSubstring("remote: down")))
		Expect(err).To(MatchError(ContainSubstring("hugot: down")))
	})

	It("fails with no classifiers", func() {
		_, err := sentiment.NewChain().ClassifySentiment(ctx, "text")
		Expect(err).To(HaveOccurred())
	})
})
