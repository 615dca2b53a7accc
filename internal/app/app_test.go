package app_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spacesedan/aspectflow/config"
	"github.com/spacesedan/aspectflow/internal/app"
	"github.com/spacesedan/aspectflow/internal/models"
)

func offline() config.AppConfig {
	return config.AppConfig{
		TopN:            8,
		BatchReviewTopN: 5,
		Workers:         2,
		UseMMR:          true,
		Generator:       config.GeneratorLocal,
		Classifiers:     []string{config.ClassifierVader},
	}
}

var _ = Describe("Build", func() {
	It("wires a fully offline analyzer", func() {
		p, err := app.Build(offline())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(p.Close)

		Expect(p.Inference).To(BeNil())
		Expect(p.Cache).To(BeNil())

		result := p.Analyzer.AnalyzeReview(context.Background(), "I love this watch. The battery life is amazing!", 5)
		Expect(result.OverallSentiment).To(Equal(models.SentimentPositive))
	})

	It("only creates the inference client when something uses it", func() {
		cfg := offline()
		cfg.Classifiers = []string{config.ClassifierRemote, config.ClassifierVader}

		p, err := app.Build(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Inference).NotTo(BeNil())
	})

	It("loads a lexicon override", func() {
		path := filepath.Join(GinkgoT().TempDir(), "lexicon.yaml")
		Expect(os.WriteFile(path, []byte("non_aspect_words: [thing]\ncore_aspect_terms: [strap]\n"), 0o600)).To(Succeed())

		cfg := offline()
		cfg.LexiconPath = path
		p, err := app.Build(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Analyzer.Lexicon().IsCoreTerm("strap")).To(BeTrue())
	})

	DescribeTable("rejects unusable settings",
		func(mutate func(*config.AppConfig)) {
			cfg := offline()
			mutate(&cfg)
			_, err := app.Build(cfg)
			Expect(err).To(HaveOccurred())
		},
		Entry("unknown generator", func(c *config.AppConfig) { c.Generator = "magic" }),
		Entry("unknown classifier", func(c *config.AppConfig) { c.Classifiers = []string{"vader", "crystal-ball"} }),
		Entry("no classifier", func(c *config.AppConfig) { c.Classifiers = nil }),
		Entry("hugot without a model", func(c *config.AppConfig) { c.Classifiers = []string{"hugot"} }),
		Entry("missing lexicon file", func(c *config.AppConfig) { c.LexiconPath = "/does/not/exist.yaml" }),
	)

	It("requires an API key for the openai generator", func() {
		GinkgoT().Setenv("OPENAI_API_KEY", "")
		cfg := offline()
		cfg.Generator = config.GeneratorOpenAI
		_, err := app.Build(cfg)
		Expect(err).To(MatchError(ContainSubstring("OPENAI_API_KEY")))
	})
})
