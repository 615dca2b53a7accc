package absa_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spacesedan/aspectflow/internal/absa"
)

var _ = Describe("Lexicon", func() {
	It("normalizes entries to lower case", func() {
		lex, err := absa.NewLexicon([]string{" Really ", "GOOD", ""}, []string{"Battery"})
		Expect(err).NotTo(HaveOccurred())
		Expect(lex.IsNonAspect("really")).To(BeTrue())
		Expect(lex.IsNonAspect("Good")).To(BeTrue())
		Expect(lex.IsCoreTerm("BATTERY")).To(BeTrue())
		Expect(lex.IsCoreTerm("")).To(BeFalse())
	})

	It("rejects overlapping sets", func() {
		_, err := absa.NewLexicon([]string{"battery"}, []string{"battery", "screen"})
		Expect(err).To(MatchError(absa.ErrInvalidLexicon))
	})

	It("rejects an empty core set", func() {
		_, err := absa.NewLexicon([]string{"really"}, nil)
		Expect(err).To(MatchError(absa.ErrInvalidLexicon))
	})

	It("finds anchor terms on word boundaries only", func() {
		lex := absa.DefaultLexicon()
		Expect(lex.ContainsCoreTerm("great battery life")).To(BeTrue())
		Expect(lex.ContainsCoreTerm("batteryless design")).To(BeTrue())
		Expect(lex.ContainsCoreTerm("batteryless")).To(BeFalse())
	})

	Describe("LoadLexiconFromYAML", func() {
		It("loads both word lists", func() {
			path := filepath.Join(GinkgoT().TempDir(), "lexicon.yaml")
			content := "non_aspect_words: [really, very]\ncore_aspect_terms: [Lens, shutter]\n"
			Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

			lex, err := absa.LoadLexiconFromYAML(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(lex.IsCoreTerm("lens")).To(BeTrue())
			Expect(lex.IsNonAspect("very")).To(BeTrue())
			Expect(lex.IsCoreTerm("battery")).To(BeFalse())
		})

		It("fails on a missing file", func() {
			_, err := absa.LoadLexiconFromYAML(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
			Expect(err).To(HaveOccurred())
		})
	})
})
