package app

import (
	"fmt"
	"log/slog"

	"github.com/spacesedan/aspectflow/config"
	"github.com/spacesedan/aspectflow/internal/absa"
	"github.com/spacesedan/aspectflow/internal/clients"
	"github.com/spacesedan/aspectflow/internal/keyphrase"
	"github.com/spacesedan/aspectflow/internal/sentiment"
)

// Pipeline is an analyzer wired to the collaborators named in AppConfig.
type Pipeline struct {
	Analyzer *absa.Analyzer
	// Inference is set when the remote inference service backs the
	// generator or a classifier, so callers can health-check it.
	Inference *clients.HuggingFaceClient
	// Cache is set when result caching is enabled and Valkey answered.
	Cache *clients.ValkeyClient

	closers []func() error
}

func (p *Pipeline) Close() {
	for _, c := range p.closers {
		if err := c(); err != nil {
			slog.Warn("[App] Failed to release resource", slog.String("error", err.Error()))
		}
	}
}

func Build(cfg config.AppConfig) (*Pipeline, error) {
	p := &Pipeline{}

	lexicon := absa.DefaultLexicon()
	if cfg.LexiconPath != "" {
		l, err := absa.LoadLexiconFromYAML(cfg.LexiconPath)
		if err != nil {
			return nil, fmt.Errorf("[App] failed to load lexicon: %w", err)
		}
		lexicon = l
	}

	generator, err := p.generator(cfg)
	if err != nil {
		return nil, err
	}

	classifier, err := p.classifier(cfg)
	if err != nil {
		p.Close()
		return nil, err
	}

	opts := []absa.Option{
		absa.WithLexicon(lexicon),
		absa.WithWorkers(cfg.Workers),
		absa.WithBatchReviewTopN(cfg.BatchReviewTopN),
		absa.WithCallTimeout(cfg.CallTimeout),
		absa.WithMMR(cfg.UseMMR),
	}
	if cfg.ResultCache {
		cache, err := clients.InitValkey(cfg.ResultCacheTTL)
		if err != nil {
			slog.Warn("[App] Result cache unavailable, continuing without it", slog.String("error", err.Error()))
		} else {
			p.Cache = cache
			opts = append(opts, absa.WithResultCache(cache))
			p.closers = append(p.closers, func() error { clients.CloseValkey(); return nil })
		}
	}

	p.Analyzer = absa.NewAnalyzer(generator, classifier, opts...)
	slog.Info("[App] Analyzer ready",
		slog.String("generator", cfg.Generator),
		slog.Any("classifiers", cfg.Classifiers),
		slog.Int("workers", cfg.Workers),
		slog.Bool("result_cache", p.Cache != nil))
	return p, nil
}

func (p *Pipeline) inference() *clients.HuggingFaceClient {
	if p.Inference == nil {
		p.Inference = clients.GetHuggingFaceClient()
	}
	return p.Inference
}

func (p *Pipeline) generator(cfg config.AppConfig) (absa.CandidateGenerator, error) {
	switch cfg.Generator {
	case config.GeneratorLocal:
		return keyphrase.NewLocalGenerator(), nil
	case config.GeneratorRemote:
		return p.inference(), nil
	case config.GeneratorOpenAI:
		client := clients.GetOpenAIClient()
		if client == nil {
			return nil, fmt.Errorf("[App] openai generator selected but OPENAI_API_KEY is not set")
		}
		return keyphrase.NewOpenAIGenerator(client), nil
	default:
		return nil, fmt.Errorf("[App] unknown generator %q", cfg.Generator)
	}
}

func (p *Pipeline) classifier(cfg config.AppConfig) (absa.SentimentClassifier, error) {
	if len(cfg.Classifiers) == 0 {
		return nil, fmt.Errorf("[App] no sentiment classifier configured")
	}

	named := make([]sentiment.NamedClassifier, 0, len(cfg.Classifiers))
	for _, name := range cfg.Classifiers {
		var c absa.SentimentClassifier
		switch name {
		case config.ClassifierRemote:
			c = p.inference()
		case config.ClassifierVader:
			c = sentiment.NewVaderClassifier()
		case config.ClassifierHugot:
			if cfg.HugotModelPath == "" {
				return nil, fmt.Errorf("[App] hugot classifier selected but HUGOT_MODEL_PATH is not set")
			}
			h, err := sentiment.NewHugotClassifier(cfg.HugotModelPath)
			if err != nil {
				return nil, fmt.Errorf("[App] failed to start hugot: %w", err)
			}
			p.closers = append(p.closers, h.Close)
			c = h
		default:
			return nil, fmt.Errorf("[App] unknown classifier %q", name)
		}
		named = append(named, sentiment.NamedClassifier{Name: name, Classifier: c})
	}

	if len(named) == 1 {
		return named[0].Classifier, nil
	}
	return sentiment.NewChain(named...), nil
}
