package absa

import "errors"

var (
	ErrGenerationFailed     = errors.New("candidate generation failed")
	ErrClassificationFailed = errors.New("sentiment classification failed")
	ErrEmptyText            = errors.New("empty text")
	ErrInvalidLexicon       = errors.New("invalid lexicon")
)
