package models

type OpenAIKeyphrase struct {
	Phrase string  `json:"phrase"`
	Score  float64 `json:"score"`
}

type OpenAIKeyphraseResponse struct {
	Keyphrases []OpenAIKeyphrase `json:"keyphrases"`
}
