package keyphrase

var CleanOpenAIResponse = cleanOpenAIResponse
