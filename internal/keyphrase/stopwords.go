package keyphrase

var englishStopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and", "any", "are",
	"aren't", "as", "at", "be", "because", "been", "before", "being", "below", "between", "both", "but",
	"by", "can", "can't", "cannot", "could", "couldn't", "did", "didn't", "do", "does", "doesn't", "doing",
	"don't", "down", "during", "each", "even", "ever", "every", "few", "for", "from", "further", "get",
	"gets", "got", "had", "hadn't", "has", "hasn't", "have", "haven't", "having", "he", "her", "here",
	"hers", "herself", "him", "himself", "his", "how", "however", "i", "i'm", "i've", "if", "in", "into",
	"is", "isn't", "it", "it's", "its", "itself", "just", "let's", "like", "me", "more", "most", "much",
	"must", "my", "myself", "no", "nor", "not", "now", "of", "off", "on", "once", "only", "or", "other",
	"our", "ours", "ourselves", "out", "over", "own", "really", "same", "she", "should", "shouldn't",
	"so", "some", "still", "such", "than", "that", "that's", "the", "their", "theirs", "them",
	"themselves", "then", "there", "there's", "these", "they", "they're", "this", "those", "through",
	"to", "too", "under", "until", "up", "us", "very", "was", "wasn't", "we", "were", "weren't", "what",
	"when", "where", "which", "while", "who", "whom", "why", "will", "with", "won't", "would",
	"wouldn't", "yet", "you", "your", "yours", "yourself", "yourselves",
}
