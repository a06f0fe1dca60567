package dialogue

import "strings"

// Sentiment labels the overall tone of an utterance.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// SentimentResult carries the label plus the raw lexicon counts used for
// the tie-break: positive wins only when its count is strictly higher.
type SentimentResult struct {
	Sentiment     Sentiment `json:"sentiment"`
	PositiveScore int       `json:"positive_score"`
	NegativeScore int       `json:"negative_score"`
}

var positiveWords = []string{"good", "great", "excellent", "amazing", "love", "like", "happy", "pleased"}

var negativeWords = []string{"bad", "terrible", "awful", "hate", "dislike", "unhappy", "angry", "disappointed"}

// ScoreSentiment tags text against the two fixed lexicons. Matching is
// case-insensitive substring containment per word; equal counts are neutral.
// Deterministic and stateless.
func ScoreSentiment(text string) SentimentResult {
	lower := strings.ToLower(text)

	positive := 0
	for _, word := range positiveWords {
		if strings.Contains(lower, word) {
			positive++
		}
	}
	negative := 0
	for _, word := range negativeWords {
		if strings.Contains(lower, word) {
			negative++
		}
	}

	sentiment := SentimentNeutral
	if positive > negative {
		sentiment = SentimentPositive
	} else if negative > positive {
		sentiment = SentimentNegative
	}

	return SentimentResult{
		Sentiment:     sentiment,
		PositiveScore: positive,
		NegativeScore: negative,
	}
}
