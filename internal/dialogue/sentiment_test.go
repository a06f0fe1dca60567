package dialogue

import "testing"

func TestScoreSentiment(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     Sentiment
		positive int
		negative int
	}{
		{"positive", "the food was great, I love it", SentimentPositive, 2, 0},
		{"negative", "terrible service, I hate waiting", SentimentNegative, 0, 2},
		{"tie is neutral", "good but bad", SentimentNeutral, 1, 1},
		{"no signal", "what time do you open", SentimentNeutral, 0, 0},
		{"case insensitive", "GREAT experience", SentimentPositive, 1, 0},
		// "dislike" also contains "like", so substring matching scores both
		// lexicons and the tie-break lands on neutral.
		{"substring overlap ties", "I dislike this", SentimentNeutral, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreSentiment(tt.text)
			if got.Sentiment != tt.want {
				t.Fatalf("ScoreSentiment(%q).Sentiment = %s, want %s", tt.text, got.Sentiment, tt.want)
			}
			if got.PositiveScore != tt.positive || got.NegativeScore != tt.negative {
				t.Fatalf("ScoreSentiment(%q) scores = (%d,%d), want (%d,%d)",
					tt.text, got.PositiveScore, got.NegativeScore, tt.positive, tt.negative)
			}
		})
	}
}
