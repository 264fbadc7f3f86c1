package model

import "strings"

// Sentiment is the direction call of an analysis.
type Sentiment string

const (
	SentimentBullish Sentiment = "Bullish"
	SentimentBearish Sentiment = "Bearish"
	SentimentNeutral Sentiment = "Neutral"
)

// ParseSentiment maps free text to a Sentiment, defaulting to Neutral.
func ParseSentiment(s string) Sentiment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bullish":
		return SentimentBullish
	case "bearish":
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}

// Source is a web citation attached to an analysis.
type Source struct {
	Title string
	URI   string
}

// Analysis is the AI-generated narrative for one market.
type Analysis struct {
	Sentiment Sentiment
	Title     string
	Text      string // lightweight markdown
	Sources   []Source
}
