package model

import "time"

// NewsArticle is one item from the news feed.
type NewsArticle struct {
	ID          string
	Title       string
	Body        string
	Source      string
	PublishedOn int64 // epoch seconds
	ImageURL    string
	URL         string
	Tags        string
	Categories  string
}

// Published returns the publish time.
func (n NewsArticle) Published() time.Time {
	return time.Unix(n.PublishedOn, 0)
}
