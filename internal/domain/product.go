package domain

import "time"

// Product is a catalog entry scored against documents.
// Keywords are raw comma-separated lists; parsing happens per call.
type Product struct {
	ID               string    `json:"id" yaml:"id,omitempty"`
	Name             string    `json:"name" yaml:"name" binding:"required"`
	Description      string    `json:"description,omitempty" yaml:"description,omitempty"`
	PositiveKeywords string    `json:"positiveKeywords" yaml:"positive_keywords"`
	NegativeKeywords string    `json:"negativeKeywords" yaml:"negative_keywords"`
	CreatedAt        time.Time `json:"createdAt,omitempty" yaml:"-"`
	UpdatedAt        time.Time `json:"updatedAt,omitempty" yaml:"-"`
}

// Polarity tells whether a keyword counts for or against a product
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

// KeywordMatch reports whether one declared keyword was found in a document
type KeywordMatch struct {
	Keyword  string   `json:"keyword"`
	Polarity Polarity `json:"polarity"`
	Found    bool     `json:"found"`
}

// Rating buckets an index for human review
type Rating string

const (
	RatingExcellent Rating = "excellent" // index >= 70
	RatingRegular   Rating = "regular"   // index >= 30
	RatingPoor      Rating = "poor"
)

// RatingFor maps an index to its rating bucket
func RatingFor(index float64) Rating {
	switch {
	case index >= 70:
		return RatingExcellent
	case index >= 30:
		return RatingRegular
	default:
		return RatingPoor
	}
}

// MatchResult is the score of one mentioned product against one document
type MatchResult struct {
	ProductID       string         `json:"productId"`
	ProductName     string         `json:"productName"`
	Description     string         `json:"description,omitempty"`
	Index           float64        `json:"index"` // 0-100, two decimals
	PositiveCount   int            `json:"positiveCount"`
	NegativeCount   int            `json:"negativeCount"`
	MatchedKeywords []KeywordMatch `json:"matchedKeywords"`
	Rating          Rating         `json:"rating,omitempty"`
	Contexts        []string       `json:"contexts,omitempty"`
}
