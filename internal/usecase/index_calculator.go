package usecase

import "math"

// CalculateIndex scores a document for one product's keyword lists.
// Keyword lists are raw comma-separated strings. The index is
// (positive - negative) / total * 100, floored at 0 and rounded to two
// decimals; a document with no keyword activity scores (0, 0, 0).
func CalculateIndex(normalizedText, positiveKeywords, negativeKeywords string) (float64, int, int) {
	return calculateIndexTerms(Normalize(normalizedText), ParseKeywords(positiveKeywords), ParseKeywords(negativeKeywords))
}

// calculateIndexTerms expects text that is already normalized
func calculateIndexTerms(text string, positive, negative []string) (float64, int, int) {
	positiveCount := CountOccurrences(text, positive)
	negativeCount := CountOccurrences(text, negative)

	total := positiveCount + negativeCount
	if total == 0 {
		return 0, 0, 0
	}

	index := float64(positiveCount-negativeCount) / float64(total) * 100
	if index < 0 {
		index = 0
	}

	return roundTo2(index), positiveCount, negativeCount
}

// roundTo2 rounds to two decimal places, ties to even (3.125 -> 3.12)
func roundTo2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
