package usecase

import (
	"context"
	"sort"

	"github.com/doclens/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	EnableDebugLogging bool
	Logger             *logrus.Entry
}

// MatchingService finds catalog products mentioned in a document and ranks them
type MatchingService struct {
	enableDebugLogging bool
	logger             *logrus.Entry
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	logger := config.Logger
	if logger == nil {
		logger = logrus.WithField("component", "matching_service")
	}

	return &MatchingService{
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger,
	}
}

// FindProducts is FindProductsInText with cancellation checked between
// products. A canceled context returns the context error and no results.
func (s *MatchingService) FindProducts(
	ctx context.Context,
	text string,
	products []domain.Product,
) ([]domain.MatchResult, error) {
	normalized := Normalize(text)
	if normalized == "" || len(products) == 0 {
		return []domain.MatchResult{}, nil
	}

	results := make([]domain.MatchResult, 0, len(products))
	for _, product := range products {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, mentioned := scoreProduct(normalized, product)
		if !mentioned {
			continue
		}

		if s.enableDebugLogging {
			s.logger.WithFields(logrus.Fields{
				"product":  product.Name,
				"index":    result.Index,
				"positive": result.PositiveCount,
				"negative": result.NegativeCount,
			}).Debug("product mentioned")
		}

		results = append(results, result)
	}

	rankResults(results)

	if s.enableDebugLogging {
		s.logger.WithFields(logrus.Fields{
			"catalog":   len(products),
			"mentioned": len(results),
		}).Debug("matching finished")
	}

	return results, nil
}

// FindProductsInText returns every product whose name appears in text as a
// whole-word match, scored by its own keyword lists and sorted by index
// descending. Products with equal indices keep their catalog order.
func FindProductsInText(text string, products []domain.Product) []domain.MatchResult {
	normalized := Normalize(text)
	results := []domain.MatchResult{}
	if normalized == "" {
		return results
	}

	for _, product := range products {
		if result, mentioned := scoreProduct(normalized, product); mentioned {
			results = append(results, result)
		}
	}

	rankResults(results)
	return results
}

// scoreProduct scores one product against already-normalized text.
// The second return value is false when the product name is not mentioned.
func scoreProduct(normalizedText string, product domain.Product) (domain.MatchResult, bool) {
	name := Normalize(product.Name)
	if name == "" {
		return domain.MatchResult{}, false
	}

	nameVariant := PhraseVariant{Kind: VariantExact, Parts: []string{name}}
	if !nameVariant.In(normalizedText) {
		return domain.MatchResult{}, false
	}

	positive := ParseKeywords(product.PositiveKeywords)
	negative := ParseKeywords(product.NegativeKeywords)

	index, positiveCount, negativeCount := calculateIndexTerms(normalizedText, positive, negative)

	return domain.MatchResult{
		ProductID:       product.ID,
		ProductName:     product.Name,
		Description:     product.Description,
		Index:           index,
		PositiveCount:   positiveCount,
		NegativeCount:   negativeCount,
		MatchedKeywords: matchedKeywords(normalizedText, positive, negative),
	}, true
}

// matchedKeywords marks every declared keyword as found or not found,
// positives first, in declaration order.
func matchedKeywords(normalizedText string, positive, negative []string) []domain.KeywordMatch {
	matches := make([]domain.KeywordMatch, 0, len(positive)+len(negative))
	for _, term := range positive {
		matches = append(matches, domain.KeywordMatch{
			Keyword:  term,
			Polarity: domain.PolarityPositive,
			Found:    ContainsTerm(normalizedText, term),
		})
	}
	for _, term := range negative {
		matches = append(matches, domain.KeywordMatch{
			Keyword:  term,
			Polarity: domain.PolarityNegative,
			Found:    ContainsTerm(normalizedText, term),
		})
	}
	return matches
}

func rankResults(results []domain.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Index > results[j].Index
	})
}
