package usecase

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/doclens/backend/internal/domain"
	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AnalysisServiceConfig holds configuration for the analysis service
type AnalysisServiceConfig struct {
	CacheTTL           time.Duration
	ContextWords       int
	MaxContexts        int
	EnableDebugLogging bool
}

// AnalysisService scores documents against the product catalog and keeps
// the analysis history.
type AnalysisService struct {
	cache           domain.CacheRepository
	products        domain.ProductRepository
	analyses        domain.AnalysisRepository
	extractor       domain.TextExtractor
	fetcher         domain.DocumentFetcher
	matchingService *MatchingService
	cacheTTL        time.Duration
	contextWords    int
	maxContexts     int
	logger          *logrus.Entry
}

// NewAnalysisService creates a new analysis service with dependencies.
// cache and fetcher may be nil; analyses then skip caching and URL
// analysis returns ErrInvalidRequest.
func NewAnalysisService(
	cache domain.CacheRepository,
	products domain.ProductRepository,
	analyses domain.AnalysisRepository,
	extractor domain.TextExtractor,
	fetcher domain.DocumentFetcher,
	config AnalysisServiceConfig,
	logger *logrus.Entry,
) *AnalysisService {
	if logger == nil {
		logger = logrus.WithField("component", "analysis_service")
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	contextWords := config.ContextWords
	if contextWords <= 0 {
		contextWords = DefaultContextWords
	}

	maxContexts := config.MaxContexts
	if maxContexts <= 0 || maxContexts > MaxContexts {
		maxContexts = MaxContexts
	}

	return &AnalysisService{
		cache:     cache,
		products:  products,
		analyses:  analyses,
		extractor: extractor,
		fetcher:   fetcher,
		matchingService: NewMatchingService(MatchConfig{
			EnableDebugLogging: config.EnableDebugLogging,
			Logger:             logger.WithField("component", "matching_service"),
		}),
		cacheTTL:     cacheTTL,
		contextWords: contextWords,
		maxContexts:  maxContexts,
		logger:       logger,
	}
}

// AnalyzeText scores already-extracted text.
// Flow: check cache -> load catalog -> match -> attach contexts -> save history -> cache
func (s *AnalysisService) AnalyzeText(ctx context.Context, request *domain.AnalysisRequest) (*domain.Analysis, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}

	normalized := Normalize(request.Text)
	if normalized == "" {
		return nil, domain.ErrNoText
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	if len(products) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	cacheKey := generateCacheKey(normalized, products)

	analysis := &domain.Analysis{
		ID:        uuid.NewString(),
		Source:    request.Source,
		CreatedAt: time.Now().UTC(),
	}

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		analysis.Results = cached
		analysis.Cached = true
	} else {
		results, err := s.matchingService.FindProducts(ctx, normalized, products)
		if err != nil {
			return nil, err
		}

		for i := range results {
			results[i].Rating = domain.RatingFor(results[i].Index)
			contexts := ExtractContext(normalized, results[i].ProductName, s.contextWords)
			if len(contexts) > s.maxContexts {
				contexts = contexts[:s.maxContexts]
			}
			results[i].Contexts = contexts
		}
		analysis.Results = results

		if err := s.setInCache(ctx, cacheKey, results); err != nil {
			// Log but don't fail if caching fails
			s.logger.WithError(err).Warn("failed to cache analysis results")
		}
	}

	if err := s.analyses.Save(ctx, analysis); err != nil {
		return nil, fmt.Errorf("saving analysis: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"analysis": analysis.ID,
		"source":   analysis.Source,
		"products": len(analysis.Results),
		"cached":   analysis.Cached,
	}).Info("document analyzed")

	return analysis, nil
}

// AnalyzeDocument extracts text from raw document content and scores it
func (s *AnalysisService) AnalyzeDocument(ctx context.Context, doc *domain.Document) (*domain.Analysis, error) {
	if doc == nil {
		return nil, domain.ErrInvalidRequest
	}

	text, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}

	return s.AnalyzeText(ctx, &domain.AnalysisRequest{Source: doc.Name, Text: text})
}

// AnalyzeFile extracts text from a local file and scores it
func (s *AnalysisService) AnalyzeFile(ctx context.Context, path string) (*domain.Analysis, error) {
	doc, text, err := s.extractor.ExtractFile(ctx, path)
	if err != nil {
		return nil, err
	}

	return s.AnalyzeText(ctx, &domain.AnalysisRequest{Source: doc.Name, Text: text})
}

// AnalyzeURL downloads a remote document and scores it
func (s *AnalysisService) AnalyzeURL(ctx context.Context, rawURL string) (*domain.Analysis, error) {
	if s.fetcher == nil || strings.TrimSpace(rawURL) == "" {
		return nil, domain.ErrInvalidRequest
	}

	doc, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	return s.AnalyzeDocument(ctx, doc)
}

// GetAnalysis returns one analysis from the history
func (s *AnalysisService) GetAnalysis(ctx context.Context, id string) (*domain.Analysis, error) {
	return s.analyses.Get(ctx, id)
}

// History returns the most recent analyses, newest first
func (s *AnalysisService) History(ctx context.Context, limit int) ([]domain.Analysis, error) {
	return s.analyses.List(ctx, limit)
}

// generateCacheKey derives a key from the normalized text and the catalog
// content so any catalog edit invalidates earlier results.
// Format: "analysis:{text hash}:{catalog hash}"
func generateCacheKey(normalizedText string, products []domain.Product) string {
	var catalog strings.Builder
	for _, p := range products {
		fmt.Fprintf(&catalog, "%s\x1f%s\x1f%s\x1f%s\x1f%s\x1e",
			p.ID, p.Name, p.Description, p.PositiveKeywords, p.NegativeKeywords)
	}
	return fmt.Sprintf("analysis:%s:%s", fingerprint(normalizedText), fingerprint(catalog.String()))
}

// fingerprint returns a hex BLAKE2b-128 digest of s
func fingerprint(s string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

// getFromCache retrieves match results from cache
func (s *AnalysisService) getFromCache(ctx context.Context, key string) ([]domain.MatchResult, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if results, ok := value.([]domain.MatchResult); ok {
		return results, nil
	}

	// Caches hand back decoded JSON; round-trip it into the typed form
	data, err := json.Marshal(value)
	if err != nil {
		return nil, domain.ErrCacheMiss
	}
	var results []domain.MatchResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return results, nil
}

// setInCache stores match results in cache
func (s *AnalysisService) setInCache(ctx context.Context, key string, results []domain.MatchResult) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, key, results, s.cacheTTL)
}
