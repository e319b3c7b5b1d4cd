package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/doclens/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockProductRepository is an in-memory domain.ProductRepository
type MockProductRepository struct {
	mu       sync.Mutex
	products map[string]domain.Product
	listErr  error
}

func NewMockProductRepository(products ...domain.Product) *MockProductRepository {
	m := &MockProductRepository{products: make(map[string]domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *MockProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = *product
	return nil
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	m.products[product.ID] = *product
	return nil
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

// MockAnalysisRepository is an in-memory domain.AnalysisRepository
type MockAnalysisRepository struct {
	mu       sync.Mutex
	analyses []domain.Analysis
	saveErr  error
}

func (m *MockAnalysisRepository) Save(ctx context.Context, analysis *domain.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.analyses = append(m.analyses, *analysis)
	return nil
}

func (m *MockAnalysisRepository) Get(ctx context.Context, id string) (*domain.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.analyses {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, domain.ErrAnalysisNotFound
}

func (m *MockAnalysisRepository) List(ctx context.Context, limit int) ([]domain.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Analysis, 0, len(m.analyses))
	for i := len(m.analyses) - 1; i >= 0; i-- {
		out = append(out, m.analyses[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// MockExtractor returns canned text for every document
type MockExtractor struct {
	text string
	err  error
}

func (m *MockExtractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func (m *MockExtractor) ExtractFile(ctx context.Context, path string) (*domain.Document, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return &domain.Document{Name: path}, m.text, nil
}

// MockFetcher returns a canned document
type MockFetcher struct {
	doc *domain.Document
	err error
}

func (m *MockFetcher) Fetch(ctx context.Context, rawURL string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.doc, nil
}
