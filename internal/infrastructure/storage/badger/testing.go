package badger

// NewMemoryRepositories opens an in-memory backend with product and
// analysis repositories on it, for tests. Caller must close the backend.
func NewMemoryRepositories() (*ProductRepository, *AnalysisRepository, *Backend, error) {
	backend, err := OpenBackend("", true, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return NewProductRepository(backend), NewAnalysisRepository(backend), backend, nil
}
