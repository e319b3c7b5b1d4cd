package badger

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/doclens/backend/internal/domain"
)

// AnalysisRepository stores the analysis history in Badger
type AnalysisRepository struct {
	backend *Backend
}

var _ domain.AnalysisRepository = (*AnalysisRepository)(nil)

// NewAnalysisRepository creates an analysis repository on backend
func NewAnalysisRepository(backend *Backend) *AnalysisRepository {
	return &AnalysisRepository{backend: backend}
}

// Save stores an analysis and its time index entry atomically
func (r *AnalysisRepository) Save(ctx context.Context, analysis *domain.Analysis) error {
	if analysis.ID == "" {
		return domain.ErrInvalidRequest
	}
	data, err := json.Marshal(analysis)
	if err != nil {
		return err
	}

	return r.backend.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(makeAnalysisKey(analysis.ID), data); err != nil {
			return err
		}
		return txn.Set(makeAnalysisTimeKey(analysis.CreatedAt, analysis.ID), []byte(analysis.ID))
	})
}

// Get returns one analysis by id
func (r *AnalysisRepository) Get(ctx context.Context, id string) (*domain.Analysis, error) {
	var a *domain.Analysis
	err := r.backend.db.View(func(txn *badger.Txn) error {
		var err error
		a, err = readAnalysis(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// List returns up to limit analyses, newest first; limit <= 0 returns all
func (r *AnalysisRepository) List(ctx context.Context, limit int) ([]domain.Analysis, error) {
	analyses := []domain.Analysis{}

	err := r.backend.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(analysisTimePrefix)
		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			a, err := readAnalysis(txn, string(id))
			if err != nil {
				return err
			}
			analyses = append(analyses, *a)
			if limit > 0 && len(analyses) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return analyses, nil
}

func readAnalysis(txn *badger.Txn, id string) (*domain.Analysis, error) {
	item, err := txn.Get(makeAnalysisKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrAnalysisNotFound
	}
	if err != nil {
		return nil, err
	}
	var a domain.Analysis
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &a)
	}); err != nil {
		return nil, err
	}
	return &a, nil
}
