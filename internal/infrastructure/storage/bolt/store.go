// Package bolt keeps the catalog and analysis history in a single bbolt file.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/doclens/backend/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketProducts      = []byte("products")
	bucketAnalyses      = []byte("analyses")
	bucketAnalysesByAge = []byte("analyses_by_time")
)

// Store is a bbolt-backed domain.ProductRepository and domain.AnalysisRepository
type Store struct {
	db *bolt.DB
}

var (
	_ domain.ProductRepository  = (*ProductRepository)(nil)
	_ domain.AnalysisRepository = (*AnalysisRepository)(nil)
)

// NewStore opens or creates the database file at path
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketProducts, bucketAnalyses, bucketAnalysesByAge} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database file
func (s *Store) Close() error {
	return s.db.Close()
}

// Products returns the catalog view of the store
func (s *Store) Products() *ProductRepository {
	return &ProductRepository{db: s.db}
}

// Analyses returns the history view of the store
func (s *Store) Analyses() *AnalysisRepository {
	return &AnalysisRepository{db: s.db}
}

// ProductRepository stores products in the "products" bucket keyed by id
type ProductRepository struct {
	db *bolt.DB
}

// List returns every product ordered by name
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProducts).ForEach(func(_, v []byte) error {
			var p domain.Product
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			products = append(products, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(products, func(i, j int) bool {
		a, b := strings.ToLower(products[i].Name), strings.ToLower(products[j].Name)
		if a != b {
			return a < b
		}
		return products[i].ID < products[j].ID
	})
	return products, nil
}

// Get returns one product by id
func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketProducts).Get([]byte(id))
		if v == nil {
			return domain.ErrProductNotFound
		}
		return json.Unmarshal(v, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create stores a new product
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if product.ID == "" {
		return domain.ErrInvalidProduct
	}
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProducts).Put([]byte(product.ID), data)
	})
}

// Update replaces an existing product
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProducts)
		if b.Get([]byte(product.ID)) == nil {
			return domain.ErrProductNotFound
		}
		return b.Put([]byte(product.ID), data)
	})
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProducts)
		if b.Get([]byte(id)) == nil {
			return domain.ErrProductNotFound
		}
		return b.Delete([]byte(id))
	})
}

// AnalysisRepository stores analyses by id plus an inverted-time index
type AnalysisRepository struct {
	db *bolt.DB
}

// ageKey sorts newest first under a forward cursor
func ageKey(createdAt time.Time, id string) []byte {
	buf := make([]byte, 8+len(id))
	binary.BigEndian.PutUint64(buf, math.MaxUint64-uint64(createdAt.UnixNano()))
	copy(buf[8:], id)
	return buf
}

// Save stores an analysis and its index entry in one transaction
func (r *AnalysisRepository) Save(ctx context.Context, analysis *domain.Analysis) error {
	if analysis.ID == "" {
		return domain.ErrInvalidRequest
	}
	data, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketAnalyses).Put([]byte(analysis.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketAnalysesByAge).Put(ageKey(analysis.CreatedAt, analysis.ID), []byte(analysis.ID))
	})
}

// Get returns one analysis by id
func (r *AnalysisRepository) Get(ctx context.Context, id string) (*domain.Analysis, error) {
	var a domain.Analysis
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketAnalyses).Get([]byte(id))
		if v == nil {
			return domain.ErrAnalysisNotFound
		}
		return json.Unmarshal(v, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns up to limit analyses, newest first; limit <= 0 returns all
func (r *AnalysisRepository) List(ctx context.Context, limit int) ([]domain.Analysis, error) {
	analyses := []domain.Analysis{}
	err := r.db.View(func(tx *bolt.Tx) error {
		byID := tx.Bucket(bucketAnalyses)
		c := tx.Bucket(bucketAnalysesByAge).Cursor()
		for k, id := c.First(); k != nil; k, id = c.Next() {
			v := byID.Get(id)
			if v == nil {
				continue
			}
			var a domain.Analysis
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			analyses = append(analyses, a)
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
