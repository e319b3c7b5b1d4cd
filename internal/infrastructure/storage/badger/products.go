package badger

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/doclens/backend/internal/domain"
)

// ProductRepository stores the catalog in Badger
type ProductRepository struct {
	backend *Backend
}

var _ domain.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a product repository on backend
func NewProductRepository(backend *Backend) *ProductRepository {
	return &ProductRepository{backend: backend}
}

// List returns every product ordered by name, case-insensitively
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product

	err := r.backend.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(productPrefix)
		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var p domain.Product
			if err := iter.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return err
			}
			products = append(products, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortProducts(products)
	return products, nil
}

// Get returns one product by id
func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.backend.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeProductKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrProductNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
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
	return r.put(product)
}

// Update replaces an existing product
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return r.backend.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(makeProductKey(product.ID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrProductNotFound
			}
			return err
		}
		data, err := json.Marshal(product)
		if err != nil {
			return err
		}
		return txn.Set(makeProductKey(product.ID), data)
	})
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return r.backend.db.Update(func(txn *badger.Txn) error {
		key := makeProductKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrProductNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

func (r *ProductRepository) put(product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return r.backend.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeProductKey(product.ID), data)
	})
}

// sortProducts orders by name, then id for equal names
func sortProducts(products []domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := strings.ToLower(products[i].Name), strings.ToLower(products[j].Name)
		if a != b {
			return a < b
		}
		return products[i].ID < products[j].ID
	})
}
