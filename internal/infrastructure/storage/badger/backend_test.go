package badger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/doclens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_OnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	backend, err := OpenBackend(dir, false, nil)
	require.NoError(t, err)
	assert.False(t, backend.IsClosed())

	products := NewProductRepository(backend)
	require.NoError(t, products.Create(context.Background(), &domain.Product{ID: "p-1", Name: "Papel A4"}))
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	reopened, err := OpenBackend(dir, false, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := NewProductRepository(reopened).Get(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Papel A4", got.Name)
}

func TestProductRepository(t *testing.T) {
	products, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	require.NoError(t, products.Create(ctx, &domain.Product{ID: "b", Name: "grampeador"}))
	require.NoError(t, products.Create(ctx, &domain.Product{ID: "a", Name: "Papel A4", PositiveKeywords: "resistente"}))
	require.NoError(t, products.Create(ctx, &domain.Product{ID: "c", Name: "Caneta"}))

	t.Run("list is ordered by name", func(t *testing.T) {
		list, err := products.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"Caneta", "grampeador", "Papel A4"}, []string{list[0].Name, list[1].Name, list[2].Name})
	})

	t.Run("get", func(t *testing.T) {
		p, err := products.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "resistente", p.PositiveKeywords)

		_, err = products.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("create requires id", func(t *testing.T) {
		assert.ErrorIs(t, products.Create(ctx, &domain.Product{Name: "x"}), domain.ErrInvalidProduct)
	})

	t.Run("update", func(t *testing.T) {
		require.NoError(t, products.Update(ctx, &domain.Product{ID: "c", Name: "Caneta Azul"}))
		p, err := products.Get(ctx, "c")
		require.NoError(t, err)
		assert.Equal(t, "Caneta Azul", p.Name)

		assert.ErrorIs(t, products.Update(ctx, &domain.Product{ID: "zzz", Name: "x"}), domain.ErrProductNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, products.Delete(ctx, "b"))
		assert.ErrorIs(t, products.Delete(ctx, "b"), domain.ErrProductNotFound)
		list, err := products.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}

func TestAnalysisRepository(t *testing.T) {
	_, analyses, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, analyses.Save(ctx, &domain.Analysis{
			ID:        id,
			Source:    id + ".txt",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Results:   []domain.MatchResult{{ProductID: "p-1", Index: float64(i * 10)}},
		}))
	}

	t.Run("list newest first", func(t *testing.T) {
		list, err := analyses.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "third", list[0].ID)
		assert.Equal(t, "first", list[2].ID)
	})

	t.Run("list honours limit", func(t *testing.T) {
		list, err := analyses.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "second", list[1].ID)
	})

	t.Run("get round-trips results", func(t *testing.T) {
		a, err := analyses.Get(ctx, "second")
		require.NoError(t, err)
		assert.Equal(t, "second.txt", a.Source)
		require.Len(t, a.Results, 1)
		assert.Equal(t, 10.0, a.Results[0].Index)
		assert.True(t, a.CreatedAt.Equal(base.Add(time.Minute)))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := analyses.Get(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrAnalysisNotFound)
	})

	t.Run("save requires id", func(t *testing.T) {
		assert.ErrorIs(t, analyses.Save(ctx, &domain.Analysis{}), domain.ErrInvalidRequest)
	})
}
