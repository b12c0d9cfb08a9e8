package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogo/db"
	"catalogo/tests/testutils"
)

func ptr[T any](v T) *T { return &v }

func TestListOrdering(t *testing.T) {
	svc, _, cleanup := testutils.SetupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	testutils.CreateTestProduct(t, svc, "Charlie", 30, "")
	testutils.CreateTestProduct(t, svc, "Alpha", 20, "")
	testutils.CreateTestProduct(t, svc, "Bravo", 10, "")

	tests := []struct {
		orderBy string
		names   []string
	}{
		{"id", []string{"Charlie", "Alpha", "Bravo"}},
		{"name", []string{"Alpha", "Bravo", "Charlie"}},
		{"price", []string{"Bravo", "Alpha", "Charlie"}},
		// Unrecognized keys fall back to id, silently
		{"bogus", []string{"Charlie", "Alpha", "Bravo"}},
		{"", []string{"Charlie", "Alpha", "Bravo"}},
	}

	for _, tc := range tests {
		products, err := svc.List(ctx, tc.orderBy)
		require.NoError(t, err, "order_by=%s", tc.orderBy)
		var names []string
		for _, p := range products {
			names = append(names, p.Name)
		}
		assert.Equal(t, tc.names, names, "order_by=%s", tc.orderBy)
	}
}

func TestListPriceOrderTiesBreakByInsertion(t *testing.T) {
	svc, _, cleanup := testutils.SetupTestServices(t)
	defer cleanup()

	first := testutils.CreateTestProduct(t, svc, "First", 10, "")
	second := testutils.CreateTestProduct(t, svc, "Second", 10, "")

	products, err := svc.List(context.Background(), "price")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, first.ID, products[0].ID)
	assert.Equal(t, second.ID, products[1].ID)
}

func TestListEmptyCatalog(t *testing.T) {
	svc, _, cleanup := testutils.SetupTestServices(t)
	defer cleanup()

	products, err := svc.List(context.Background(), "price")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestSearchComposesPredicates(t *testing.T) {
	svc, _, cleanup := testutils.SetupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	testutils.CreateTestProduct(t, svc, "Widget small", 5, "")
	testutils.CreateTestProduct(t, svc, "Widget medium", 15, "")
	testutils.CreateTestProduct(t, svc, "Widget large", 25, "")
	testutils.CreateTestProduct(t, svc, "Gadget", 15, "")

	// Range alone: exactly the subset with 10 <= price <= 20
	results, err := svc.Search(ctx, db.ProductFilter{MinPrice: ptr(10.0), MaxPrice: ptr(20.0)})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Widget medium", results[0].Name)
	assert.Equal(t, "Gadget", results[1].Name)

	// Combined with a substring: the intersection of both subsets
	results, err = svc.Search(ctx, db.ProductFilter{
		NameContains: ptr("Widget"),
		MinPrice:     ptr(10.0),
		MaxPrice:     ptr(20.0),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Widget medium", results[0].Name)

	// No predicates: no constraint
	results, err = svc.Search(ctx, db.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestSearchSubstringIsCaseSensitive(t *testing.T) {
	svc, _, cleanup := testutils.SetupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	testutils.CreateTestProduct(t, svc, "Widget", 5, "")

	results, err := svc.Search(ctx, db.ProductFilter{NameContains: ptr("widget")})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = svc.Search(ctx, db.ProductFilter{NameContains: ptr("idge")})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	svc, _, cleanup := testutils.SetupTestServices(t)
	defer cleanup()

	results, err := svc.Search(context.Background(), db.ProductFilter{NameContains: ptr("nothing")})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, _, cleanup := testutils.SetupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	keep := testutils.CreateTestProduct(t, svc, "Keeper", 10, "")

	// Deleting a nonexistent id twice: no error either time, catalog
	// unchanged
	require.NoError(t, svc.Delete(ctx, 9999))
	require.NoError(t, svc.Delete(ctx, 9999))

	products, err := svc.List(ctx, "id")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, keep.ID, products[0].ID)
}

func TestUpdateAfterDeleteReportsNotFound(t *testing.T) {
	svc, _, cleanup := testutils.SetupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	product := testutils.CreateTestProduct(t, svc, "Doomed", 10, "")
	require.NoError(t, svc.Delete(ctx, product.ID))

	// A stale edit against the deleted row must not resurrect it
	_, err := svc.Update(ctx, product.ID, "Resurrected", 20, nil)
	assert.ErrorIs(t, err, db.ErrNotFound)

	products, err := svc.List(ctx, "id")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestStats(t *testing.T) {
	svc, _, cleanup := testutils.SetupTestServices(t)
	defer cleanup()

	testutils.CreateTestProduct(t, svc, "Low", 100, "")
	testutils.CreateTestProduct(t, svc, "Mid", 200, "")
	testutils.CreateTestProduct(t, svc, "High", 300, "")

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 200.0, stats.AveragePrice, 1e-9)
	require.NotNil(t, stats.MostExpensive)
	require.NotNil(t, stats.Cheapest)
	assert.Equal(t, "High", stats.MostExpensive.Name)
	assert.InDelta(t, 300.0, stats.MostExpensive.Price, 1e-9)
	assert.Equal(t, "Low", stats.Cheapest.Name)
	assert.InDelta(t, 100.0, stats.Cheapest.Price, 1e-9)
}

func TestStatsEmptyCatalog(t *testing.T) {
	svc, _, cleanup := testutils.SetupTestServices(t)
	defer cleanup()

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Count)
	assert.Zero(t, stats.AveragePrice)
	assert.Nil(t, stats.MostExpensive)
	assert.Nil(t, stats.Cheapest)
}

func TestStatsTiesBreakByLowestID(t *testing.T) {
	svc, _, cleanup := testutils.SetupTestServices(t)
	defer cleanup()

	first := testutils.CreateTestProduct(t, svc, "First extreme", 50, "")
	testutils.CreateTestProduct(t, svc, "Second extreme", 50, "")

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stats.MostExpensive)
	require.NotNil(t, stats.Cheapest)
	assert.Equal(t, first.ID, stats.MostExpensive.ID)
	assert.Equal(t, first.ID, stats.Cheapest.ID)
}

func TestProductLifecycle(t *testing.T) {
	svc, _, cleanup := testutils.SetupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	created, err := svc.Create(ctx, "Widget", 9.99, ptr("x"))
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(0))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
	assert.InDelta(t, 9.99, got.Price, 1e-9)
	require.NotNil(t, got.Description)
	assert.Equal(t, "x", *got.Description)

	_, err = svc.Update(ctx, created.ID, "Widget2", 19.99, nil)
	require.NoError(t, err)

	got, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Widget2", got.Name)
	assert.InDelta(t, 19.99, got.Price, 1e-9)
	assert.Nil(t, got.Description)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
