package testutils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"catalogo/internal/catalog"
	"catalogo/models"
)

// CreateTestProduct commits a product through the service layer
func CreateTestProduct(t *testing.T, svc *catalog.CatalogService, name string, price float64, description string) *models.Product {
	t.Helper()

	var desc *string
	if description != "" {
		desc = &description
	}

	product, err := svc.Create(context.Background(), name, price, desc)
	require.NoError(t, err)
	return product
}
