package catalog

import (
	"context"

	"catalogo/db"
	"catalogo/models"
)

// CatalogService owns the product lifecycle: CRUD, sort-order selection,
// predicate search and aggregate statistics. Mutations go through the
// DBManager so the store only ever sees a single writer.
type CatalogService struct {
	productRepo db.ProductRepository
	dbManager   *db.DBManager
}

func NewCatalogService(productRepo db.ProductRepository, dbManager *db.DBManager) *CatalogService {
	return &CatalogService{
		productRepo: productRepo,
		dbManager:   dbManager,
	}
}

// List returns all products ordered ascending by orderBy (id, name or
// price). Unrecognized order keys fall back to id without an error.
func (s *CatalogService) List(ctx context.Context, orderBy string) ([]*models.Product, error) {
	return s.productRepo.FindAll(ctx, orderBy)
}

// Create commits a new product as given and returns it with its assigned
// id. Field validation happens at the HTTP boundary, not here.
func (s *CatalogService) Create(ctx context.Context, name string, price float64, description *string) (*models.Product, error) {
	product := &models.Product{
		Name:        name,
		Price:       price,
		Description: description,
	}
	return s.dbManager.CreateProduct(s.productRepo, ctx, product)
}

// Get returns the product with the given id, or db.ErrNotFound.
func (s *CatalogService) Get(ctx context.Context, id int64) (*models.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// Update replaces all three mutable fields unconditionally. A concurrent
// delete wins: the commit reports db.ErrNotFound instead of resurrecting
// the row.
func (s *CatalogService) Update(ctx context.Context, id int64, name string, price float64, description *string) (*models.Product, error) {
	product := &models.Product{
		ID:          id,
		Name:        name,
		Price:       price,
		Description: description,
	}
	return s.dbManager.UpdateProduct(s.productRepo, ctx, product)
}

// Delete removes the product with the given id. Deleting a nonexistent id
// is a silent no-op.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	return s.dbManager.DeleteProduct(s.productRepo, ctx, id)
}

// Search runs the conjunction of the supplied predicates. An empty result
// is a normal outcome, not an error.
func (s *CatalogService) Search(ctx context.Context, filter db.ProductFilter) ([]*models.Product, error) {
	return s.productRepo.Search(ctx, filter)
}

// Stats returns the aggregate view over the whole catalog.
func (s *CatalogService) Stats(ctx context.Context) (*models.CatalogStats, error) {
	return s.productRepo.Stats(ctx)
}
