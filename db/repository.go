package db

import (
	"context"
	"database/sql"
	"errors"

	"catalogo/models"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repository defines a common interface for all repositories
type Repository interface {
	Close() error
}

// UserRepository defines the interface for user account operations.
// Accounts are never updated or deleted once created.
type UserRepository interface {
	Repository
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

// ProductFilter holds the optional search predicates. Supplied predicates
// compose conjunctively; a nil field imposes no constraint.
type ProductFilter struct {
	NameContains *string
	MinPrice     *float64
	MaxPrice     *float64
}

// ProductRepository defines the interface for catalog operations
type ProductRepository interface {
	Repository
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	FindAll(ctx context.Context, orderBy string) ([]*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	DeleteByID(ctx context.Context, id int64) error
	Search(ctx context.Context, filter ProductFilter) ([]*models.Product, error)
	Stats(ctx context.Context) (*models.CatalogStats, error)
}

// RepositoryFactory creates repositories backed by the SQLite store
type RepositoryFactory struct {
	SQLiteDB *sql.DB
	DBName   string
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(sqliteDB *sql.DB, dbName string) *RepositoryFactory {
	return &RepositoryFactory{
		SQLiteDB: sqliteDB,
		DBName:   dbName,
	}
}

// NewUserRepository creates a new user repository
func (f *RepositoryFactory) NewUserRepository() UserRepository {
	return NewSQLiteUserRepository(f.SQLiteDB)
}

// NewProductRepository creates a new product repository
func (f *RepositoryFactory) NewProductRepository() ProductRepository {
	return NewSQLiteProductRepository(f.SQLiteDB)
}
