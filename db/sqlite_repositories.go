package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"catalogo/models"
)

// SQLiteUserRepository implements the UserRepository interface for SQLite
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a new SQLiteUserRepository
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// Close closes the database connection
func (r *SQLiteUserRepository) Close() error {
	return r.db.Close()
}

// FindByID finds a user by ID
func (r *SQLiteUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, username, password_hash FROM users WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}

	return &user, nil
}

// FindByUsername finds a user by username
func (r *SQLiteUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, password_hash FROM users WHERE username = ?`
	row := r.db.QueryRowContext(ctx, query, username)

	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}

	return &user, nil
}

// Create inserts a new user and returns it with the store-assigned ID.
// A duplicate username surfaces the store's UNIQUE constraint error.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `INSERT INTO users (username, password_hash) VALUES (?, ?)`
	result, err := r.db.ExecContext(ctx, query, user.Username, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("error getting user id: %w", err)
	}
	user.ID = id

	return user, nil
}

// SQLiteProductRepository implements the ProductRepository interface for SQLite
type SQLiteProductRepository struct {
	db *sql.DB
}

// NewSQLiteProductRepository creates a new SQLiteProductRepository
func NewSQLiteProductRepository(db *sql.DB) *SQLiteProductRepository {
	return &SQLiteProductRepository{db: db}
}

// Close closes the database connection
func (r *SQLiteProductRepository) Close() error {
	return r.db.Close()
}

// orderColumns whitelists the sortable columns. Anything not listed falls
// back to id, silently.
var orderColumns = map[string]string{
	"id":    "id",
	"name":  "name",
	"price": "price",
}

// FindByID finds a product by ID
func (r *SQLiteProductRepository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT id, name, price, description FROM products WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	product, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning product: %w", err)
	}

	return product, nil
}

// FindAll returns every product ordered ascending by the requested column,
// ties broken by insertion order (id).
func (r *SQLiteProductRepository) FindAll(ctx context.Context, orderBy string) ([]*models.Product, error) {
	column, ok := orderColumns[orderBy]
	if !ok {
		column = "id"
	}

	query := fmt.Sprintf(`SELECT id, name, price, description FROM products ORDER BY %s ASC, id ASC`, column)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// Create inserts a new product and returns it with the store-assigned ID
func (r *SQLiteProductRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	query := `INSERT INTO products (name, price, description) VALUES (?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, product.Name, product.Price, nullableString(product.Description))
	if err != nil {
		return nil, fmt.Errorf("error creating product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("error getting product id: %w", err)
	}
	product.ID = id

	return product, nil
}

// Update replaces all mutable fields unconditionally (last write wins).
// Updating a row that was deleted meanwhile reports ErrNotFound at commit
// rather than resurrecting it.
func (r *SQLiteProductRepository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	query := `UPDATE products SET name = ?, price = ?, description = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, product.Name, product.Price, nullableString(product.Description), product.ID)
	if err != nil {
		return nil, fmt.Errorf("error updating product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("error checking updated rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return product, nil
}

// DeleteByID deletes a product; deleting a nonexistent id is a no-op
func (r *SQLiteProductRepository) DeleteByID(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error deleting product: %w", err)
	}
	return nil
}

// Search builds a single query plan from the optional predicates. Each
// supplied predicate narrows the result; the name match is case-sensitive
// containment.
func (r *SQLiteProductRepository) Search(ctx context.Context, filter ProductFilter) ([]*models.Product, error) {
	var conditions []string
	var args []interface{}

	if filter.NameContains != nil {
		conditions = append(conditions, "instr(name, ?) > 0")
		args = append(args, *filter.NameContains)
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, "price >= ?")
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, "price <= ?")
		args = append(args, *filter.MaxPrice)
	}

	query := `SELECT id, name, price, description FROM products`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error searching products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// Stats computes the aggregate view over the catalog. Extreme-price ties
// are broken by lowest id so the result is deterministic.
func (r *SQLiteProductRepository) Stats(ctx context.Context) (*models.CatalogStats, error) {
	stats := &models.CatalogStats{}

	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(AVG(price), 0) FROM products`)
	if err := row.Scan(&stats.Count, &stats.AveragePrice); err != nil {
		return nil, fmt.Errorf("error scanning product aggregates: %w", err)
	}

	if stats.Count == 0 {
		// Empty catalog: average undefined, no extremal records
		return stats, nil
	}

	mostExpensive, err := r.firstBy(ctx, "price DESC, id ASC")
	if err != nil {
		return nil, err
	}
	stats.MostExpensive = mostExpensive

	cheapest, err := r.firstBy(ctx, "price ASC, id ASC")
	if err != nil {
		return nil, err
	}
	stats.Cheapest = cheapest

	return stats, nil
}

func (r *SQLiteProductRepository) firstBy(ctx context.Context, order string) (*models.Product, error) {
	query := fmt.Sprintf(`SELECT id, name, price, description FROM products ORDER BY %s LIMIT 1`, order)
	row := r.db.QueryRowContext(ctx, query)

	product, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning product: %w", err)
	}
	return product, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var product models.Product
	var description sql.NullString

	if err := row.Scan(&product.ID, &product.Name, &product.Price, &description); err != nil {
		return nil, err
	}
	if description.Valid {
		product.Description = &description.String
	}

	return &product, nil
}

func collectProducts(rows *sql.Rows) ([]*models.Product, error) {
	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
