package testutils

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"catalogo/db"
	"catalogo/internal/catalog"
	"catalogo/internal/users"
)

func SetupTestDatabase(t *testing.T) (*sql.DB, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	testDB, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_timeout=10000")
	require.NoError(t, err)

	err = db.InitializeSchema(testDB)
	require.NoError(t, err)

	cleanup := func() {
		testDB.Close()
	}

	return testDB, cleanup
}

func SetupTestRepositoryFactory(t *testing.T) (*db.RepositoryFactory, func()) {
	testDB, cleanup := SetupTestDatabase(t)
	factory := db.NewRepositoryFactory(testDB, "catalogo_test")
	return factory, cleanup
}

// SetupTestServices wires repositories, the write manager and both
// services against a throwaway database.
func SetupTestServices(t *testing.T) (*catalog.CatalogService, *users.UserService, func()) {
	factory, dbCleanup := SetupTestRepositoryFactory(t)
	dbManager := db.NewDBManager()

	catalogService := catalog.NewCatalogService(factory.NewProductRepository(), dbManager)
	userService := users.NewUserService(factory.NewUserRepository(), dbManager)

	cleanup := func() {
		dbManager.Stop()
		dbCleanup()
	}

	return catalogService, userService, cleanup
}
