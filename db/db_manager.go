package db

import (
	"context"
	"log"

	"catalogo/models"
)

// Operation represents a database operation that needs to be executed
type Operation struct {
	Execute func() error
	Result  chan error
}

// OperationWithResult represents a database operation that returns a result
type OperationWithResult struct {
	Execute func() (interface{}, error)
	Result  chan OperationResult
}

// OperationResult contains the result of an operation
type OperationResult struct {
	Data  interface{}
	Error error
}

// DBManager serializes mutating access to the database so SQLite only ever
// sees a single writer. Reads go straight to the repositories.
type DBManager struct {
	opQueue       chan Operation
	resultOpQueue chan OperationWithResult
	stopping      chan struct{}
}

// NewDBManager creates a new database manager
func NewDBManager() *DBManager {
	m := &DBManager{
		opQueue:       make(chan Operation, 100),
		resultOpQueue: make(chan OperationWithResult, 100),
		stopping:      make(chan struct{}),
	}

	// Start the worker goroutine
	go m.worker()
	log.Println("Database access manager started")

	return m
}

// worker processes operations one at a time
func (m *DBManager) worker() {
	for {
		select {
		case op := <-m.opQueue:
			err := op.Execute()
			op.Result <- err
		case op := <-m.resultOpQueue:
			data, err := op.Execute()
			op.Result <- OperationResult{Data: data, Error: err}
		case <-m.stopping:
			return
		}
	}
}

// ExecuteOperation executes a database operation on the worker
func (m *DBManager) ExecuteOperation(execute func() error) error {
	resultChan := make(chan error, 1)
	m.opQueue <- Operation{
		Execute: execute,
		Result:  resultChan,
	}
	return <-resultChan
}

// ExecuteOperationWithResult executes a database operation that returns a result
func (m *DBManager) ExecuteOperationWithResult(execute func() (interface{}, error)) (interface{}, error) {
	resultChan := make(chan OperationResult, 1)
	m.resultOpQueue <- OperationWithResult{
		Execute: execute,
		Result:  resultChan,
	}
	result := <-resultChan
	return result.Data, result.Error
}

// Stop stops the database manager
func (m *DBManager) Stop() {
	close(m.stopping)
}

// Methods for specific repository operations

// CreateProduct serializes product creation
func (m *DBManager) CreateProduct(repo ProductRepository, ctx context.Context, product *models.Product) (*models.Product, error) {
	result, err := m.ExecuteOperationWithResult(func() (interface{}, error) {
		return repo.Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Product), nil
}

// UpdateProduct serializes product updates
func (m *DBManager) UpdateProduct(repo ProductRepository, ctx context.Context, product *models.Product) (*models.Product, error) {
	result, err := m.ExecuteOperationWithResult(func() (interface{}, error) {
		return repo.Update(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Product), nil
}

// DeleteProduct serializes product deletion
func (m *DBManager) DeleteProduct(repo ProductRepository, ctx context.Context, id int64) error {
	return m.ExecuteOperation(func() error {
		return repo.DeleteByID(ctx, id)
	})
}

// CreateUser serializes user creation
func (m *DBManager) CreateUser(repo UserRepository, ctx context.Context, user *models.User) (*models.User, error) {
	result, err := m.ExecuteOperationWithResult(func() (interface{}, error) {
		return repo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.User), nil
}
