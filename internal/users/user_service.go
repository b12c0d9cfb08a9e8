package users

import (
	"context"
	"log"

	"catalogo/db"
	"catalogo/internal/auth"
	"catalogo/models"
)

// UserService owns account lookup and creation. Accounts are immutable
// once created and there is no delete path.
type UserService struct {
	userRepo  db.UserRepository
	dbManager *db.DBManager
}

func NewUserService(userRepo db.UserRepository, dbManager *db.DBManager) *UserService {
	return &UserService{
		userRepo:  userRepo,
		dbManager: dbManager,
	}
}

// FindByID resolves a session's user id to the full account record.
func (s *UserService) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// FindByUsername looks an account up by its unique username.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.FindByUsername(ctx, username)
}

// Authenticate verifies the plaintext password against the stored
// credential. It returns the account on success and nil otherwise,
// without revealing whether the username or the password was wrong.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, nil
	}
	return user, nil
}

// Create hashes the password and stores a new account. The plaintext never
// reaches the store; a duplicate username surfaces the store's constraint
// error.
func (s *UserService) Create(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
	}
	return s.dbManager.CreateUser(s.userRepo, ctx, user)
}

// EnsureAdmin provisions the default admin account when absent. Repeated
// startups are a no-op.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if err != db.ErrNotFound {
		return err
	}

	if _, err := s.Create(ctx, username, password); err != nil {
		return err
	}
	log.Printf("Default user %q created", username)
	return nil
}
