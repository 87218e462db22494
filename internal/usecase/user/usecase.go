package user

import (
	"context"
	"errors"

	"go.uber.org/zap"

	domain "user-pool-service/internal/domain/user"
	pkgerrors "user-pool-service/pkg/errors"
	"user-pool-service/pkg/logger"
)

// Repository defines the interface for user data access operations.
// Implementations must enforce a unique index on email and report its
// violation as domain.ErrDuplicateEmail.
type Repository interface {
	List(ctx context.Context) ([]domain.User, error)               // All users, id descending
	ExistsByEmail(ctx context.Context, email string) (bool, error) // Email lookup
	Create(ctx context.Context, u *domain.User) error              // Insert, sets u.ID
}

// usecase implements the business logic for user management operations.
type usecase struct {
	repo Repository  // Repository for data access
	log  *zap.Logger // Logger for structured logging
}

// New creates a new user Usecase backed by the given repository.
func New(r Repository, log *zap.Logger) Usecase {
	return &usecase{repo: r, log: log}
}

// CreateUser stores a new user after checking that its email is not taken.
//
// The existence check and the insert are not atomic. Two concurrent callers
// can both pass the check; the store's unique index then rejects the second
// insert and the caller gets the same DuplicateEmailError.
func (uc *usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Debug("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	exists, err := uc.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if exists {
		log.Warn("email already exists", zap.String("email", in.Email))
		return nil, domain.NewDuplicateEmailError(in.Email)
	}

	u := &domain.User{
		Name:  in.Name,
		Email: in.Email,
	}
	if err := uc.repo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			log.Warn("email claimed by concurrent create", zap.String("email", in.Email))
			return nil, domain.NewDuplicateEmailError(in.Email)
		}
		log.Error("failed to create user", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	return &User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}, nil
}

// ListUsers returns all users ordered by id descending. The result is never nil.
func (uc *usecase) ListUsers(ctx context.Context) ([]User, error) {
	domainUsers, err := uc.repo.List(ctx)
	if err != nil {
		logger.WithContext(ctx, uc.log).Error("failed to list users", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list users", err)
	}

	users := make([]User, len(domainUsers))
	for i, du := range domainUsers {
		users[i] = User{
			ID:    du.ID,
			Name:  du.Name,
			Email: du.Email,
		}
	}

	return users, nil
}
