package user

import "context"

// Usecase defines the interface for user business logic operations.
type Usecase interface {
	CreateUser(ctx context.Context, in CreateUserRequest) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}
