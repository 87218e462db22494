package user

// CreateUserRequest represents the request payload for creating a new user.
// Only email uniqueness is enforced.
type CreateUserRequest struct {
	Name  string
	Email string
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID    int64
	Name  string
	Email string
}
