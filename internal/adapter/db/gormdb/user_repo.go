package gormdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-pool-service/internal/domain/user"
)

// UserRepo implements the user Repository interface using GORM.
// It works with every driver the service supports (postgres, mysql, sqlite).
type UserRepo struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepo creates a new instance of UserRepo.
func NewUserRepo(db *gorm.DB, log *zap.Logger) *UserRepo {
	return &UserRepo{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID    int64  `gorm:"primaryKey;autoIncrement"`                      // Unique identifier with auto-increment
	Name  string `gorm:"size:255;not null"`                             // User's full name
	Email string `gorm:"size:255;not null;uniqueIndex:idx_users_email"` // Unique email, backstop for concurrent creates
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// Migrate creates the users table and its unique email index if they are missing.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

// List returns every user ordered by id descending.
func (r *UserRepo) List(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = user.User{
			ID:    model.ID,
			Name:  model.Name,
			Email: model.Email,
		}
	}

	return users, nil
}

// ExistsByEmail reports whether a user with the given email is stored.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&UserSchema{}).Where("email = ?", email).Count(&count).Error; err != nil {
		r.log.Error("failed to check email in db", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new user and sets its assigned ID.
// A unique index violation on email is reported as user.ErrDuplicateEmail.
func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}

	model := UserSchema{
		Name:  u.Name,
		Email: u.Email,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			r.log.Warn("unique constraint rejected user", zap.String("email", u.Email))
			return fmt.Errorf("failed to create user: %w", user.ErrDuplicateEmail)
		}
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = model.ID
	r.log.Info("user created in db", zap.Int64("id", model.ID))
	return nil
}

// isUniqueViolation detects unique index errors. Drivers opened with
// TranslateError report gorm.ErrDuplicatedKey; the message checks cover
// connections opened without it.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate key value") || // postgres
		strings.Contains(msg, "duplicate entry") // mysql
}
