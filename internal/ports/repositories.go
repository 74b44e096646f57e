package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskmaster/kanban/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}

// TaskRepository defines the interface for task data operations. Every
// method is scoped to one owner; records of other owners behave as missing.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	// Update writes only the fields set in patch and returns the stored row.
	Update(ctx context.Context, ownerID, id uuid.UUID, patch entities.TaskPatch) (*entities.Task, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	// BulkDelete removes all ids in one transaction or none of them.
	BulkDelete(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int, error)
	// ListByOwner returns the owner's tasks ordered by created_at descending.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entities.Task, error)
}

// AuthRepository defines the interface for refresh token storage
type AuthRepository interface {
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// RefreshToken represents a refresh token record
type RefreshToken struct {
	ID        int        `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash string     `json:"token_hash" db:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	RevokedAt *time.Time `json:"revoked_at" db:"revoked_at"`
}

// IsExpired checks if the refresh token is expired
func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// IsRevoked checks if the refresh token is revoked
func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

// IsValid checks if the refresh token is valid
func (rt *RefreshToken) IsValid() bool {
	return !rt.IsExpired() && !rt.IsRevoked()
}
