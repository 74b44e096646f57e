package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskmaster/kanban/internal/domain/board"
	"github.com/taskmaster/kanban/internal/domain/entities"
)

// AuthService interface for authentication operations
type AuthService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error)
	SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error)
	SignOut(ctx context.Context, userID uuid.UUID) error
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// TaskService interface for task writes and board reads
type TaskService interface {
	CreateTask(ctx context.Context, ownerID uuid.UUID, req CreateTaskRequest) (*entities.Task, error)
	UpdateTask(ctx context.Context, ownerID, id uuid.UUID, req UpdateTaskRequest) (*entities.Task, error)
	DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error
	BulkDelete(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int, error)
	SetStatus(ctx context.Context, ownerID, id uuid.UUID, status entities.TaskStatus) error
	ListTasks(ctx context.Context, ownerID uuid.UUID, filter board.Filter) ([]entities.Task, error)
	Statistics(ctx context.Context, ownerID uuid.UUID) (board.Statistics, error)
}

// Auth related types
type SignUpRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	DisplayName     string `json:"display_name" validate:"omitempty,max=100"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *entities.User `json:"user"`
}

type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// Task related types
type CreateTaskRequest struct {
	Title       string              `json:"title" validate:"required,max=500"`
	Description string              `json:"description" validate:"omitempty,max=2000"`
	Priority    entities.Priority   `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      entities.TaskStatus `json:"status" validate:"omitempty,oneof=todo inprogress done"`
	Deadline    *entities.Date      `json:"deadline"`
}

type UpdateTaskRequest struct {
	Title         *string              `json:"title" validate:"omitempty,max=500"`
	Description   *string              `json:"description" validate:"omitempty,max=2000"`
	Priority      *entities.Priority   `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status        *entities.TaskStatus `json:"status" validate:"omitempty,oneof=todo inprogress done"`
	Deadline      *entities.Date       `json:"deadline"`
	ClearDeadline bool                 `json:"clear_deadline"`
}

type SetStatusRequest struct {
	Status entities.TaskStatus `json:"status" validate:"required,oneof=todo inprogress done"`
}

type BulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type BulkDeleteResponse struct {
	Success      bool `json:"success"`
	DeletedCount int  `json:"deleted_count"`
}

type MoveResponse struct {
	Moved bool `json:"moved"`
}

// BoardSnapshot is one push of the live feed.
type BoardSnapshot struct {
	Tasks      []entities.Task  `json:"tasks"`
	Statistics board.Statistics `json:"statistics"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
