package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/config"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Epoch  uint64 `json:"sep,omitempty"`
	jwt.RegisteredClaims
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo  ports.UserRepository
	authRepo  ports.AuthRepository
	sessions  *SessionBroker
	jwtConfig config.JWTConfig
	logger    *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo ports.UserRepository, authRepo ports.AuthRepository, sessions *SessionBroker, jwtConfig config.JWTConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		authRepo:  authRepo,
		sessions:  sessions,
		jwtConfig: jwtConfig,
		logger:    logger.WithComponent("auth"),
	}
}

// ValidateSignUp checks the password rules of a sign up form.
func ValidateSignUp(req ports.SignUpRequest) error {
	if req.Password != req.ConfirmPassword {
		return entities.ErrPasswordMismatch
	}
	if len(req.Password) < entities.MinPasswordLength {
		return entities.ErrPasswordTooShort
	}
	return nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// SignUp creates a new account and opens a session for it
func (s *AuthService) SignUp(ctx context.Context, req ports.SignUpRequest) (*ports.AuthResponse, error) {
	if err := ValidateSignUp(req); err != nil {
		return nil, entities.NewAuthError("sign up", err)
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hashed,
		DisplayName:  strings.TrimSpace(req.DisplayName),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, entities.ErrEmailTaken) {
			return nil, entities.NewAuthError("sign up", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infow("User signed up", "user_id", user.ID, "email", user.Email)

	return s.openSession(ctx, user)
}

// SignIn authenticates a user and returns tokens
func (s *AuthService) SignIn(ctx context.Context, req ports.SignInRequest) (*ports.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			s.logger.Warnw("Sign in with unknown email", "email", req.Email)
			return nil, entities.NewAuthError("sign in", entities.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warnw("Sign in with invalid password", "user_id", user.ID)
		return nil, entities.NewAuthError("sign in", entities.ErrInvalidCredentials)
	}

	s.logger.Infow("User signed in", "user_id", user.ID)

	return s.openSession(ctx, user)
}

// Refresh rotates a refresh token and issues a new access token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.AuthResponse, error) {
	tokenHash := hashToken(refreshToken)

	stored, err := s.authRepo.GetRefreshToken(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, entities.ErrInvalidToken) {
			return nil, entities.NewAuthError("refresh", err)
		}
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	if !stored.IsValid() {
		return nil, entities.NewAuthError("refresh", entities.ErrInvalidToken)
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, entities.NewAuthError("refresh", err)
	}

	if err := s.authRepo.RevokeRefreshToken(ctx, tokenHash); err != nil {
		s.logger.Warnw("Failed to revoke old refresh token", "error", err, "user_id", user.ID)
	}

	return s.issueTokens(ctx, user)
}

// SignOut revokes the user's refresh tokens and ends their live streams
func (s *AuthService) SignOut(ctx context.Context, userID uuid.UUID) error {
	if err := s.authRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}

	s.sessions.Publish(SessionEvent{UserID: userID, Active: false})
	s.logger.Infow("User signed out", "user_id", userID)
	return nil
}

// ValidateToken validates a JWT token and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	}, jwt.WithIssuer(s.jwtConfig.Issuer))
	if err != nil {
		return nil, entities.NewAuthError("validate token", fmt.Errorf("%w: %v", entities.ErrInvalidToken, err))
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, entities.NewAuthError("validate token", entities.ErrInvalidToken)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, entities.NewAuthError("validate token", entities.ErrInvalidToken)
	}

	// Tokens issued before the user's last sign out stay dead until expiry.
	if claims.Epoch < s.sessions.Epoch(userID) {
		return nil, entities.NewAuthError("validate token", fmt.Errorf("%w: session ended", entities.ErrInvalidToken))
	}

	return &ports.Claims{UserID: userID, Email: claims.Email}, nil
}

func (s *AuthService) openSession(ctx context.Context, user *entities.User) (*ports.AuthResponse, error) {
	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	s.sessions.Publish(SessionEvent{UserID: user.ID, Active: true})
	return resp, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *entities.User) (*ports.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.generateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	user.PasswordHash = ""

	return &ports.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtConfig.ExpiresIn.Seconds()),
		User:         user,
	}, nil
}

func (s *AuthService) generateAccessToken(user *entities.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Epoch:  s.sessions.Epoch(user.ID),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.ExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.jwtConfig.Issuer,
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *AuthService) generateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	token := hex.EncodeToString(tokenBytes)

	expiresAt := time.Now().Add(s.jwtConfig.RefreshExpiresIn)
	if err := s.authRepo.CreateRefreshToken(ctx, userID, hashToken(token), expiresAt); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return token, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

var _ ports.AuthService = (*AuthService)(nil)
