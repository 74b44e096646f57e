package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

type tokenAuth struct {
	token  string
	userID uuid.UUID
}

func (a *tokenAuth) SignUp(context.Context, ports.SignUpRequest) (*ports.AuthResponse, error) {
	return nil, nil
}
func (a *tokenAuth) SignIn(context.Context, ports.SignInRequest) (*ports.AuthResponse, error) {
	return nil, nil
}
func (a *tokenAuth) SignOut(context.Context, uuid.UUID) error { return nil }
func (a *tokenAuth) Refresh(context.Context, string) (*ports.AuthResponse, error) {
	return nil, nil
}

func (a *tokenAuth) ValidateToken(token string) (*ports.Claims, error) {
	if token != a.token {
		return nil, entities.NewAuthError("validate token", entities.ErrInvalidToken)
	}
	return &ports.Claims{UserID: a.userID, Email: "ada@example.com"}, nil
}

func newTestServer() (*Server, *tokenAuth) {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}
	log := logger.NewNop()
	e.HTTPErrorHandler = customErrorHandler(log)
	auth := &tokenAuth{token: "good", userID: uuid.New()}
	s := &Server{echo: e, logger: log}

	whoami := func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("user").(uuid.UUID).String())
	}
	e.GET("/me", whoami, s.authMiddleware(auth))
	e.GET("/stream", whoami, queryToken, s.authMiddleware(auth))
	return s, auth
}

func TestAuthMiddleware(t *testing.T) {
	s, auth := newTestServer()

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"not bearer", "/me", "Token good", http.StatusUnauthorized},
		{"bad token", "/me", "Bearer bad", http.StatusUnauthorized},
		{"good token", "/me", "Bearer good", http.StatusOK},
		{"query token ignored off stream", "/me?token=good", "", http.StatusUnauthorized},
		{"query token on stream", "/stream?token=good", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			s.echo.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("code = %d body=%s", rec.Code, rec.Body.String())
			}
			if tt.want == http.StatusOK && rec.Body.String() != auth.userID.String() {
				t.Fatalf("user = %s", rec.Body.String())
			}
		})
	}
}

func TestCustomErrorHandlerShape(t *testing.T) {
	s, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	var body ports.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "Missing authorization header" {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestCustomErrorHandlerValidation(t *testing.T) {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = customErrorHandler(logger.NewNop())
	e.POST("/signin", func(c echo.Context) error {
		return c.Validate(&ports.SignInRequest{Email: "not-an-email"})
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signin", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
}
