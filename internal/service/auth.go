package service

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/netplus/netplus-client-go/internal/api"
	"github.com/netplus/netplus-client-go/internal/domain"
)

// AuthService talks to the account endpoints. It performs no session state
// management itself; the session manager owns that and calls Me for profile
// hydration.
type AuthService struct {
	api    *api.Client
	logger *zap.Logger
}

func NewAuthService(apiClient *api.Client, logger *zap.Logger) *AuthService {
	return &AuthService{api: apiClient, logger: logger}
}

// LoginResult is the credential pair issued by the backend. The user is the
// profile the token proves.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	User        *domain.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := s.api.Do(ctx, "/api/auth/login", &api.RequestOptions{
		Method: http.MethodPost,
		Body:   loginRequest{Email: email, Password: password},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := s.api.Do(ctx, "/api/auth/signup", &api.RequestOptions{
		Method: http.MethodPost,
		Body:   signupRequest{Name: name, Email: email, Password: password},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Me fetches the profile for the currently stored token.
func (s *AuthService) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := s.api.Do(ctx, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
