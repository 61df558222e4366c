package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hydrospark/hydrodash/internal/hydro"
)

// Backend exchanges user credentials for an access token.
type Backend interface {
	Login(ctx context.Context, email, password string) (hydro.LoginResult, error)
}

// Service hands the login off to the billing backend; the dashboard keeps no
// user records of its own.
type Service struct {
	backend Backend
}

// NewService constructs a new Service.
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// Authenticate validates email/password credentials against the backend and
// returns the credential to attach to later calls.
func (s *Service) Authenticate(ctx context.Context, email, password string) (hydro.Credential, error) {
	res, err := s.backend.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		var apiErr *hydro.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
			return hydro.Credential{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, hydro.Message(err, "rejected"))
		default:
			return hydro.Credential{}, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
		}
	}
	role := hydro.Role(strings.ToLower(string(res.User.Role)))
	if role == "" {
		role = hydro.RoleCustomer
	}
	return hydro.Credential{
		Token:  res.AccessToken,
		Role:   role,
		UserID: res.User.ID.String(),
		Email:  res.User.Email,
	}, nil
}
