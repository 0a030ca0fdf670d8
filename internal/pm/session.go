package pm

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"planhub.org/internal/auth"
)

// TokenPair is an access/refresh token pair with expirations.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Sessions implements registration, login and the refresh-token lifecycle.
// Each user holds at most one active refresh token: issuing a new pair or
// logging out invalidates every previously issued refresh token.
type Sessions struct {
	service *Service
	tokens  *auth.Tokens
}

// NewSessions constructs a session service over the resource service and
// the token issuer.
func NewSessions(service *Service, tokens *auth.Tokens) (*Sessions, error) {
	if service == nil {
		return nil, errors.New("pm: service is required")
	}
	if tokens == nil {
		return nil, errors.New("pm: token issuer is required")
	}
	return &Sessions{service: service, tokens: tokens}, nil
}

// Register creates the Admin user for an existing company and opens a
// session for it.
func (s *Sessions) Register(ctx context.Context, name, email, password, companyID string) (User, TokenPair, error) {
	user, err := s.service.RegisterAdmin(ctx, name, email, password, companyID)
	if err != nil {
		return User{}, TokenPair{}, err
	}
	pair, err := s.issue(ctx, &user)
	if err != nil {
		return User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Login verifies credentials and opens a session. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Sessions) Login(ctx context.Context, email, password string) (User, TokenPair, error) {
	email, err := normalizeEmail(email)
	if err != nil || password == "" {
		return User{}, TokenPair{}, auth.ErrUnauthorized
	}
	user, err := s.service.store.GetUserByEmail(ctx, email)
	if err != nil {
		return User{}, TokenPair{}, auth.ErrUnauthorized
	}
	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return User{}, TokenPair{}, auth.ErrUnauthorized
	}
	pair, err := s.issue(ctx, &user)
	if err != nil {
		return User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. Beyond signature
// and expiry, the presented token must exactly match the one stored on the
// user record; any previously issued refresh token is dead after this
// call. Two concurrent refreshes race on that single slot and the loser's
// pair is effectively logged out, which is accepted.
func (s *Sessions) Refresh(ctx context.Context, refreshToken string) (User, TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return User{}, TokenPair{}, auth.ErrInvalidToken
	}
	user, err := s.service.store.GetUser(ctx, claims.Subject)
	if err != nil {
		return User{}, TokenPair{}, auth.ErrInvalidToken
	}
	if user.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return User{}, TokenPair{}, auth.ErrInvalidToken
	}
	pair, err := s.issue(ctx, &user)
	if err != nil {
		return User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Logout clears the stored refresh token for the user.
func (s *Sessions) Logout(ctx context.Context, userID string) error {
	return s.service.store.SetRefreshToken(ctx, userID, "")
}

// ResolveAccess verifies an access token and resolves it to the current
// user record, so role or company changes take effect on the next request.
func (s *Sessions) ResolveAccess(ctx context.Context, token string) (Actor, error) {
	claims, err := s.tokens.VerifyAccess(token)
	if err != nil {
		return Actor{}, auth.ErrInvalidToken
	}
	user, err := s.service.store.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Actor{}, auth.ErrInvalidToken
		}
		return Actor{}, err
	}
	return Actor{ID: user.ID, Email: user.Email, Role: user.Role, CompanyID: user.CompanyID}, nil
}

func (s *Sessions) issue(ctx context.Context, user *User) (TokenPair, error) {
	access, accessExp, err := s.tokens.IssueAccess(user.ID, user.Email, string(user.Role), user.CompanyID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(user.ID, user.Email)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.service.store.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return TokenPair{}, err
	}
	user.RefreshToken = refresh
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}
