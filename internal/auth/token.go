package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer     = "planhub"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims carries the identity embedded in issued tokens. Access tokens
// include role and company, refresh tokens carry only the user identity.
type Claims struct {
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 token pairs. Access and refresh tokens
// are signed with separate secrets so one class never verifies as the other.
type Tokens struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// TokenOption configures Tokens.
type TokenOption func(*Tokens) error

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) TokenOption {
	return func(t *Tokens) error {
		if ttl > 0 {
			t.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) TokenOption {
	return func(t *Tokens) error {
		if ttl > 0 {
			t.refreshTTL = ttl
		}
		return nil
	}
}

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) TokenOption {
	return func(t *Tokens) error {
		issuer = strings.TrimSpace(issuer)
		if issuer != "" {
			t.issuer = issuer
		}
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(t *Tokens) error {
		if fn != nil {
			t.now = fn
		}
		return nil
	}
}

// NewTokens constructs a token issuer with the given secrets.
func NewTokens(accessSecret, refreshSecret string, opts ...TokenOption) (*Tokens, error) {
	accessSecret = strings.TrimSpace(accessSecret)
	refreshSecret = strings.TrimSpace(refreshSecret)
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("auth: both access and refresh secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	t := &Tokens{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     defaultAccessTTL,
		refreshTTL:    defaultRefreshTTL,
		issuer:        defaultIssuer,
		now:           time.Now,
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// IssueAccess signs a short-lived access token carrying role and company.
func (t *Tokens) IssueAccess(userID, email, role, companyID string) (string, time.Time, error) {
	return t.sign(Claims{
		Email:     email,
		Role:      role,
		CompanyID: companyID,
		TokenType: tokenTypeAccess,
	}, userID, t.accessTTL, t.accessSecret)
}

// IssueRefresh signs a longer-lived refresh token carrying identity only.
func (t *Tokens) IssueRefresh(userID, email string) (string, time.Time, error) {
	return t.sign(Claims{
		Email:     email,
		TokenType: tokenTypeRefresh,
	}, userID, t.refreshTTL, t.refreshSecret)
}

func (t *Tokens) sign(claims Claims, userID string, ttl time.Duration, secret []byte) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, errors.New("auth: userID is required")
	}
	now := t.now().UTC()
	exp := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// VerifyAccess validates an access token against the access secret.
func (t *Tokens) VerifyAccess(token string) (*Claims, error) {
	return t.verify(token, t.accessSecret, tokenTypeAccess)
}

// VerifyRefresh validates a refresh token against the refresh secret.
func (t *Tokens) VerifyRefresh(token string) (*Claims, error) {
	return t.verify(token, t.refreshSecret, tokenTypeRefresh)
}

func (t *Tokens) verify(token string, secret []byte, wantType string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithIssuer(t.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
