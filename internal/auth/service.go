package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/babajiachar/storefront-api/internal/common"
	"github.com/babajiachar/storefront-api/internal/db"
)

const defaultAccessTTL = 12 * time.Hour

const (
	claimRole = "role"

	issuer   = "storefront-api"
	audience = "storefront-admin"
)

// UserStore looks up accounts for login.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (db.User, error)
}

// Service authenticates admin accounts and issues HS256 access tokens.
type Service struct {
	store     UserStore
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
}

// Config configures the auth service.
type Config struct {
	Store          UserStore
	Secret         string
	AccessTokenTTL time.Duration
	ClockSkew      time.Duration
}

// User is the safe subset of an account returned to clients.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResult bundles token material returned after a successful login.
type LoginResult struct {
	User        User      `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewService constructs a Service with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("auth: store is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	return &Service{
		store:     cfg.Store,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies credentials and issues an access token. Lookup and hash
// failures share one error so the response never reveals which field was
// wrong.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return LoginResult{}, invalidCredentials()
	}
	account, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, invalidCredentials()
	}
	ok, err := argon2id.ComparePasswordAndHash(password, account.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, invalidCredentials()
	}
	token, expiresAt, err := s.signAccessToken(account.ID, account.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	return LoginResult{
		User:        User{ID: account.ID, Email: account.Email, Role: account.Role},
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

// ParseAccessToken validates a token and returns the subject and role.
func (s *Service) ParseAccessToken(token string) (string, string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", "", common.NewAppError(common.CodeUnauthorized, "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized,
			fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	role := ""
	if v, ok := parsed.Get(claimRole); ok {
		role, _ = v.(string)
	}
	return parsed.Subject(), role, nil
}

// HashPassword produces an argon2id hash for account provisioning.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

func (s *Service) signAccessToken(userID, role string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(userID).
		Issuer(issuer).
		Audience([]string{audience}).
		IssuedAt(now).
		Expiration(expiresAt).
		Claim(claimRole, role).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	return signatures[0].ProtectedHeaders().Algorithm(), nil
}

func invalidCredentials() *common.AppError {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
}
