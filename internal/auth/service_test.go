package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/babajiachar/storefront-api/internal/auth"
	"github.com/babajiachar/storefront-api/internal/db"
)

type stubUsers struct {
	users map[string]db.User
}

func (s stubUsers) GetUserByEmail(_ context.Context, email string) (db.User, error) {
	u, ok := s.users[email]
	if !ok {
		return db.User{}, db.ErrNotFound
	}
	return u, nil
}

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	hash, err := auth.HashPassword("achar-se-pyaar")
	require.NoError(t, err)
	svc, err := auth.NewService(auth.Config{
		Store: stubUsers{users: map[string]db.User{
			"admin@example.com": {ID: "usr-1", Email: "admin@example.com", PasswordHash: hash, Role: auth.RoleAdmin},
		}},
		Secret:         "test-signing-secret",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func TestLoginIssuesParsableToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "Admin@Example.com", "achar-se-pyaar")
	require.NoError(t, err)
	require.Equal(t, "usr-1", result.User.ID)
	require.Equal(t, auth.RoleAdmin, result.User.Role)
	require.NotEmpty(t, result.AccessToken)
	require.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, time.Minute)

	subject, role, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "usr-1", subject)
	require.Equal(t, auth.RoleAdmin, role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "admin@example.com", "wrong-password")
	require.Error(t, err)

	_, unknownErr := svc.Login(ctx, "nobody@example.com", "achar-se-pyaar")
	require.Error(t, unknownErr)
	// unknown account and wrong password are indistinguishable
	require.Equal(t, err.Error(), unknownErr.Error())

	_, err = svc.Login(ctx, "", "")
	require.Error(t, err)
}

func TestParseAccessTokenRejectsTampering(t *testing.T) {
	svc := newAuthService(t)
	result, err := svc.Login(context.Background(), "admin@example.com", "achar-se-pyaar")
	require.NoError(t, err)

	parts := strings.Split(result.AccessToken, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	sig[len(sig)/2] ^= 0x01
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, _, err = svc.ParseAccessToken(tampered)
	require.Error(t, err)

	_, _, err = svc.ParseAccessToken("not-a-token")
	require.Error(t, err)

	_, _, err = svc.ParseAccessToken("")
	require.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	svc := newAuthService(t)
	svc.WithNow(func() time.Time { return time.Now().Add(-25 * time.Hour) })
	result, err := svc.Login(context.Background(), "admin@example.com", "achar-se-pyaar")
	require.NoError(t, err)

	svc.WithNow(time.Now)
	_, _, err = svc.ParseAccessToken(result.AccessToken)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsForeignSecret(t *testing.T) {
	issuing := newAuthService(t)
	result, err := issuing.Login(context.Background(), "admin@example.com", "achar-se-pyaar")
	require.NoError(t, err)

	other, err := auth.NewService(auth.Config{
		Store:  stubUsers{users: map[string]db.User{}},
		Secret: "a-different-secret",
	})
	require.NoError(t, err)

	_, _, err = other.ParseAccessToken(result.AccessToken)
	require.Error(t, err)
}
