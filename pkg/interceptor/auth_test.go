package interceptor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"ledger/config"
	"ledger/internal/utils"
)

type fakeTokenStore struct {
	tokens map[int64]string
}

func (f *fakeTokenStore) SaveToken(ctx context.Context, userID int64, token string, ttl time.Duration) error {
	f.tokens[userID] = token
	return nil
}

func (f *fakeTokenStore) GetToken(ctx context.Context, userID int64) (string, error) {
	return f.tokens[userID], nil
}

func (f *fakeTokenStore) DeleteToken(ctx context.Context, userID int64) error {
	delete(f.tokens, userID)
	return nil
}

func setupAuth(t *testing.T) (*fakeTokenStore, *utils.TokenManager, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := &fakeTokenStore{tokens: map[int64]string{}}
	tm := utils.NewTokenManager(&config.Config{
		JWT: config.JWTConfig{AccessSecret: "test-secret", AccessTokenTTL: time.Minute},
	})

	r := gin.New()
	r.GET("/protected", NewAuthInterceptor(tokens, tm).Handler(), func(c *gin.Context) {
		id, ok := CallerID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return tokens, tm, r
}

func doRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_MissingHeader(t *testing.T) {
	_, _, r := setupAuth(t)
	w := doRequest(r, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_BadFormat(t *testing.T) {
	_, _, r := setupAuth(t)
	w := doRequest(r, "Token abc")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	_, _, r := setupAuth(t)
	w := doRequest(r, "Bearer not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_RevokedToken(t *testing.T) {
	tokens, tm, r := setupAuth(t)

	token, err := tm.Generate(7)
	require.NoError(t, err)

	// Never saved in the store: counts as revoked.
	w := doRequest(r, "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// A different token stored for the same user also fails the match.
	tokens.tokens[7] = "other-token"
	w = doRequest(r, "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidToken(t *testing.T) {
	tokens, tm, r := setupAuth(t)

	token, err := tm.Generate(7)
	require.NoError(t, err)
	tokens.tokens[7] = token

	w := doRequest(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"user_id":7`)
}
