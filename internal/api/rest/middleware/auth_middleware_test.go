package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduline/billing-service/internal/domain"
	"github.com/eduline/billing-service/pkg/logger"
)

var testSecret = []byte("test-jwt-secret")

func signToken(t *testing.T, claims TokenClaims, secret []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func validClaims() TokenClaims {
	return TokenClaims{
		UserEmail: "parent@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func authRouter() (*gin.Engine, *domain.AuthenticatedUser) {
	gin.SetMode(gin.TestMode)

	var captured domain.AuthenticatedUser
	m := NewJWTMiddleware(&DefaultTokenValidator{Secret: testSecret}, logger.New(logger.ERROR))

	r := gin.New()
	r.GET("/protected", m.RequireAuth(), func(c *gin.Context) {
		user, _ := UserFromContext(c)
		captured = user
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r, &captured
}

func TestAuthValidToken(t *testing.T) {
	r, captured := authRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(), testSecret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user_1", captured.ID)
	assert.Equal(t, "parent@example.com", captured.Email)
}

func TestAuthMissingHeader(t *testing.T) {
	r, _ := authRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthWrongSecret(t *testing.T) {
	r, _ := authRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(), []byte("other-secret")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthExpiredToken(t *testing.T) {
	r, _ := authRouter()

	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims, testSecret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthTokenWithoutSubject(t *testing.T) {
	r, _ := authRouter()

	claims := validClaims()
	claims.Subject = ""

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims, testSecret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
