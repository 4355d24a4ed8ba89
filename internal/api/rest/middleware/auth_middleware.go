package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/eduline/billing-service/internal/domain"
	"github.com/eduline/billing-service/pkg/logger"
	"github.com/eduline/billing-service/pkg/res"
)

// ContextKey тип для ключей контекста во избежание коллизий
type ContextKey string

const (
	// ContextUserKey ключ для хранения аутентифицированного пользователя в контексте
	ContextUserKey   ContextKey = "authUser"
	authHeaderPrefix            = "Bearer "
)

// TokenClaims клеймы токена доступа
type TokenClaims struct {
	UserEmail string `json:"email"`
	jwt.RegisteredClaims
}

// TokenValidator проверяет токен и возвращает его клеймы
type TokenValidator interface {
	Validate(tokenString string) (*TokenClaims, error)
}

// JWTMiddleware middleware аутентификации по JWT
type JWTMiddleware struct {
	log       *logger.Logger
	validator TokenValidator
}

// NewJWTMiddleware создает middleware аутентификации
func NewJWTMiddleware(validator TokenValidator, log *logger.Logger) *JWTMiddleware {
	return &JWTMiddleware{
		log:       log,
		validator: validator,
	}
}

// RequireAuth проверяет токен и кладет пользователя в контекст запроса
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.handleAuthError(c, "Missing authorization token")
			return
		}
		if !strings.HasPrefix(authHeader, authHeaderPrefix) {
			m.handleAuthError(c, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, authHeaderPrefix)
		claims, err := m.validator.Validate(tokenString)
		if err != nil {
			m.handleAuthError(c, fmt.Sprintf("Token validation failed: %v", err))
			return
		}

		if claims.Subject == "" {
			m.handleAuthError(c, "User ID (sub) missing in token")
			return
		}
		if claims.UserEmail == "" {
			m.handleAuthError(c, "Email missing in token")
			return
		}

		c.Set(string(ContextUserKey), domain.AuthenticatedUser{
			ID:    claims.Subject,
			Email: claims.UserEmail,
		})
		m.log.Debug("User %s authenticated", claims.Subject)
		c.Next()
	}
}

func (m *JWTMiddleware) handleAuthError(c *gin.Context, message string) {
	m.log.Warn("Authentication failed for %s: %s", c.Request.URL.Path, message)
	res.JsonResponse(c.Writer, res.ErrorResponse{
		Error:     message,
		ErrorCode: http.StatusUnauthorized,
	}, http.StatusUnauthorized)
	c.Abort()
}

// UserFromContext достает аутентифицированного пользователя из контекста запроса
func UserFromContext(c *gin.Context) (domain.AuthenticatedUser, bool) {
	v, ok := c.Get(string(ContextUserKey))
	if !ok {
		return domain.AuthenticatedUser{}, false
	}
	user, ok := v.(domain.AuthenticatedUser)
	return user, ok
}

// DefaultTokenValidator валидатор токенов на симметричном ключе
type DefaultTokenValidator struct {
	Secret []byte
}

// Validate разбирает и проверяет JWT
func (v *DefaultTokenValidator) Validate(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.Secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, errors.New("malformed token")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, errors.New("invalid token signature")
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, errors.New("token expired")
		default:
			return nil, fmt.Errorf("invalid token: %w", err)
		}
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token claims")
}
