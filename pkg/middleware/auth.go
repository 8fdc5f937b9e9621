package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prohmpiriya/decaying-tickets/pkg/response"
)

var ErrInvalidToken = errors.New("invalid token")

// Context keys for caller identity
const (
	ContextKeyUserID   = "user_id"
	ContextKeyEmail    = "email"
	ContextKeyRole     = "role"
	ContextKeyArtistID = "artist_id"
)

// Claims are the bearer token claims issued by the auth service
type Claims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	ArtistID string `json:"artist_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig holds configuration for JWT middleware
type JWTConfig struct {
	Secret string
	Issuer string // checked when non-empty
}

// JWTMiddleware verifies HMAC-signed bearer tokens and injects the caller
// identity into the gin context.
func JWTMiddleware(config *JWTConfig) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header is required", "")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid authorization header format", "")
			return
		}
		tokenString := strings.TrimSpace(authHeader[len(bearerPrefix):])
		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Token is empty", "")
			return
		}

		claims := &Claims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(config.Secret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Error(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "Access token has expired", "")
				return
			}
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid access token", "")
			return
		}
		if !token.Valid || claims.UserID == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user_id in token", "")
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyRole, strings.ToLower(claims.Role))
		c.Set(ContextKeyArtistID, claims.ArtistID)

		c.Next()
	}
}

// RequireRole rejects callers whose role is not one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			response.Unauthorized(c, "User not authenticated")
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "Insufficient permissions")
	}
}

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) (string, bool) {
	return getString(c, ContextKeyUserID)
}

// GetEmail extracts email from gin context
func GetEmail(c *gin.Context) (string, bool) {
	return getString(c, ContextKeyEmail)
}

// GetRole extracts role from gin context
func GetRole(c *gin.Context) (string, bool) {
	return getString(c, ContextKeyRole)
}

// GetArtistID extracts the linked artist id, empty for non-artists
func GetArtistID(c *gin.Context) (string, bool) {
	return getString(c, ContextKeyArtistID)
}

func getString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
