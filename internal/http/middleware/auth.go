package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"rideshare/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

// Claims is the access token payload.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the user.
func IssueToken(secret string, userID int64, role string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   strings.ToLower(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates signature, algorithm and expiry.
func ParseToken(secret, raw string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid || claims.UserID <= 0 {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}

// Auth requires a Bearer token and stores the actor on the context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			abortAuth(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := ParseToken(secret, strings.TrimSpace(raw))
		if err != nil {
			abortAuth(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		c.Set(actorKey, domain.RequestContext{
			UserID:    claims.UserID,
			Role:      claims.Role,
			RequestID: GetRequestID(c),
		})
		c.Next()
	}
}

// RequireRoles lets through actors holding one of roles. Admins always pass.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[strings.ToLower(r)] = true
	}
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abortAuth(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if actor.Role != domain.RoleAdmin && !allowed[actor.Role] {
			abortAuth(c, http.StatusForbidden, "role not allowed")
			return
		}
		c.Next()
	}
}

// GetActor returns the authenticated user set by Auth.
func GetActor(c *gin.Context) (domain.RequestContext, bool) {
	if c == nil {
		return domain.RequestContext{}, false
	}
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.RequestContext{}, false
	}
	actor, ok := v.(domain.RequestContext)
	return actor, ok
}

func abortAuth(c *gin.Context, status int, msg string) {
	code := "unauthorized"
	if status == http.StatusForbidden {
		code = "forbidden"
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":      msg,
		"code":       code,
		"request_id": GetRequestID(c),
	})
}
