package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"tripdispatch/internal/domain"
)

const actorKey = "actor"

// Claims is the token payload. Subject carries the actor ID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator validates HS256 bearer tokens.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an Authenticator for the given signing secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// IssueToken signs a token for the actor. Used by tooling and tests.
func (a *Authenticator) IssueToken(actor domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse validates a raw token and returns the actor it identifies.
func (a *Authenticator) Parse(raw string) (domain.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid token")
	}

	role, ok := domain.ParseRole(claims.Role)
	if !ok || claims.Subject == "" {
		return domain.Actor{}, errors.New("invalid token claims")
	}
	return domain.Actor{ID: claims.Subject, Role: role}, nil
}

// Auth rejects requests without a valid bearer token and stores the
// authenticated actor in the context.
func (a *Authenticator) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token required"})
			return
		}

		actor, err := a.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireRole rejects actors whose role is not listed. Must run after Auth.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		for _, r := range roles {
			if actor.Is(r) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden for role " + string(actor.Role)})
	}
}

// ActorFrom returns the actor stored by Auth.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

// SetActor stores an actor in the context without token validation.
func SetActor(c *gin.Context, actor domain.Actor) {
	c.Set(actorKey, actor)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}
