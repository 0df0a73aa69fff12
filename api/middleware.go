package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const actorKey = "actor"

type actorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ActorAuth extracts the pre-authenticated (actorId, role) pair from the
// bearer token issued upstream. The engine only enforces role match; it
// does not own authentication.
func ActorAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tok := strings.TrimPrefix(h, "Bearer ")

		claims := &actorClaims{}
		parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		actorID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid subject"})
			return
		}

		c.Set(actorKey, domain.Actor{ID: actorID, Role: domain.Role(claims.Role)})
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}
	}
	actor, _ := v.(domain.Actor)
	return actor
}
