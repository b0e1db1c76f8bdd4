package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	contextActorID = "actorID"
	contextRole    = "actorRole"
)

// AuthMiddleware extracts the actor identity and role from a bearer token.
// Session mechanics live elsewhere; the core only needs actor_role for the
// transition permission checks.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}

		id, err := subjectID(claims["sub"])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid subject claim"})
			return
		}
		role, _ := claims["role"].(string)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing role claim"})
			return
		}

		c.Set(contextActorID, id)
		c.Set(contextRole, domain.Role(role))
		c.Next()
	}
}

// subjectID accepts both numeric and string sub claims; tokens issued per
// RFC 7519 carry sub as a string.
func subjectID(claim interface{}) (int64, error) {
	switch sub := claim.(type) {
	case float64:
		return int64(sub), nil
	case string:
		return strconv.ParseInt(sub, 10, 64)
	default:
		return 0, fmt.Errorf("missing or malformed sub claim")
	}
}

func actorRole(c *gin.Context) domain.Role {
	if v, ok := c.Get(contextRole); ok {
		if role, ok := v.(domain.Role); ok {
			return role
		}
	}
	return ""
}

func actorID(c *gin.Context) int64 {
	if v, ok := c.Get(contextActorID); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
