package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"collabx/auth"
)

const claimsContextKey = "claims"

// TokenAuthMiddleware verifies the bearer token and stores the decoded
// claims in the request context.
func TokenAuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := ""
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
		if token == "" {
			token = c.GetHeader("x-auth-token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token provided, authorization denied"})
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is not valid"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) (*auth.Claims, bool) {
	value, ok := c.Get(claimsContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok
}
