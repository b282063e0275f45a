package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/socioadmin/tesoreria_backend/utils"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.Next()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		customClaim, _ := validate.Claims.(*utils.JwtCustomClaim)

		ctx := utils.SetActorIdInContext(c.Request.Context(), customClaim.ID)
		ctx = utils.SetActorNameInContext(ctx, customClaim.Name)
		ctx = utils.SetTokenInContext(ctx, auth)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireActor rejects requests that did not present a valid token. Write
// endpoints need an actor for the audit trail.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetActorIdFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
