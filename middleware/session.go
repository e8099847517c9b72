package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio-service/auth"
)

const claimsKey = "admin_claims"

// Session verifies the admin cookie when present and stores the claims on
// the context. It never rejects a request.
func Session(svc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(auth.CookieName)
		if err == nil && token != "" {
			if claims, err := svc.Verify(token); err == nil {
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

// Claims returns the verified session of the current request, if any.
func Claims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

func IsAdmin(c *gin.Context) bool {
	_, ok := Claims(c)
	return ok
}

// RequireAdmin aborts with 401 unless Session found a valid cookie.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// AdminPages redirects anonymous visitors of the admin area to loginPath.
// The login page itself and its sub-resources stay reachable.
func AdminPages(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := strings.TrimSuffix(c.Request.URL.Path, "/")
		if IsAdmin(c) || path == loginPath || strings.HasPrefix(path, loginPath+"/") {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, loginPath)
		c.Abort()
	}
}
