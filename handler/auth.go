package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-service/auth"
	"portfolio-service/logger"
	"portfolio-service/metrics"
	"portfolio-service/middleware"
	"portfolio-service/notifier"
)

const notifyTimeout = 5 * time.Second

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthHandler struct {
	auth     auth.Service
	notifier notifier.LoginNotifier
	secure   bool
	log      logger.Logger
}

// NewAuthHandler builds the login endpoints. secure marks the session cookie
// HTTPS-only and should be set in production.
func NewAuthHandler(svc auth.Service, n notifier.LoginNotifier, secure bool, log logger.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, notifier: n, secure: secure, log: log}
}

// Login handles POST /api/admin/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		metrics.AdminLoginsTotal.WithLabelValues("failure").Inc()
		h.log.Warn("Failed admin login for %q from %s", req.Username, c.ClientIP())
		h.notify(c, req.Username, false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	case err != nil:
		metrics.AdminLoginsTotal.WithLabelValues("error").Inc()
		h.log.Error("admin login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	metrics.AdminLoginsTotal.WithLabelValues("success").Inc()
	h.log.Info("Admin %q logged in from %s", req.Username, c.ClientIP())
	h.notify(c, req.Username, true)

	h.setCookie(c, session.Token, int(h.auth.TTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{"success": true, "expiresAt": session.ExpiresAt})
}

// Logout handles POST /api/admin/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Session handles GET /api/admin/session
func (h *AuthHandler) Session(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"username":      claims.Username,
		"expiresAt":     claims.ExpiresAt.Time,
	})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.CookieName, value, maxAge, "/", "", h.secure, true)
}

// notify tells the notifier in the background so a slow Slack API never
// delays the login response.
func (h *AuthHandler) notify(c *gin.Context, username string, success bool) {
	ip := c.ClientIP()
	ctx := context.WithoutCancel(c.Request.Context())

	go func() {
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		if err := h.notifier.NotifyLogin(ctx, username, ip, success); err != nil {
			h.log.Warn("failed to send login notification: %v", err)
		}
	}()
}
