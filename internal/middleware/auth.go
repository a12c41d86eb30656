package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/career-assessment-service/internal/config"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
)

const (
	ContextAdminKey = "admin"
	ContextUserID   = "user_id"
)

// TokenParser turns a bearer token into Casdoor claims
type TokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// NewCasdoorParser builds the Casdoor client used for admin authentication
func NewCasdoorParser(cfg config.AuthConfig) TokenParser {
	return casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.OrganizationName,
		cfg.ApplicationName,
	)
}

// AdminAuth admits only Casdoor users flagged as administrators
func AdminAuth(parser TokenParser, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}

		claims, err := parser.ParseJwtToken(token)
		if err != nil {
			logger.Warn("Rejected admin token", "error", err, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}

		if !claims.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Administrator access required"})
			return
		}

		c.Set(ContextAdminKey, claims)
		c.Set(ContextUserID, claims.Id)
		c.Next()
	}
}
