// internal/middleware/logging.go
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/plugin-marketplace/internal/models"
	"github.com/javajoker/plugin-marketplace/internal/utils"
)

// AuditLogger records mutating requests in the audit_logs table. Inserts run
// in the background; Wait blocks until the pending ones are flushed.
type AuditLogger struct {
	db *gorm.DB
	wg sync.WaitGroup
}

func NewAuditLogger(db *gorm.DB) *AuditLogger {
	return &AuditLogger{db: db}
}

func (a *AuditLogger) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip read-only requests and health checks
		if !isMutating(c.Request.Method) || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		c.Next()

		auditLog := &models.AuditLog{
			Action:       c.Request.Method + " " + routePath(c),
			ResourceType: extractResourceType(c.Request.URL.Path),
			Status:       c.Writer.Status(),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
		}
		if userID, ok := utils.GetUserUUIDFromContext(c); ok {
			auditLog.UserID = &userID
		}
		if resourceID, err := uuid.Parse(c.Param("id")); err == nil {
			auditLog.ResourceID = &resourceID
		}

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.db.Create(auditLog).Error; err != nil {
				logrus.WithError(err).WithField("action", auditLog.Action).Error("Failed to create audit log")
			}
		}()
	}
}

func (a *AuditLogger) Wait() {
	a.wg.Wait()
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

// routePath prefers the matched route template so that ids do not explode
// label and action cardinality.
func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "api" {
		return parts[1]
	}
	if len(parts) >= 1 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).Milliseconds(),
			"ip":       c.ClientIP(),
		}
		if userID, ok := utils.GetUserIDFromContext(c); ok {
			fields["user_id"] = userID
		}

		entry := logrus.WithFields(fields)
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("Request processed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}
