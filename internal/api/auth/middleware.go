// Package auth adapts the external identity provider's verified claims into a
// domain Identity. Identity issuance itself is out of scope; the gateway in
// front of this service has already verified the subject and forwards its
// claims in trusted headers.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/snapcrew/capture-market/internal/api/domain"
)

const (
	HeaderSubjectID    = "X-Subject-Id"
	HeaderGrantedRoles = "X-Granted-Roles"
	HeaderActiveRole   = "X-Active-Role"

	identityKey = "auth.identity"
)

// Middleware establishes the caller's identity or rejects the request. The
// active role must be one of the granted roles; policy decisions downstream
// key strictly off the active role.
func Middleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetHeader(HeaderSubjectID)
		active := domain.Role(c.GetHeader(HeaderActiveRole))
		if subject == "" || active == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		var granted []domain.Role
		for _, raw := range strings.Split(c.GetHeader(HeaderGrantedRoles), ",") {
			r := domain.Role(strings.TrimSpace(raw))
			if r.Valid() {
				granted = append(granted, r)
			}
		}

		id := domain.Identity{
			SubjectID:    subject,
			GrantedRoles: granted,
			ActiveRole:   active,
		}

		if !active.Valid() || !id.HasGranted(active) {
			logger.Warn("Active role not in granted set",
				slog.String("subject_id", subject),
				slog.String("active_role", string(active)),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "active role is not granted",
			})
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// CallerIdentity returns the identity established by Middleware.
func CallerIdentity(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}
