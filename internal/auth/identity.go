package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corebuild/corebuild-backend/internal/logging"
	"github.com/corebuild/corebuild-backend/internal/users"
)

type UserStore interface {
	EnsureUser(ctx context.Context, u users.UpsertUser) (string, error)
}

type MembershipStore interface {
	MembershipRole(ctx context.Context, companyID, userID string) (string, error)
}

// WithUser maps the authenticated Firebase UID to an internal user row,
// creating it on first sight.
func WithUser(store UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		fuid := UserFirebaseUID(c)
		if fuid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
			return
		}

		uid, err := store.EnsureUser(c.Request.Context(), users.UpsertUser{
			FirebaseUID: fuid,
			Email:       c.GetString(CtxEmail),
			DisplayName: c.GetHeader("X-User-Name"),
			PhotoURL:    c.GetHeader("X-User-Photo"),
		})
		if err != nil {
			logging.FromContext(c.Request.Context()).Error("ensure user", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure user failed"})
			return
		}

		c.Set(CtxUserDBID, uid)
		c.Next()
	}
}

// RequireCompany resolves the tenant from X-Company-Id and checks membership.
func RequireCompany(store MembershipStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := strings.TrimSpace(c.GetHeader(HeaderCompanyID))
		if companyID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": "X-Company-Id header is required"})
			return
		}
		if _, err := uuid.Parse(companyID); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": "X-Company-Id must be a uuid"})
			return
		}

		role, err := store.MembershipRole(c.Request.Context(), companyID, UserDBID(c))
		if err != nil {
			logging.FromContext(c.Request.Context()).Error("membership lookup", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "membership lookup failed"})
			return
		}
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "not a member of this company"})
			return
		}

		c.Set(CtxCompanyID, companyID)
		c.Set(CtxRole, role)
		c.Next()
	}
}

// RequireRole allows the request through only for the listed roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := Role(c)
		for _, r := range roles {
			if r == current {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "insufficient role"})
	}
}
