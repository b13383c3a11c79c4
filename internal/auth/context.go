package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxFirebaseUID = "firebase_uid"
	CtxEmail       = "email"
	CtxUserDBID    = "user_db_id"
	CtxCompanyID   = "company_id"
	CtxRole        = "company_role"

	HeaderUserID    = "X-User-Id"
	HeaderCompanyID = "X-Company-Id"
)

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// UserFirebaseUID extracts the Firebase UID set by the authentication middleware.
func UserFirebaseUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}

func UserDBID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserDBID))
}

func CompanyID(c *gin.Context) string {
	return c.GetString(CtxCompanyID)
}

func Role(c *gin.Context) string {
	return c.GetString(CtxRole)
}

// Tenant is the company and user a request acts for.
type Tenant struct {
	CompanyID string
	UserID    string
	Role      string
}

func TenantFrom(c *gin.Context) Tenant {
	return Tenant{CompanyID: CompanyID(c), UserID: UserDBID(c), Role: Role(c)}
}

// ValidRole reports whether r is a membership role.
func ValidRole(r string) bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleMember
}
