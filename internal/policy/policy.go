// Package policy centralises the tenant-scoped entitlement decisions that
// the handlers and services apply to every resource operation. Keeping the
// rules in one evaluation function lets them be tested without any HTTP
// plumbing.
package policy

import (
	"github.com/vidyalay/school-saas-api/internal/models"
	appErrors "github.com/vidyalay/school-saas-api/pkg/errors"
)

// Action identifies the operation the actor wants to perform.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Target describes the resource under evaluation. SchoolID is the tenant
// tag of the target resource. Role is set when the target is a user
// account, empty otherwise.
type Target struct {
	SchoolID string
	Role     models.UserRole
}

// RequireAdmin ensures the actor is an admin bound to a school. Admin
// namespaces are unusable for admins without a tenant binding.
func RequireAdmin(claims *models.SessionClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin || claims.Tenant() == "" {
		return appErrors.ErrForbidden
	}
	return nil
}

// RequireRecorder ensures the actor may write grade/attendance records:
// an admin or teacher bound to a school.
func RequireRecorder(claims *models.SessionClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Tenant() == "" {
		return appErrors.ErrForbidden
	}
	if claims.Role != models.RoleAdmin && claims.Role != models.RoleTeacher {
		return appErrors.ErrForbidden
	}
	return nil
}

// Evaluate decides whether the actor may perform the action on the target.
//
// Rules, in order:
//   - unauthenticated actors are rejected outright;
//   - admins must be bound to a tenant;
//   - any tenant mismatch reads as NOT_FOUND so one school's admin can
//     never learn whether another school's resource exists;
//   - mutating another admin account is FORBIDDEN even inside the tenant.
func Evaluate(claims *models.SessionClaims, action Action, target Target) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if err := RequireAdmin(claims); err != nil {
		return err
	}

	if target.SchoolID != claims.Tenant() {
		return appErrors.Clone(appErrors.ErrNotFound, "resource not found")
	}

	if target.Role == models.RoleAdmin && action != ActionRead {
		return appErrors.Clone(appErrors.ErrForbidden, "admin accounts cannot be modified")
	}

	return nil
}
