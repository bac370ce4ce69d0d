package user

import (
	"fmt"

	"github.com/edusphere/backend/core"
)

// RequireRole fails with a forbidden error unless the caller holds role.
func RequireRole(u User, role Role) error {
	if u.Role != role {
		return core.NewForbiddenError(fmt.Sprintf("%s access required", role))
	}
	return nil
}

// RequireOwnership fails with a forbidden error unless the caller's owner id
// matches the resource's. Callers fetch the resource first so a missing one
// yields not-found before this check runs.
func RequireOwnership(ownerID, resourceOwnerID int) error {
	if ownerID != resourceOwnerID {
		return core.NewForbiddenError("not authorized to modify this resource")
	}
	return nil
}
