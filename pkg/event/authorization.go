package event

import (
	"github.com/scheduleshare/event-manager/pkg/model"
)

// Authorization is a user's resolved access to one event. Structural ownership
// (Event.OwnerID) and share grants are kept apart on purpose: a grant can carry the
// "owner" role label, but only structural ownership confers delete and manage rights.
type Authorization struct {
	// Structural is true when the user is referenced by the event's OwnerID.
	Structural bool
	// Granted is true when the user holds a share grant on the event.
	Granted bool
	// Role is the granted role. Only meaningful when Granted is true.
	Role model.Role
}

// Resolve derives the user's authorization for the event. The event's permission grants
// must be loaded.
func Resolve(userId uint, event *model.Event) Authorization {
	if event.OwnerID == userId {
		return Authorization{Structural: true}
	}

	for _, permission := range event.Permissions {
		if permission.UserID == userId {
			return Authorization{Granted: true, Role: permission.Role}
		}
	}

	return Authorization{}
}

// EffectiveRole returns the role label the authorization amounts to, or false when the
// user has no access at all.
func (a Authorization) EffectiveRole() (model.Role, bool) {
	if a.Structural {
		return model.RoleOwner, true
	}
	if a.Granted {
		return a.Role, true
	}
	return "", false
}

// CanView is true for the structural owner and any grant holder.
func (a Authorization) CanView() bool {
	return a.Structural || a.Granted
}

// CanEdit is true for the structural owner and for grants at editor level or above.
func (a Authorization) CanEdit() bool {
	return a.Structural || (a.Granted && a.Role.AtLeast(model.RoleEditor))
}

// CanDelete is true only for the structural owner. A grant labelled "owner" does not
// qualify.
func (a Authorization) CanDelete() bool {
	return a.Structural
}

// CanManage reports whether the user may grant, change and revoke permissions. Like
// CanDelete it is reserved for the structural owner.
func (a Authorization) CanManage() bool {
	return a.Structural
}
