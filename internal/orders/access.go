package orders

import (
	"github.com/angelmondragon/orderportal-backend/pkg/db/models"
	"github.com/angelmondragon/orderportal-backend/pkg/enums"
)

// Actor is the authenticated principal performing an operation.
type Actor struct {
	UserID   int64
	Role     enums.UserRole
	BranchID *int64
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// CanAccessOrder is the owner-or-admin rule for reads and mutations.
func CanAccessOrder(actor Actor, order *models.Order) bool {
	if order == nil {
		return false
	}
	return actor.IsAdmin() || order.UserID == actor.UserID
}

// CanAccessUser allows self or admin.
func CanAccessUser(actor Actor, userID int64) bool {
	return actor.IsAdmin() || actor.UserID == userID
}

// CanOrderFor reports whether actor may place an order owned by target.
// Branch principals may act for users of their own branch.
func CanOrderFor(actor Actor, target *models.User) bool {
	if target == nil {
		return false
	}
	if CanAccessUser(actor, target.ID) {
		return true
	}
	if actor.Role != enums.UserRoleBranch || actor.BranchID == nil || target.BranchID == nil {
		return false
	}
	return *actor.BranchID == *target.BranchID
}
