package soldier

import (
	"fmt"

	"milpoint/pkg/errutil"
)

// Permission is a role tag attached to a soldier.
type Permission string

const (
	Admin          Permission = "Admin"
	PointAdmin     Permission = "PointAdmin"
	UsePoint       Permission = "UsePoint"
	GivePoint      Permission = "GivePoint"
	GiveLargePoint Permission = "GiveLargePoint"
	AmmoCommander  Permission = "AmmoCommander"
	GuardCommander Permission = "GuardCommander"
	HqCommander    Permission = "HqCommander"
)

// AllCommanderRoles is the fixed set of roles with final-approval authority
// over cadre-issued awards.
var AllCommanderRoles = []Permission{AmmoCommander, GuardCommander, HqCommander}

func IsCommanderRole(p Permission) bool {
	for _, role := range AllCommanderRoles {
		if p == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether held contains at least one of required.
func HasPermission(held, required []Permission) bool {
	for _, r := range required {
		for _, h := range held {
			if h == r {
				return true
			}
		}
	}
	return false
}

// Per-role caps on award magnitude. Admin and PointAdmin are uncapped.
const (
	givePointLimit      = 5
	giveLargePointLimit = 10
)

// CheckPointLimit enforces how large an award a cadre member may issue with
// the permissions they hold.
func CheckPointLimit(value int64, held []Permission) error {
	magnitude := value
	if magnitude < 0 {
		magnitude = -magnitude
	}

	switch {
	case HasPermission(held, []Permission{Admin, PointAdmin}):
		return nil
	case HasPermission(held, []Permission{GiveLargePoint}):
		if magnitude > giveLargePointLimit {
			return errutil.Forbidden(fmt.Sprintf("you cannot award more than %d points at once", giveLargePointLimit))
		}
		return nil
	case HasPermission(held, []Permission{GivePoint}):
		if magnitude > givePointLimit {
			return errutil.Forbidden(fmt.Sprintf("you cannot award more than %d points at once", givePointLimit))
		}
		return nil
	default:
		return errutil.Forbidden("you do not have permission to award points")
	}
}
