// Package access decides who may read and modify content. Every function is
// pure; subscription activeness is evaluated by the caller and passed in.
package access

import "github.com/learnhub/content-subscriptions/internal/domain"

// Decision is the outcome of a read check.
type Decision int

const (
	Allow Decision = iota
	// DenyUpgrade means the item is premium and the caller has no active subscription.
	DenyUpgrade
)

// CanAccess decides whether a caller with the given role and subscription
// state may read content of the given tier.
func CanAccess(role domain.Role, subscribed bool, tier domain.AccessTier) Decision {
	if role == domain.RoleAdmin {
		return Allow
	}
	if tier == domain.AccessFree {
		return Allow
	}
	if subscribed {
		return Allow
	}
	return DenyUpgrade
}

// CanMutate reports whether the role may create, update or delete content.
func CanMutate(role domain.Role) bool {
	return role == domain.RoleAdmin
}

// SeesAllTiers reports whether listings for the caller include premium items.
func SeesAllTiers(role domain.Role, subscribed bool) bool {
	return role == domain.RoleAdmin || subscribed
}

// NeedsSubscriptionCheck reports whether reading content of the tier depends
// on the caller's subscription. Callers use it to skip the lookup, and the
// lazy expiry write it may cause, when the answer is already known.
func NeedsSubscriptionCheck(role domain.Role, tier domain.AccessTier) bool {
	return role != domain.RoleAdmin && tier == domain.AccessPremium
}
