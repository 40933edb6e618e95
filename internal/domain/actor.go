package domain

import "github.com/google/uuid"

// Actor is the caller identity supplied by the authorization layer. The
// engine never authenticates; it compares ids and trusts the role claim.
type Actor struct {
	UserID uuid.UUID
	Admin  bool
}

// Owns reports whether the actor is the owner identified by ownerID.
func (a Actor) Owns(ownerID uuid.UUID) bool {
	return a.UserID == ownerID
}

// CanAccess reports whether the actor owns the resource or holds the
// admin role.
func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.Admin || a.Owns(ownerID)
}
