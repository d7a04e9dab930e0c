package identity

import "github.com/multipos/console/internal/domain/shared"

// Principal is the signed-in user as read from the bearer token. It only
// drives UX gating; the POS API re-checks every call.
type Principal struct {
	UserID    string       `json:"userId"`
	CompanyID string       `json:"companyId,omitempty"`
	Name      string       `json:"name,omitempty"`
	Email     string       `json:"email,omitempty"`
	Role      Role         `json:"role"`
	Scope     shared.Scope `json:"scope,omitzero"`
}

// Can applies the capability policy with the given scope flags.
func (p Principal) Can(res Resource, act Action, flags Flags) bool {
	return CapabilityWithSettings(p.Role, res, act, flags)
}

// Anonymous reports a principal without a recognized role.
func (p Principal) Anonymous() bool { return !p.Role.Valid() }
