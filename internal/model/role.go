package model

// Role is the enumerated staff role stored on every admin account.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Roles lists every known role from least to most privileged.
var Roles = []Role{RoleAdmin, RoleSuperAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Capability names a single action an authenticated admin may perform.
type Capability string

const (
	CapProfileRead     Capability = "profile:read"
	CapDonationsRead   Capability = "donations:read"
	CapDonationsVerify Capability = "donations:verify"
	CapDonationsDelete Capability = "donations:delete"
	CapAdminsRead      Capability = "admins:read"
	CapAdminsCreate    Capability = "admins:create"
)

var adminCapabilities = []Capability{
	CapProfileRead,
	CapDonationsRead,
	CapDonationsVerify,
	CapDonationsDelete,
}

// roleCapabilities is the explicit permission set per role. A superadmin
// holds every admin capability plus account management.
var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin:      capabilitySet(adminCapabilities...),
	RoleSuperAdmin: capabilitySet(append(adminCapabilities, CapAdminsRead, CapAdminsCreate)...),
}

func capabilitySet(caps ...Capability) map[Capability]bool {
	set := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	return set
}

// HasCapability reports whether role grants capability. Unknown roles grant
// nothing.
func HasCapability(role Role, capability Capability) bool {
	return roleCapabilities[role][capability]
}

// RequiredRole returns the least privileged role that grants capability, or
// false if no role does.
func RequiredRole(capability Capability) (Role, bool) {
	for _, r := range Roles {
		if HasCapability(r, capability) {
			return r, true
		}
	}
	return "", false
}
