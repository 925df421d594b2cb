package entity

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSubAdmin Role = "sub_admin"
	RoleVendor   Role = "vendor"
	RoleRider    Role = "rider"
	RoleCustomer Role = "customer"
)

// GeoScope is a geographic restriction: a record matches when its city, state
// and country each appear in the corresponding non-empty list. Empty lists
// don't constrain.
type GeoScope struct {
	Cities    []string `json:"cities,omitempty"`
	States    []string `json:"states,omitempty"`
	Countries []string `json:"countries,omitempty"`
}

func (g *GeoScope) Empty() bool {
	return g == nil || (len(g.Cities) == 0 && len(g.States) == 0 && len(g.Countries) == 0)
}

// ScopeGrant gives an operator some actions on a resource. A nil Scope means
// unrestricted access to that resource/action pair.
type ScopeGrant struct {
	Resource string    `json:"resource"`
	Actions  []string  `json:"actions"`
	Scope    *GeoScope `json:"scope,omitempty"`
}

// Operator is the authenticated caller, decoded from the request's JWT claims.
// ProfileGeo is the operator's profile-level default geography; it narrows
// whatever the permission grants allow, it never widens it.
type Operator struct {
	ID         int          `json:"id"`
	Role       Role         `json:"role"`
	VendorID   int          `json:"vendor_id,omitempty"`
	Grants     []ScopeGrant `json:"grants,omitempty"`
	ProfileGeo *GeoScope    `json:"profile_geo,omitempty"`
}
