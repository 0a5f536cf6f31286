package workflow

// Role identifies the party acting on a service request. Roles arrive already
// resolved by the caller; nothing in this package authenticates them.
type Role string

const (
	RoleRequester     Role = "Requester"
	RoleProfessional  Role = "Professional"
	RoleAdministrator Role = "Administrator"
)

var validRoles = map[Role]bool{
	RoleRequester:     true,
	RoleProfessional:  true,
	RoleAdministrator: true,
}

// Roles returns all roles in a stable order
func Roles() []Role {
	return []Role{RoleRequester, RoleProfessional, RoleAdministrator}
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	return validRoles[r]
}
