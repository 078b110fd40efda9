package enums

import "fmt"

// MemberRole is the account role carried in access tokens.
type MemberRole string

const (
	MemberRoleUser       MemberRole = "USER"
	MemberRoleGM         MemberRole = "GM"
	MemberRoleSM         MemberRole = "SM"
	MemberRolePM         MemberRole = "PM"
	MemberRoleCS         MemberRole = "CS"
	MemberRoleSuperAdmin MemberRole = "SA"
)

var validMemberRoles = []MemberRole{
	MemberRoleUser,
	MemberRoleGM,
	MemberRoleSM,
	MemberRolePM,
	MemberRoleCS,
	MemberRoleSuperAdmin,
}

func (m MemberRole) String() string {
	return string(m)
}

func (m MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the role may use the back-office.
func (m MemberRole) IsAdmin() bool {
	return m.IsValid() && m != MemberRoleUser
}

func ParseMemberRole(value string) (MemberRole, error) {
	for _, candidate := range validMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}
