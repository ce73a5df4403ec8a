package db

import "time"

const defaultTimeout = 10 * time.Second

const (
	// member roles
	MemberRoleMember       MemberRole = "member"
	MemberRoleAdmin        MemberRole = "admin"
	MemberRoleRangeOfficer MemberRole = "range_officer"
)

// MemberRoleNames is a map that contains the member role display labels by
// role, used verbatim in role change notifications.
var MemberRoleNames = map[MemberRole]string{
	MemberRoleMember:       "Member",
	MemberRoleAdmin:        "Administrator",
	MemberRoleRangeOfficer: "Range Officer",
}

// validMemberRoles is a map that contains the valid member roles
var validMemberRoles = map[MemberRole]bool{
	MemberRoleMember:       true,
	MemberRoleAdmin:        true,
	MemberRoleRangeOfficer: true,
}

// IsValidMemberRole function checks if the member role is valid
func IsValidMemberRole(role MemberRole) bool {
	_, valid := validMemberRoles[role]
	return valid
}

// RoleName returns the display label for a role, falling back to the raw
// role string for unknown values.
func RoleName(role MemberRole) string {
	if name, ok := MemberRoleNames[role]; ok {
		return name
	}
	return string(role)
}

// DisciplineNames is a map that contains the discipline display labels by
// discipline key.
var DisciplineNames = map[string]string{
	"pistol":  "Pistol",
	"rifle":   "Rifle",
	"shotgun": "Shotgun",
	"air":     "Air Weapon",
}

// DisciplineName returns the display label for a discipline key, falling
// back to the raw key for unknown values.
func DisciplineName(discipline string) string {
	if name, ok := DisciplineNames[discipline]; ok {
		return name
	}
	return discipline
}
