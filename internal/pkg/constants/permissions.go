package constants

const (
	ViewClients   = "view_clients"
	ManageClients = "manage_clients"
	InviteClient  = "invite_client"
	ViewInvites   = "view_invites"
)

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewClients:   {Admin},
	ManageClients: {Admin},
	InviteClient:  {Admin},
	ViewInvites:   {Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
