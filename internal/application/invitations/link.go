package invitations

import "strings"

// AcceptInvitePath is the browser route that redeems an invitation.
const AcceptInvitePath = "/accept-invite"

// BuildInviteLink returns {baseURL}/accept-invite?token={token}.
func BuildInviteLink(token, baseURL string) string {
	return strings.TrimRight(baseURL, "/") + AcceptInvitePath + "?token=" + token
}
