package invitations

import (
	"errors"
	"fmt"

	"concierge-backend/internal/domain"
)

var (
	// ErrNotFound: no invitation with that token, or it has expired.
	ErrNotFound = domain.ErrNotFound
	// ErrAlreadyRedeemed: another acceptance holds or consumed this invitation.
	ErrAlreadyRedeemed = errors.New("Invitation has already been redeemed")
)

// NotificationError reports a failed invitation email. It never invalidates the invitation.
type NotificationError struct {
	Email string
	Err   error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("send invitation to %s: %v", e.Email, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
