package clients

import (
	"context"

	"concierge-backend/internal/domain"

	"gorm.io/gorm"
)

// Provisioner creates client records for redeemed invitations.
type Provisioner struct {
	DB *gorm.DB
}

// ProvisionClient inserts one approved, invited client linked to identityID.
// Profile fields are copied verbatim from the invitation.
func (p *Provisioner) ProvisionClient(ctx context.Context, fields domain.InvitationFields, identityID string) (*domain.Client, error) {
	authID := identityID
	c := &domain.Client{
		AuthID:           &authID,
		InvitationFields: fields,
		IsAuthorized:     domain.AuthorizationApproved,
		RegisterType:     domain.RegisterInvited,
	}
	if err := p.DB.WithContext(ctx).Create(c).Error; err != nil {
		return nil, domain.Persistence("provision client", err)
	}
	return c, nil
}
