package invitations

import (
	"context"
	"sort"
	"strings"
	"time"

	"concierge-backend/internal/application/emails"
	"concierge-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Provisioner creates the client record for a redeemed invitation.
type Provisioner interface {
	ProvisionClient(ctx context.Context, fields domain.InvitationFields, identityID string) (*domain.Client, error)
}

// Service runs the invitation lifecycle: create, notify, list (with reaping), redeem.
type Service struct {
	Store       Store
	Policy      TokenPolicy
	Sender      emails.Sender
	Identity    IdentityCreator
	Provisioner Provisioner
	Locker      Locker // optional; nil disables the redemption lock
	BaseURL     string
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateInviteInput is the validated operator form.
type CreateInviteInput struct {
	Fields    domain.InvitationFields
	CreatedBy string
}

// CreateInviteResult reports the stored invitation and whether its email went out.
type CreateInviteResult struct {
	Invitation       *domain.Invitation `json:"invitation"`
	Link             string             `json:"link"`
	NotificationSent bool               `json:"notification_sent"`
}

// CreateInvite stores a new invitation and emails the link to the recipient.
// A store failure aborts before any email is sent. An email failure is logged
// and reported through NotificationSent; the invitation stays redeemable.
func (s *Service) CreateInvite(ctx context.Context, in CreateInviteInput) (*CreateInviteResult, error) {
	fields := in.Fields
	fields.Email = strings.ToLower(strings.TrimSpace(fields.Email))
	if err := ValidateCreation(fields.Email, in.CreatedBy); err != nil {
		return nil, err
	}

	now := s.now()
	inv := &domain.Invitation{
		InvitationFields: fields,
		Token:            s.Policy.IssueToken(),
		ExpiresAt:        s.Policy.ComputeExpiry(now),
		CreatedAt:        now,
	}
	if in.CreatedBy != "" {
		createdBy := in.CreatedBy
		inv.CreatedBy = &createdBy
	}
	if err := s.Store.Create(ctx, inv); err != nil {
		return nil, err
	}

	link := BuildInviteLink(inv.Token, s.BaseURL)
	res := &CreateInviteResult{Invitation: inv, Link: link}
	if err := s.notify(ctx, inv, link); err != nil {
		log.Warn().Err(err).Str("invite_id", inv.ID.String()).Str("email", inv.Email).
			Msg("invitation created but email was not delivered")
		return res, nil
	}
	res.NotificationSent = true
	return res, nil
}

func (s *Service) notify(ctx context.Context, inv *domain.Invitation, link string) error {
	if s.Sender == nil {
		return &NotificationError{Email: inv.Email, Err: emails.ErrNoSender}
	}
	msg := emails.InvitationMessage(inv.Email, inv.Name, link, s.Policy.Lifetime())
	if err := s.Sender.Send(ctx, msg); err != nil {
		return &NotificationError{Email: inv.Email, Err: err}
	}
	return nil
}

// ResendInvite emails the existing link again. The record itself is not modified.
// An expired invitation is deleted and reported as ErrNotFound.
func (s *Service) ResendInvite(ctx context.Context, id uuid.UUID) (*CreateInviteResult, error) {
	inv, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Policy.IsExpired(inv, s.now()) {
		if err := s.Store.Delete(ctx, inv.ID); err != nil {
			log.Error().Err(err).Str("invite_id", inv.ID.String()).Msg("resend: delete expired invite failed")
		}
		return nil, ErrNotFound
	}
	link := BuildInviteLink(inv.Token, s.BaseURL)
	if err := s.notify(ctx, inv, link); err != nil {
		return nil, err
	}
	return &CreateInviteResult{Invitation: inv, Link: link, NotificationSent: true}, nil
}

// RevokeInvite deletes an invitation on operator request. Missing ids are not an error.
func (s *Service) RevokeInvite(ctx context.Context, id uuid.UUID) error {
	return s.Store.Delete(ctx, id)
}

// ListLive lists invitations, reaping the expired ones, soonest-expiring first.
func (s *Service) ListLive(ctx context.Context) ([]domain.Invitation, error) {
	all, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	reaper := &Reaper{Store: s.Store, Policy: s.Policy}
	live := reaper.Reap(ctx, all, s.now())
	sort.SliceStable(live, func(i, j int) bool {
		return live[i].ExpiresAt.Before(live[j].ExpiresAt)
	})
	return live, nil
}

// Lookup returns the redeemable invitation for token, or ErrNotFound when the
// token is empty, unknown or expired.
func (s *Service) Lookup(ctx context.Context, token string) (*domain.Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotFound
	}
	inv, err := s.Store.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if s.Policy.IsExpired(inv, s.now()) {
		return nil, ErrNotFound
	}
	return inv, nil
}
