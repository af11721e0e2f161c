package invitations

import (
	"context"
	"errors"

	"concierge-backend/internal/application/identity"
	"concierge-backend/internal/domain"
	"concierge-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
)

// State is where an acceptance attempt ended. The page-side loading and
// submitting steps never reach the server.
type State string

const (
	StateNotFound  State = "not_found"
	StateLoaded    State = "loaded"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// SignInPath is where a recipient goes after a successful redemption.
const SignInPath = "/login"

// IdentityCreator is the slice of the identity provider the workflow needs.
type IdentityCreator interface {
	SignUp(ctx context.Context, email, password string) (*identity.User, error)
	Delete(ctx context.Context, id string) error
}

// AcceptInput is the credential form submitted by the recipient.
type AcceptInput struct {
	Token           string `json:"-"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// Acceptance is the outcome of one workflow run.
type Acceptance struct {
	State      State              `json:"state"`
	Invitation *domain.Invitation `json:"-"`
	Client     *domain.Client     `json:"client,omitempty"`
	RedirectTo string             `json:"redirect_to,omitempty"`
}

// Accept redeems the invitation behind in.Token.
//
// Order: lookup, credential check, redemption lock, identity sign-up, client
// provisioning, invite consumption. The invitation is only consumed after the
// client record exists, so any failure before that leaves it redeemable. When
// provisioning fails the freshly created identity is deleted again so a retry
// does not trip over a duplicate email.
func (s *Service) Accept(ctx context.Context, in AcceptInput) (*Acceptance, error) {
	inv, err := s.Lookup(ctx, in.Token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Acceptance{State: StateNotFound}, err
		}
		return &Acceptance{State: StateFailed}, err
	}
	if err := validation.Struct(in); err != nil {
		return &Acceptance{State: StateLoaded, Invitation: inv}, err
	}

	if s.Locker != nil {
		release, ok, err := s.Locker.Acquire(ctx, claimKeyPrefix+inv.Token, claimTTL)
		if err != nil {
			log.Error().Err(err).Str("invite_id", inv.ID.String()).Msg("accept: redemption lock unavailable")
			return &Acceptance{State: StateFailed, Invitation: inv}, err
		}
		if !ok {
			return &Acceptance{State: StateFailed, Invitation: inv}, ErrAlreadyRedeemed
		}
		defer release()
	}

	user, err := s.Identity.SignUp(ctx, inv.Email, in.Password)
	if err != nil {
		log.Warn().Err(err).Str("invite_id", inv.ID.String()).Str("email", inv.Email).Msg("accept: identity sign-up failed")
		return &Acceptance{State: StateFailed, Invitation: inv}, err
	}

	client, err := s.Provisioner.ProvisionClient(ctx, inv.InvitationFields, user.ID)
	if err != nil {
		log.Error().Err(err).Str("invite_id", inv.ID.String()).Str("identity_id", user.ID).Msg("accept: provisioning failed")
		if derr := s.Identity.Delete(ctx, user.ID); derr != nil {
			log.Error().Err(derr).Str("identity_id", user.ID).Msg("accept: orphaned identity could not be removed")
		}
		return &Acceptance{State: StateFailed, Invitation: inv}, err
	}

	claimed, err := s.Store.Claim(ctx, inv.ID)
	switch {
	case err != nil:
		log.Error().Err(err).Str("invite_id", inv.ID.String()).Msg("accept: consumed invite could not be deleted")
	case !claimed:
		log.Warn().Str("invite_id", inv.ID.String()).Msg("accept: invite already removed before consumption")
	}

	log.Info().Str("invite_id", inv.ID.String()).Str("client_id", client.ID.String()).Msg("invitation redeemed")
	return &Acceptance{
		State:      StateSucceeded,
		Invitation: inv,
		Client:     client,
		RedirectTo: SignInPath,
	}, nil
}
