package invitations

import (
	"errors"
	"time"

	invsvc "concierge-backend/internal/application/invitations"
	"concierge-backend/internal/domain"
	"concierge-backend/internal/interfaces/handlers"
	"concierge-backend/internal/middleware"
	"concierge-backend/internal/pkg/response"
	"concierge-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *invsvc.Service
}

// invitePreview is what the public acceptance page may see of an invitation.
type invitePreview struct {
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

// POST /api/v1/invites/create-invite (INVITE_CLIENT permission via middleware)
func (h *Handlers) CreateInvite(c *fiber.Ctx) error {
	var fields domain.InvitationFields
	if err := c.BodyParser(&fields); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := validation.Struct(fields); err != nil {
		return handlers.RespondError(c, err)
	}

	in := invsvc.CreateInviteInput{Fields: fields}
	if actor := middleware.GetUser(c); actor != nil {
		in.CreatedBy = actor.Email
	}
	res, err := h.Service.CreateInvite(c.UserContext(), in)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	msg := "Invitation sent successfully"
	if !res.NotificationSent {
		msg = "Invitation created, but the email could not be sent"
	}
	return response.SuccessCreated(c, msg, res, nil)
}

// GET /api/v1/invites/view-invites (VIEW_INVITES permission via middleware). Expired invites are reaped.
func (h *Handlers) ViewInvites(c *fiber.Ctx) error {
	live, err := h.Service.ListLive(c.UserContext())
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.List(c, "Invitations fetched successfully", live, len(live))
}

// POST /api/v1/invites/resend-invite/:id
func (h *Handlers) ResendInvite(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamUUID(c, "id")
	if !ok {
		return err
	}
	res, err := h.Service.ResendInvite(c.UserContext(), id)
	if err != nil {
		var nerr *invsvc.NotificationError
		if errors.As(err, &nerr) {
			return response.Error(c, "Invitation email could not be sent", fiber.StatusBadGateway, nil)
		}
		return handlers.RespondError(c, err)
	}
	return response.Success(c, "Invitation resent successfully", res, nil)
}

// DELETE /api/v1/invites/revoke-invite/:id
func (h *Handlers) RevokeInvite(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamUUID(c, "id")
	if !ok {
		return err
	}
	if err := h.Service.RevokeInvite(c.UserContext(), id); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, "Invitation revoked", fiber.Map{"id": id}, nil)
}

// GET /api/v1/accept-invite?token= (public)
func (h *Handlers) CheckInvite(c *fiber.Ctx) error {
	inv, err := h.Service.Lookup(c.UserContext(), c.Query("token"))
	if err != nil {
		return handlers.RespondErrorDetails(c, err, fiber.Map{"state": stateFor(err, invsvc.StateFailed)})
	}
	return response.Success(c, "Invitation is valid", fiber.Map{
		"state":      invsvc.StateLoaded,
		"invitation": invitePreview{Email: inv.Email, Name: inv.Name, ExpiresAt: inv.ExpiresAt},
	}, nil)
}

type acceptBody struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// POST /api/v1/accept-invite?token= (public)
func (h *Handlers) AcceptInvite(c *fiber.Ctx) error {
	var body acceptBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	out, err := h.Service.Accept(c.UserContext(), invsvc.AcceptInput{
		Token:           c.Query("token"),
		Password:        body.Password,
		ConfirmPassword: body.ConfirmPassword,
	})
	if err != nil {
		details := fiber.Map{"state": out.State}
		var verr *validation.Error
		if errors.As(err, &verr) {
			details["fields"] = verr.Fields
		}
		return handlers.RespondErrorDetails(c, err, details)
	}
	return response.Success(c, "Account created. Please sign in.", out, nil)
}

func stateFor(err error, fallback invsvc.State) invsvc.State {
	code, _ := handlers.StatusFor(err)
	if code == fiber.StatusNotFound {
		return invsvc.StateNotFound
	}
	return fallback
}

