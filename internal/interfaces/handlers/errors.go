// Package handlers holds the pieces shared by the HTTP handler packages.
package handlers

import (
	"errors"

	"concierge-backend/internal/application/clients"
	"concierge-backend/internal/application/documents"
	"concierge-backend/internal/application/identity"
	"concierge-backend/internal/application/invitations"
	"concierge-backend/internal/domain"
	"concierge-backend/internal/pkg/response"
	"concierge-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const persistenceMessage = "Something went wrong while saving your changes. Please try again."

// StatusFor maps a service error to an HTTP status and a user-facing message.
// Validation -> 400, not found -> 404, awaiting approval -> 403, conflicts -> 409, anything else -> 500.
func StatusFor(err error) (int, string) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, verr.Error()
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "Not found"
	case errors.Is(err, clients.ErrNoteNotFound), errors.Is(err, identity.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, identity.ErrIdentityConflict),
		errors.Is(err, invitations.ErrAlreadyRedeemed):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, identity.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, err.Error()
	case errors.Is(err, clients.ErrAwaitingApproval):
		return fiber.StatusForbidden, err.Error()
	case errors.Is(err, clients.ErrInvalidFilter),
		errors.Is(err, clients.ErrNoteText),
		errors.Is(err, documents.ErrFileNameRequired):
		return fiber.StatusBadRequest, err.Error()
	case domain.IsPersistence(err):
		return fiber.StatusInternalServerError, persistenceMessage
	}
	return fiber.StatusInternalServerError, "Internal Server Error"
}

// RespondError sends the standard error envelope for err. Validation errors
// carry their per-field messages as details.
func RespondError(c *fiber.Ctx, err error) error {
	var details interface{}
	var verr *validation.Error
	if errors.As(err, &verr) {
		details = verr.Fields
	}
	return RespondErrorDetails(c, err, details)
}

// RespondErrorDetails is RespondError with caller-supplied details.
func RespondErrorDetails(c *fiber.Ctx, err error, details interface{}) error {
	code, message := StatusFor(err)
	if code >= 500 {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return response.Error(c, message, code, details)
}

// ParamUUID parses the named route param. ok=false means a 400 was already sent.
func ParamUUID(c *fiber.Ctx, name string) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, false, response.Error(c, "Invalid "+name, fiber.StatusBadRequest, nil)
	}
	return id, true, nil
}
